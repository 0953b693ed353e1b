package storage

import (
	"context"

	"moransim/internal/model"
)

// Store persists run summaries and per-trial trajectories.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveTrial(ctx context.Context, trial model.TrialRecord) error
	GetTrials(ctx context.Context, runID string) ([]model.TrialRecord, bool, error)
}
