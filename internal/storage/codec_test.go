package storage

import (
	"errors"
	"testing"

	"moransim/internal/model"
)

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion + 1, CodecVersion: CurrentCodecVersion},
		ID:              "run-1",
	}
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}

	trial := model.TrialRecord{RunID: "run-1", Trial: 2}
	data, err = EncodeTrial(trial)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeTrial(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDecodeTrialKeepsTrajectory(t *testing.T) {
	trial := model.TrialRecord{
		VersionedRecord: CurrentVersion(),
		RunID:           "run-1",
		Trial:           3,
		Steps:           2,
		Outcome:         "completed",
		Trajectory: []model.StepPoint{
			{Step: 1, TimeClock: 0.9, MeanFitness: 1.01},
			{Step: 2, TimeClock: 1.8, MeanFitness: 1.02},
		},
	}
	data, err := EncodeTrial(trial)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeTrial(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Trajectory) != 2 || decoded.Trajectory[1].MeanFitness != 1.02 || decoded.Outcome != "completed" {
		t.Fatalf("unexpected trial %+v", decoded)
	}
}
