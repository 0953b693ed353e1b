// Package moransim runs configured Moran process simulations and reads back
// their persisted results.
package moransim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"moransim/internal/config"
	"moransim/internal/driver"
	"moransim/internal/logging"
	"moransim/internal/metrics"
	"moransim/internal/model"
	"moransim/internal/report"
	"moransim/internal/storage"
)

const (
	defaultReportsDir = "reports"
	defaultDBPath     = "moransim.db"
)

type Options struct {
	StoreKind  string
	DBPath     string
	ReportsDir string
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

type Client struct {
	store      storage.Store
	reportsDir string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	initOnce sync.Once
	initErr  error
}

type TrialSummary struct {
	Trial       int
	Seed        int64
	Steps       int
	TimeClock   float64
	MeanFitness float64
	Outcome     string
	Error       string
}

type RunSummary struct {
	RunID        string
	ArtifactsDir string
	Trials       []TrialSummary
	// FinalMeanFitness averages the final mean fitness of trials that did not fail.
	FinalMeanFitness float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	Model            string
	Topology         string
	PopulationSize   int
	Trials           int
	Seed             int64
	FinalMeanFitness float64
	CreatedAtUTC     string
	ArtifactsDir     string
}

type TrialsRequest struct {
	RunID  string
	Latest bool
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	reportsDir := opts.ReportsDir
	if reportsDir == "" {
		reportsDir = defaultReportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{
		store:      store,
		reportsDir: reportsDir,
		logger:     logger,
		metrics:    opts.Metrics,
		now:        now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Run executes every trial described by cfg, persists run and trial
// records, and writes reports and run artifacts under the config's output
// directory, or the client's reports directory when it sets none. The run
// index always lives in the client's reports directory and records where
// the artifacts went. A failed run still writes its artifacts.
func (c *Client) Run(ctx context.Context, cfg *config.Config) (RunSummary, error) {
	if cfg == nil {
		return RunSummary{}, errors.New("config is required")
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	settings := *cfg
	if settings.Reports.OutputDir == "" {
		settings.Reports.OutputDir = c.reportsDir
	}

	plan, err := settings.Build(config.Deps{Logger: c.logger, Metrics: c.metrics, Store: c.store})
	if err != nil {
		return RunSummary{}, err
	}
	plan.Driver.Now = c.now
	d, err := driver.New(plan.Driver)
	if err != nil {
		return RunSummary{}, err
	}
	runID := d.RunID()
	c.logger.Info("run started", "run_id", runID, "model", settings.Model.Kind,
		"topology", settings.Population.Topology, "trials", settings.Run.Trials)

	result, runErr := d.Run(ctx)

	summary := RunSummary{RunID: runID, Trials: make([]TrialSummary, 0, len(result.Trials))}
	artifactTrials := make([]report.TrialSummary, 0, len(result.Trials))
	completed := 0
	for _, tr := range result.Trials {
		item := TrialSummary{
			Trial:       tr.Trial,
			Seed:        tr.Seed,
			Steps:       tr.Steps,
			TimeClock:   tr.TimeClock,
			MeanFitness: tr.MeanFitness,
			Outcome:     tr.Outcome,
		}
		if tr.Err != nil {
			item.Error = tr.Err.Error()
		} else if tr.Outcome != "" && tr.Outcome != metrics.OutcomeCanceled {
			summary.FinalMeanFitness += tr.MeanFitness
			completed++
		}
		summary.Trials = append(summary.Trials, item)
		artifactTrials = append(artifactTrials, report.TrialSummary(item))
	}
	if completed > 0 {
		summary.FinalMeanFitness /= float64(completed)
	}

	runDir, err := report.WriteRunArtifacts(settings.Reports.OutputDir, report.RunArtifacts{
		Config: plan.RunConfig(runID),
		Trials: artifactTrials,
	})
	if err != nil {
		return summary, errors.Join(runErr, err)
	}
	summary.ArtifactsDir = filepath.Clean(runDir)
	if err := report.AppendRunIndex(c.reportsDir, report.RunIndexEntry{
		RunID:            runID,
		Model:            settings.Model.Kind,
		Topology:         settings.Population.Topology,
		PopulationSize:   plan.PopulationSize,
		Trials:           settings.Run.Trials,
		Seed:             settings.Run.Seed,
		FinalMeanFitness: summary.FinalMeanFitness,
		CreatedAtUTC:     c.now().UTC().Format(time.RFC3339Nano),
		ArtifactsDir:     summary.ArtifactsDir,
	}); err != nil {
		return summary, errors.Join(runErr, err)
	}
	if runErr != nil {
		return summary, runErr
	}
	c.logger.Info("run finished", "run_id", runID, "final_mean_fitness", summary.FinalMeanFitness)
	return summary, nil
}

// Runs lists indexed runs newest first.
func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	entries, err := report.ListRunIndex(c.reportsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem(e))
	}
	return out, nil
}

// Trials returns a run's trial summaries from the store, falling back to
// the trials.json artifact for runs the store does not hold.
func (c *Client) Trials(ctx context.Context, req TrialsRequest) ([]TrialSummary, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return nil, errors.New("trials requires run id or latest")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	entries, err := report.ListRunIndex(c.reportsDir)
	if err != nil {
		return nil, err
	}
	runID := req.RunID
	if req.Latest {
		if len(entries) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = entries[0].RunID
	}

	records, ok, err := c.store.GetTrials(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return fromRecords(records), nil
	}
	baseDir := c.reportsDir
	for _, e := range entries {
		if e.RunID == runID && e.ArtifactsDir != "" {
			baseDir = filepath.Dir(e.ArtifactsDir)
			break
		}
	}
	summaries, ok, err := report.ReadTrialSummaries(baseDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	out := make([]TrialSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, TrialSummary(s))
	}
	return out, nil
}

// Trajectory returns the recorded per-step points of one trial. Runs
// executed without trajectory recording yield an empty slice.
func (c *Client) Trajectory(ctx context.Context, runID string, trial int) ([]model.StepPoint, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	records, ok, err := c.store.GetTrials(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	for _, r := range records {
		if r.Trial == trial {
			return append([]model.StepPoint(nil), r.Trajectory...), nil
		}
	}
	return nil, fmt.Errorf("trial %d not found in run %s", trial, runID)
}

func fromRecords(records []model.TrialRecord) []TrialSummary {
	out := make([]TrialSummary, 0, len(records))
	for _, r := range records {
		out = append(out, TrialSummary{
			Trial:       r.Trial,
			Seed:        r.Seed,
			Steps:       r.Steps,
			TimeClock:   r.TimeClock,
			MeanFitness: r.MeanFitness,
			Outcome:     r.Outcome,
			Error:       r.Error,
		})
	}
	return out
}
