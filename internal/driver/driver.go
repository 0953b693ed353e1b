// Package driver runs independent Moran trials, applies the stopping
// predicate between steps and fans each step out to observers.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"moransim/internal/cell"
	"moransim/internal/logging"
	"moransim/internal/metrics"
	"moransim/internal/model"
	"moransim/internal/moran"
	"moransim/internal/simerr"
	"moransim/internal/storage"
)

// TrialFactory builds the founding population of one trial. The rng is the
// trial's own stream; factories that randomize founders must draw from it.
type TrialFactory func(rng *rand.Rand) (moran.Space, *cell.Source, error)

// FitnessRange bounds the mean fitness for which a trial keeps running.
type FitnessRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PositiveFitness admits every non-negative mean fitness.
func PositiveFitness() FitnessRange {
	return FitnessRange{Min: 0, Max: math.Inf(1)}
}

func (r FitnessRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

type Config struct {
	RunID    string
	Model    string
	Topology string
	Trials   int
	MaxSteps int
	// FitnessRange defaults to PositiveFitness when nil.
	FitnessRange *FitnessRange
	Seed         int64
	Workers      int
	// ContinueOnError keeps the remaining trials running after one fails.
	ContinueOnError bool
	// RecordTrajectory stores every step's clock and mean fitness in the trial record.
	RecordTrajectory bool

	NewTrial  TrialFactory
	Observers []Observer
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Store     storage.Store
	Now       func() time.Time
}

type TrialResult struct {
	Trial       int     `json:"trial"`
	Seed        int64   `json:"seed"`
	Steps       int     `json:"steps"`
	TimeClock   float64 `json:"time_clock"`
	MeanFitness float64 `json:"mean_fitness"`
	Outcome     string  `json:"outcome"`
	Err         error   `json:"-"`

	Trajectory []model.StepPoint `json:"trajectory,omitempty"`
}

type Result struct {
	RunID  string        `json:"run_id"`
	Trials []TrialResult `json:"trials"`
}

type Driver struct {
	cfg     Config
	fitness FitnessRange
}

func New(cfg Config) (*Driver, error) {
	if cfg.NewTrial == nil {
		return nil, simerr.Validationf("trial factory is required")
	}
	if cfg.Trials <= 0 {
		return nil, simerr.Validationf("trial count must be > 0")
	}
	if cfg.MaxSteps <= 0 {
		return nil, simerr.Validationf("max step count must be > 0")
	}
	fitness := PositiveFitness()
	if cfg.FitnessRange != nil {
		fitness = *cfg.FitnessRange
	}
	if math.IsNaN(fitness.Min) || math.IsNaN(fitness.Max) || fitness.Min > fitness.Max {
		return nil, simerr.Validationf("fitness range [%v, %v] is empty", fitness.Min, fitness.Max)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return &Driver{cfg: cfg, fitness: fitness}, nil
}

func (d *Driver) RunID() string {
	return d.cfg.RunID
}

// FitnessRange returns the resolved stop range.
func (d *Driver) FitnessRange() FitnessRange {
	return d.fitness
}

// Run executes every trial. Trial seeds are drawn up front from the master
// seed, so results do not depend on the worker count.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	cfg := d.cfg
	run := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              cfg.RunID,
		CreatedAtUTC:    cfg.Now().UTC().Format(time.RFC3339),
		Model:           cfg.Model,
		Topology:        cfg.Topology,
		Trials:          cfg.Trials,
		MaxSteps:        cfg.MaxSteps,
		FitnessMin:      d.fitness.Min,
		FitnessMax:      finiteOrZero(d.fitness.Max),
		Seed:            cfg.Seed,
		Status:          "running",
	}
	if cfg.Store != nil {
		if err := cfg.Store.SaveRun(ctx, run); err != nil {
			return Result{}, fmt.Errorf("save run: %w", err)
		}
	}
	for _, obs := range cfg.Observers {
		if err := obs.InitRun(cfg.RunID); err != nil {
			return Result{}, fmt.Errorf("init observer: %w", err)
		}
	}

	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Trials)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	results := make([]TrialResult, cfg.Trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range seeds {
		trial := i
		g.Go(func() error {
			res := d.runTrial(gctx, trial, seeds[trial])
			results[trial] = res
			cfg.Metrics.ObserveTrial(res.Outcome)
			if err := d.saveTrial(gctx, res); err != nil {
				return err
			}
			if res.Err != nil && !cfg.ContinueOnError {
				return fmt.Errorf("trial %d: %w", trial, res.Err)
			}
			return nil
		})
	}
	runErr := g.Wait()

	for _, obs := range cfg.Observers {
		if err := obs.FinalizeRun(); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("finalize observer: %w", err))
		}
	}

	switch {
	case ctx.Err() != nil:
		run.Status = metrics.OutcomeCanceled
	case runErr != nil:
		run.Status = metrics.OutcomeFailed
	default:
		run.Status = metrics.OutcomeCompleted
	}
	if cfg.Store != nil {
		if err := cfg.Store.SaveRun(context.WithoutCancel(ctx), run); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("save run: %w", err))
		}
	}
	return Result{RunID: cfg.RunID, Trials: results}, runErr
}

func (d *Driver) runTrial(ctx context.Context, trial int, seed int64) TrialResult {
	cfg := d.cfg
	res := TrialResult{Trial: trial, Seed: seed}
	logger := cfg.Logger.With("trial", trial)

	rng := rand.New(rand.NewSource(seed))
	sp, src, err := cfg.NewTrial(rng)
	if err != nil {
		res.Outcome, res.Err = metrics.OutcomeFailed, fmt.Errorf("build population: %w", err)
		return res
	}
	proc, err := moran.NewProcess(sp, src, rng)
	if err != nil {
		res.Outcome, res.Err = metrics.OutcomeFailed, err
		return res
	}

	snap := Snapshot{Trial: trial, MeanFitness: proc.MeanFitness(), Space: sp}
	for _, obs := range cfg.Observers {
		if err := obs.InitTrial(snap); err != nil {
			res.Outcome, res.Err = metrics.OutcomeFailed, err
			return res
		}
	}

	res.Outcome = metrics.OutcomeCompleted
	for res.Steps < cfg.MaxSteps {
		if !d.fitness.Contains(proc.MeanFitness()) {
			res.Outcome = metrics.OutcomeStopped
			break
		}
		if err := ctx.Err(); err != nil {
			res.Outcome, res.Err = metrics.OutcomeCanceled, err
			break
		}
		if err := executeStep(ctx, logger, proc); err != nil {
			res.Outcome, res.Err = metrics.OutcomeFailed, err
			break
		}
		res.Steps++

		snap = Snapshot{
			Trial:       trial,
			Step:        res.Steps,
			TimeClock:   proc.TimeClock(),
			MeanFitness: proc.MeanFitness(),
			Space:       sp,
		}
		if cfg.RecordTrajectory {
			res.Trajectory = append(res.Trajectory, model.StepPoint{
				Step: snap.Step, TimeClock: snap.TimeClock, MeanFitness: snap.MeanFitness,
			})
		}
		cfg.Metrics.ObserveStep(sp.Size(), snap.MeanFitness, snap.TimeClock)
		logger.Debug(fmt.Sprintf("TRIAL: %4d; STEP: %5d; FITNESS: %.4f", trial, res.Steps, snap.MeanFitness),
			"clock", snap.TimeClock)
		if err := notifyStep(cfg.Observers, snap); err != nil {
			res.Outcome, res.Err = metrics.OutcomeFailed, err
			break
		}
	}
	res.TimeClock = proc.TimeClock()
	res.MeanFitness = proc.MeanFitness()

	final := Snapshot{Trial: trial, Step: res.Steps, TimeClock: res.TimeClock, MeanFitness: res.MeanFitness, Space: sp}
	for _, obs := range cfg.Observers {
		if err := obs.FinalizeTrial(final); err != nil && res.Err == nil {
			res.Outcome, res.Err = metrics.OutcomeFailed, err
		}
	}

	if res.Err != nil {
		logger.Error("trial failed", "steps", res.Steps, "err", res.Err)
	} else {
		logger.Info("trial finished", "outcome", res.Outcome, "steps", res.Steps,
			"clock", res.TimeClock, "fitness", res.MeanFitness)
	}
	return res
}

// executeStep runs one step, cycle by cycle when trace logging is enabled.
func executeStep(ctx context.Context, logger *slog.Logger, proc *moran.Process) error {
	if !logger.Enabled(ctx, logging.LevelTrace) {
		return proc.ExecuteStep()
	}
	for i := 0; i < proc.Space().Size(); i++ {
		if err := proc.ExecuteCycle(); err != nil {
			return err
		}
		logger.Log(ctx, logging.LevelTrace, "cycle",
			"cycle", proc.Cycles(), "clock", proc.TimeClock(), "fitness", proc.MeanFitness())
	}
	return nil
}

func notifyStep(observers []Observer, snap Snapshot) error {
	for _, obs := range observers {
		if err := obs.ProcessStep(snap); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) saveTrial(ctx context.Context, res TrialResult) error {
	if d.cfg.Store == nil {
		return nil
	}
	rec := model.TrialRecord{
		VersionedRecord: storage.CurrentVersion(),
		RunID:           d.cfg.RunID,
		Trial:           res.Trial,
		Seed:            res.Seed,
		Steps:           res.Steps,
		TimeClock:       res.TimeClock,
		MeanFitness:     res.MeanFitness,
		Outcome:         res.Outcome,
		Trajectory:      res.Trajectory,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if err := d.cfg.Store.SaveTrial(context.WithoutCancel(ctx), rec); err != nil {
		return fmt.Errorf("save trial %d: %w", res.Trial, err)
	}
	return nil
}

func finiteOrZero(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
