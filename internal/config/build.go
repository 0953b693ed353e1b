package config

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"moransim/internal/cell"
	"moransim/internal/coord"
	"moransim/internal/driver"
	"moransim/internal/lattice"
	"moransim/internal/metrics"
	"moransim/internal/moran"
	"moransim/internal/report"
	"moransim/internal/segio"
	"moransim/internal/segment"
	"moransim/internal/space"
	"moransim/internal/storage"
)

// Deps are the process-wide services a run is wired to.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Store   storage.Store
}

// Plan is a validated configuration resolved into runnable parts.
type Plan struct {
	Driver         driver.Config
	PopulationSize int
	// Registry is set for segment models.
	Registry *segment.Registry

	settings *Config
}

// Build validates c and resolves its model, topology and reports.
func (c *Config) Build(deps Deps) (*Plan, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	plan := &Plan{settings: c}
	founder, err := c.founder(plan)
	if err != nil {
		return nil, err
	}
	newTrial, size, err := c.trialFactory(founder)
	if err != nil {
		return nil, err
	}
	plan.PopulationSize = size

	observers, err := c.observers(plan.Registry)
	if err != nil {
		return nil, err
	}

	plan.Driver = driver.Config{
		RunID:            c.Run.RunID,
		Model:            c.Model.Kind,
		Topology:         c.Population.Topology,
		Trials:           c.Run.Trials,
		MaxSteps:         c.Run.MaxSteps,
		FitnessRange:     c.fitnessRange(),
		Seed:             c.Run.Seed,
		Workers:          c.Run.Workers,
		ContinueOnError:  c.Run.ContinueOnError,
		RecordTrajectory: c.Run.RecordTrajectory,
		NewTrial:         newTrial,
		Observers:        observers,
		Logger:           deps.Logger,
		Metrics:          deps.Metrics,
		Store:            deps.Store,
	}
	return plan, nil
}

// RunConfig describes the plan for the config.json run artifact.
func (p *Plan) RunConfig(runID string) report.RunConfig {
	fitness := *p.Driver.FitnessRange
	fitnessMax := fitness.Max
	if math.IsInf(fitnessMax, 0) {
		fitnessMax = 0
	}
	return report.RunConfig{
		RunID:          runID,
		Model:          p.Driver.Model,
		Topology:       p.Driver.Topology,
		PopulationSize: p.PopulationSize,
		Trials:         p.Driver.Trials,
		MaxSteps:       p.Driver.MaxSteps,
		FitnessMin:     fitness.Min,
		FitnessMax:     fitnessMax,
		Seed:           p.Driver.Seed,
		Workers:        p.Driver.Workers,
		Settings:       p.settings,
	}
}

func (c *Config) fitnessRange() *driver.FitnessRange {
	r := driver.PositiveFitness()
	if len(c.Run.FitnessRange) > 0 {
		r.Min = c.Run.FitnessRange[0]
	}
	if len(c.Run.FitnessRange) > 1 {
		r.Max = c.Run.FitnessRange[1]
	}
	return &r
}

func (c *Config) founder(plan *Plan) (cell.Genotype, error) {
	switch c.Model.Kind {
	case ModelAB:
		t, err := cell.ParseABType(c.Population.Founder)
		if err != nil {
			return nil, err
		}
		ab, err := cell.NewABConfig(c.Model.AB.FitnessRatio, c.Model.AB.MutationRate)
		if err != nil {
			return nil, err
		}
		return ab.Genotype(t), nil
	case ModelScalar:
		return cell.NewScalar(c.Model.Scalar.Fitness)
	case ModelSegment:
		m, err := c.Model.Segment.BuildModel()
		if err != nil {
			return nil, err
		}
		plan.Registry = m.Registry()
		return m.WildType(), nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", c.Model.Kind)
	}
}

// trialFactory returns a factory that builds a fresh founder population for
// each trial, along with the population size.
func (c *Config) trialFactory(founder cell.Genotype) (driver.TrialFactory, int, error) {
	switch c.Population.Topology {
	case TopologyPoint, TopologyLinear:
		size, periodic, linear := c.Population.Size, c.Population.Periodic, c.Population.Topology == TopologyLinear
		return func(*rand.Rand) (moran.Space, *cell.Source, error) {
			src := cell.NewSource()
			cells, err := src.Founders(size, founder)
			if err != nil {
				return nil, nil, err
			}
			var sp *space.Space
			if linear {
				sp, err = space.NewLinear(cells, periodic)
			} else {
				sp, err = space.NewPoint(cells)
			}
			if err != nil {
				return nil, nil, err
			}
			return sp, src, nil
		}, size, nil
	case TopologyLattice:
		l, err := lattice.Parse(c.Population.Lattice)
		if err != nil {
			return nil, 0, err
		}
		return func(*rand.Rand) (moran.Space, *cell.Source, error) {
			src := cell.NewSource()
			sp, err := space.FillLattice(l, func(coord.Coord) (*cell.Cell, error) {
				return src.Founder(founder)
			})
			if err != nil {
				return nil, nil, err
			}
			return sp, src, nil
		}, l.Size(), nil
	default:
		return nil, 0, fmt.Errorf("unknown topology %q", c.Population.Topology)
	}
}

func (c *Config) observers(registry *segment.Registry) ([]driver.Observer, error) {
	r := c.Reports
	var out []driver.Observer
	if r.MeanFitness {
		out = append(out, report.NewMeanFitnessReport(r.OutputDir, r.SampleInterval))
	}
	if r.MeanCopyNumber {
		rep, err := report.NewMeanCopyNumberReport(r.OutputDir, r.SampleInterval, registry)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	if r.GenotypeCoord {
		rep, err := report.NewGenotypeCoordReport(r.OutputDir, r.GenotypeCoordInterval)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

// BuildModel assembles the segment registry, rate model and fitness matrix.
func (s SegmentModelConfig) BuildModel() (*segment.Model, error) {
	registry, err := s.registry()
	if err != nil {
		return nil, err
	}

	var gain, loss *segment.RateMatrix
	if s.RateFile != "" {
		rates, err := segio.LoadRates(s.RateFile, registry, s.MaxCopyNumber)
		if err != nil {
			return nil, err
		}
		gain, loss = rates.Gain, rates.Loss
	} else {
		if gain, err = segment.NewUniformRateMatrix(segment.Gain, registry, s.MaxCopyNumber, s.GainRate); err != nil {
			return nil, err
		}
		if loss, err = segment.NewUniformRateMatrix(segment.Loss, registry, s.MaxCopyNumber, s.LossRate); err != nil {
			return nil, err
		}
	}
	rates, err := segment.NewRateModel(gain, loss, s.WGDRate)
	if err != nil {
		return nil, err
	}

	op, err := segment.ParseChainOperation(s.FitnessChainOperation)
	if err != nil {
		return nil, err
	}
	var fitness *segment.FitnessMatrix
	if s.FitnessMatrixFile != "" {
		fitness, err = segio.LoadFitnessMatrix(s.FitnessMatrixFile, registry, s.MaxCopyNumber, op)
	} else {
		links := make([]segment.ChainLink, 0, 2*registry.Count())
		for _, seg := range registry.List() {
			links = append(links,
				segment.ChainLink{Segment: seg, Event: segment.Gain, Selection: s.GainSelection},
				segment.ChainLink{Segment: seg, Event: segment.Loss, Selection: s.LossSelection},
			)
		}
		fitness, err = segment.NewChainedFitnessMatrix(registry, s.MaxCopyNumber, op, links)
	}
	if err != nil {
		return nil, err
	}
	return segment.NewModel(rates, fitness)
}

func (s SegmentModelConfig) registry() (*segment.Registry, error) {
	if s.DefinitionFile != "" {
		return segio.LoadRegistry(s.DefinitionFile)
	}
	defs := make([]segment.Definition, len(s.Segments))
	for i, key := range s.Segments {
		defs[i] = segment.Definition{Key: key}
	}
	return segment.NewRegistry(defs)
}
