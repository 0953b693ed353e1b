// Package config loads simulation settings from YAML files and MORAN_*
// environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"moransim/internal/cell"
	"moransim/internal/lattice"
	"moransim/internal/segment"
	"moransim/internal/simerr"
)

const EnvPrefix = "MORAN_"

const (
	ModelAB      = "ab"
	ModelScalar  = "scalar"
	ModelSegment = "segment"

	TopologyPoint   = "point"
	TopologyLinear  = "linear"
	TopologyLattice = "lattice"
)

type Config struct {
	Population PopulationConfig `json:"population" yaml:"population" envPrefix:"POPULATION_"`
	Model      ModelConfig      `json:"model" yaml:"model" envPrefix:"MODEL_"`
	Run        RunConfig        `json:"run" yaml:"run" envPrefix:"RUN_"`
	Reports    ReportsConfig    `json:"reports" yaml:"reports" envPrefix:"REPORTS_"`
	Store      StoreConfig      `json:"store" yaml:"store" envPrefix:"STORE_"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging" envPrefix:"LOGGING_"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics" envPrefix:"METRICS_"`
}

type PopulationConfig struct {
	// Size is ignored for lattices, whose size follows from the dimensions.
	Size     int    `json:"size" yaml:"size" env:"SIZE"`
	Topology string `json:"topology" yaml:"topology" env:"TOPOLOGY"`
	Periodic bool   `json:"periodic" yaml:"periodic" env:"PERIODIC"`
	// Lattice is a geometry such as "HEXAGONAL; 100, 100".
	Lattice string `json:"lattice,omitempty" yaml:"lattice,omitempty" env:"LATTICE"`
	// Founder is the founder cell type for ab models.
	Founder string `json:"founder,omitempty" yaml:"founder,omitempty" env:"FOUNDER"`
}

type ModelConfig struct {
	Kind    string             `json:"kind" yaml:"kind" env:"KIND"`
	AB      ABModelConfig      `json:"ab" yaml:"ab" envPrefix:"AB_"`
	Scalar  ScalarModelConfig  `json:"scalar" yaml:"scalar" envPrefix:"SCALAR_"`
	Segment SegmentModelConfig `json:"segment" yaml:"segment" envPrefix:"SEGMENT_"`
}

type ABModelConfig struct {
	FitnessRatio float64 `json:"fitness_ratio" yaml:"fitness_ratio" env:"FITNESS_RATIO"`
	MutationRate float64 `json:"mutation_rate" yaml:"mutation_rate" env:"MUTATION_RATE"`
}

type ScalarModelConfig struct {
	Fitness float64 `json:"fitness" yaml:"fitness" env:"FITNESS"`
}

// SegmentModelConfig describes a copy-number model. Segments come from
// DefinitionFile or, when it is empty, from the inline Segments list. Rates
// come from RateFile or the uniform GainRate and LossRate. Fitness comes
// from FitnessMatrixFile or the uniform GainSelection and LossSelection
// chained with FitnessChainOperation.
type SegmentModelConfig struct {
	DefinitionFile        string   `json:"definition_file,omitempty" yaml:"definition_file,omitempty" env:"DEFINITION_FILE"`
	Segments              []string `json:"segments,omitempty" yaml:"segments,omitempty" env:"SEGMENTS" envSeparator:","`
	MaxCopyNumber         int      `json:"max_copy_number" yaml:"max_copy_number" env:"MAX_COPY_NUMBER"`
	WGDRate               float64  `json:"wgd_rate" yaml:"wgd_rate" env:"WGD_RATE"`
	GainRate              float64  `json:"gain_rate" yaml:"gain_rate" env:"GAIN_RATE"`
	LossRate              float64  `json:"loss_rate" yaml:"loss_rate" env:"LOSS_RATE"`
	RateFile              string   `json:"rate_file,omitempty" yaml:"rate_file,omitempty" env:"RATE_FILE"`
	FitnessMatrixFile     string   `json:"fitness_matrix_file,omitempty" yaml:"fitness_matrix_file,omitempty" env:"FITNESS_MATRIX_FILE"`
	FitnessChainOperation string   `json:"fitness_chain_operation" yaml:"fitness_chain_operation" env:"FITNESS_CHAIN_OPERATION"`
	GainSelection         float64  `json:"gain_selection" yaml:"gain_selection" env:"GAIN_SELECTION"`
	LossSelection         float64  `json:"loss_selection" yaml:"loss_selection" env:"LOSS_SELECTION"`
}

type RunConfig struct {
	RunID    string `json:"run_id,omitempty" yaml:"run_id,omitempty" env:"RUN_ID"`
	Trials   int    `json:"trials" yaml:"trials" env:"TRIALS"`
	MaxSteps int    `json:"max_steps" yaml:"max_steps" env:"MAX_STEPS"`
	// FitnessRange is [min] or [min, max]; trials stop once the mean
	// fitness leaves it. Empty means the positive reals.
	FitnessRange     []float64 `json:"fitness_range,omitempty" yaml:"fitness_range,omitempty" env:"FITNESS_RANGE" envSeparator:","`
	Seed             int64     `json:"seed" yaml:"seed" env:"SEED"`
	Workers          int       `json:"workers" yaml:"workers" env:"WORKERS"`
	ContinueOnError  bool      `json:"continue_on_error" yaml:"continue_on_error" env:"CONTINUE_ON_ERROR"`
	RecordTrajectory bool      `json:"record_trajectory" yaml:"record_trajectory" env:"RECORD_TRAJECTORY"`
}

type ReportsConfig struct {
	OutputDir             string `json:"output_dir,omitempty" yaml:"output_dir,omitempty" env:"OUTPUT_DIR"`
	MeanFitness           bool   `json:"mean_fitness" yaml:"mean_fitness" env:"MEAN_FITNESS"`
	MeanCopyNumber        bool   `json:"mean_copy_number" yaml:"mean_copy_number" env:"MEAN_COPY_NUMBER"`
	GenotypeCoord         bool   `json:"genotype_coord" yaml:"genotype_coord" env:"GENOTYPE_COORD"`
	GenotypeCoordInterval int    `json:"genotype_coord_interval" yaml:"genotype_coord_interval" env:"GENOTYPE_COORD_INTERVAL"`
	// SampleInterval thins the mean reports; values below 2 record every step.
	SampleInterval int `json:"sample_interval" yaml:"sample_interval" env:"SAMPLE_INTERVAL"`
}

type StoreConfig struct {
	Kind   string `json:"kind" yaml:"kind" env:"KIND"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty" env:"DB_PATH"`
}

type LoggingConfig struct {
	// Level is "info" (default), "debug" for one line per step, or "trace".
	Level string `json:"level" yaml:"level" env:"LEVEL"`
}

type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" env:"ADDR"`
}

func Default() *Config {
	return &Config{
		Population: PopulationConfig{
			Size:     100,
			Topology: TopologyPoint,
			Founder:  cell.TypeA.String(),
		},
		Model: ModelConfig{
			Kind: ModelAB,
			AB:   ABModelConfig{FitnessRatio: 1.1, MutationRate: 0.01},
			Scalar: ScalarModelConfig{
				Fitness: 1,
			},
			Segment: SegmentModelConfig{
				MaxCopyNumber:         8,
				FitnessChainOperation: segment.ChainMultiply.String(),
			},
		},
		Run: RunConfig{
			Trials:   1,
			MaxSteps: 100,
			Seed:     1,
			Workers:  1,
		},
		Reports: ReportsConfig{
			GenotypeCoordInterval: 10,
		},
		Store:   StoreConfig{Kind: "memory"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load applies defaults, then the YAML file at path when path is not
// empty, then MORAN_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Decode(bytes.NewReader(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays YAML onto cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Population.Topology {
	case TopologyPoint, TopologyLinear:
		if c.Population.Size <= 0 {
			return simerr.Validationf("population.size must be > 0, got %d", c.Population.Size)
		}
	case TopologyLattice:
		if _, err := lattice.Parse(c.Population.Lattice); err != nil {
			return fmt.Errorf("population.lattice: %w", err)
		}
	default:
		return simerr.Validationf("unknown population.topology %q (valid: point, linear, lattice)", c.Population.Topology)
	}

	switch c.Model.Kind {
	case ModelAB:
		if _, err := cell.ParseABType(c.Population.Founder); err != nil {
			return fmt.Errorf("population.founder: %w", err)
		}
		if _, err := cell.NewABConfig(c.Model.AB.FitnessRatio, c.Model.AB.MutationRate); err != nil {
			return fmt.Errorf("model.ab: %w", err)
		}
	case ModelScalar:
		if _, err := cell.NewScalar(c.Model.Scalar.Fitness); err != nil {
			return fmt.Errorf("model.scalar: %w", err)
		}
	case ModelSegment:
		if err := c.Model.Segment.validate(); err != nil {
			return err
		}
	default:
		return simerr.Validationf("unknown model.kind %q (valid: ab, scalar, segment)", c.Model.Kind)
	}

	if c.Run.Trials <= 0 {
		return simerr.Validationf("run.trials must be > 0, got %d", c.Run.Trials)
	}
	if c.Run.MaxSteps <= 0 {
		return simerr.Validationf("run.max_steps must be > 0, got %d", c.Run.MaxSteps)
	}
	if c.Run.Workers < 0 {
		return simerr.Validationf("run.workers must be >= 0, got %d", c.Run.Workers)
	}
	if n := len(c.Run.FitnessRange); n > 2 {
		return simerr.Validationf("run.fitness_range takes at most two values, got %d", n)
	}
	for _, v := range c.Run.FitnessRange {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return simerr.Validationf("run.fitness_range values must be finite, got %v", v)
		}
	}
	if len(c.Run.FitnessRange) == 2 && c.Run.FitnessRange[0] > c.Run.FitnessRange[1] {
		return simerr.Validationf("run.fitness_range [%v, %v] is empty", c.Run.FitnessRange[0], c.Run.FitnessRange[1])
	}

	r := c.Reports
	if (r.MeanFitness || r.MeanCopyNumber || r.GenotypeCoord) && r.OutputDir == "" {
		return simerr.Validationf("reports.output_dir is required when a report is enabled")
	}
	if r.MeanCopyNumber && c.Model.Kind != ModelSegment {
		return simerr.Validationf("reports.mean_copy_number requires model.kind %q", ModelSegment)
	}
	if r.GenotypeCoord && r.GenotypeCoordInterval <= 0 {
		return simerr.Validationf("reports.genotype_coord_interval must be > 0, got %d", r.GenotypeCoordInterval)
	}
	if r.SampleInterval < 0 {
		return simerr.Validationf("reports.sample_interval must be >= 0, got %d", r.SampleInterval)
	}

	switch c.Store.Kind {
	case "", "memory":
	case "sqlite":
		if c.Store.DBPath == "" {
			return simerr.Validationf("store.db_path is required for the sqlite store")
		}
	default:
		return simerr.Validationf("unknown store.kind %q (valid: memory, sqlite)", c.Store.Kind)
	}

	switch c.Logging.Level {
	case "", "info", "debug", "trace", "warn", "error":
	default:
		return simerr.Validationf("invalid logging.level %q (valid: info, debug, trace, warn, error)", c.Logging.Level)
	}
	return nil
}

func (s SegmentModelConfig) validate() error {
	if s.DefinitionFile == "" && len(s.Segments) == 0 {
		return simerr.Validationf("model.segment needs definition_file or segments")
	}
	if s.MaxCopyNumber < segment.WildTypeCopyNumber {
		return simerr.Validationf("model.segment.max_copy_number must be >= %d, got %d", segment.WildTypeCopyNumber, s.MaxCopyNumber)
	}
	if s.WGDRate < 0 || s.WGDRate >= 1 {
		return simerr.Validationf("model.segment.wgd_rate must be in [0, 1), got %v", s.WGDRate)
	}
	if s.RateFile == "" {
		if s.GainRate < 0 || s.GainRate > 1 || s.LossRate < 0 || s.LossRate > 1 {
			return simerr.Validationf("model.segment gain_rate and loss_rate must be in [0, 1]")
		}
	}
	if _, err := segment.ParseChainOperation(s.FitnessChainOperation); err != nil {
		return fmt.Errorf("model.segment.fitness_chain_operation: %w", err)
	}
	return nil
}
