package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarizes one invocation of the driver.
type RunRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	Model          string  `json:"model"`
	Topology       string  `json:"topology"`
	PopulationSize int     `json:"population_size"`
	Trials         int     `json:"trials"`
	MaxSteps       int     `json:"max_steps"`
	FitnessMin     float64 `json:"fitness_min"`
	FitnessMax     float64 `json:"fitness_max"`
	Seed           int64   `json:"seed"`
	Status         string  `json:"status"`
}

// TrialRecord is the outcome and trajectory of a single trial.
type TrialRecord struct {
	VersionedRecord
	RunID       string      `json:"run_id"`
	Trial       int         `json:"trial"`
	Seed        int64       `json:"seed"`
	Steps       int         `json:"steps"`
	TimeClock   float64     `json:"time_clock"`
	MeanFitness float64     `json:"mean_fitness"`
	Outcome     string      `json:"outcome"`
	Error       string      `json:"error,omitempty"`
	Trajectory  []StepPoint `json:"trajectory,omitempty"`
}

type StepPoint struct {
	Step        int     `json:"step"`
	TimeClock   float64 `json:"time_clock"`
	MeanFitness float64 `json:"mean_fitness"`
}
