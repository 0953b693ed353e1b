package driver

import "moransim/internal/moran"

// Snapshot is the read-only state handed to observers. Space is only valid
// for the duration of the callback; the next step mutates it.
type Snapshot struct {
	Trial       int
	Step        int
	TimeClock   float64
	MeanFitness float64
	Space       moran.Space
}

// Observer receives run and trial lifecycle events. Trials may run
// concurrently, so implementations must be safe for concurrent use.
type Observer interface {
	InitRun(runID string) error
	InitTrial(snap Snapshot) error
	ProcessStep(snap Snapshot) error
	FinalizeTrial(snap Snapshot) error
	FinalizeRun() error
}

// IsSampleStep reports whether step falls on a positive multiple of interval.
func IsSampleStep(step, interval int) bool {
	return interval > 0 && step > 0 && step%interval == 0
}
