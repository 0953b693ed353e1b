package report

import (
	"path/filepath"

	"moransim/internal/driver"
)

const MeanFitnessFile = "mean-fitness.csv"

// MeanFitnessReport records the population mean fitness at the start of
// each trial and after every sampled step.
type MeanFitnessReport struct {
	baseDir  string
	interval int
	dir      string
	cache    *stepCache
}

// NewMeanFitnessReport samples every step when interval is below 2.
func NewMeanFitnessReport(baseDir string, interval int) *MeanFitnessReport {
	return &MeanFitnessReport{baseDir: baseDir, interval: interval, cache: newStepCache()}
}

func (r *MeanFitnessReport) InitRun(runID string) error {
	dir, err := runDir(r.baseDir, runID)
	if err != nil {
		return err
	}
	r.dir = dir
	r.cache.reset()
	return nil
}

func (r *MeanFitnessReport) InitTrial(snap driver.Snapshot) error {
	if err := r.cache.beginTrial(snap.Trial); err != nil {
		return err
	}
	r.record(snap)
	return nil
}

func (r *MeanFitnessReport) ProcessStep(snap driver.Snapshot) error {
	if sampled(snap.Step, r.interval) {
		r.record(snap)
	}
	return nil
}

func (r *MeanFitnessReport) FinalizeTrial(driver.Snapshot) error {
	return nil
}

func (r *MeanFitnessReport) FinalizeRun() error {
	header := append(append([]string{}, prefixHeader...), "meanFitness")
	return r.cache.write(filepath.Join(r.dir, MeanFitnessFile), header)
}

func (r *MeanFitnessReport) record(snap driver.Snapshot) {
	fields := append(prefix(snap.Trial, snap.Step, snap.TimeClock), formatFloat(snap.MeanFitness))
	r.cache.add(snap.Trial, snap.Step, fields)
}

func sampled(step, interval int) bool {
	if interval < 2 {
		return true
	}
	return driver.IsSampleStep(step, interval)
}
