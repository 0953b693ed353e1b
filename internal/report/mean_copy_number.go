package report

import (
	"fmt"
	"path/filepath"

	"moransim/internal/driver"
	"moransim/internal/moran"
	"moransim/internal/segment"
)

const MeanCopyNumberFile = "mean-copy-number.csv"

// MeanCopyNumberReport records the population mean copy number of every
// registered segment. All cells must carry segment genotypes.
type MeanCopyNumberReport struct {
	baseDir  string
	interval int
	registry *segment.Registry
	dir      string
	cache    *stepCache
}

func NewMeanCopyNumberReport(baseDir string, interval int, registry *segment.Registry) (*MeanCopyNumberReport, error) {
	if registry == nil || registry.Count() == 0 {
		return nil, fmt.Errorf("segment registry is required")
	}
	return &MeanCopyNumberReport{
		baseDir:  baseDir,
		interval: interval,
		registry: registry,
		cache:    newStepCache(),
	}, nil
}

func (r *MeanCopyNumberReport) InitRun(runID string) error {
	dir, err := runDir(r.baseDir, runID)
	if err != nil {
		return err
	}
	r.dir = dir
	r.cache.reset()
	return nil
}

func (r *MeanCopyNumberReport) InitTrial(snap driver.Snapshot) error {
	if err := r.cache.beginTrial(snap.Trial); err != nil {
		return err
	}
	return r.record(snap)
}

func (r *MeanCopyNumberReport) ProcessStep(snap driver.Snapshot) error {
	if !sampled(snap.Step, r.interval) {
		return nil
	}
	return r.record(snap)
}

func (r *MeanCopyNumberReport) FinalizeTrial(driver.Snapshot) error {
	return nil
}

func (r *MeanCopyNumberReport) FinalizeRun() error {
	header := append(append([]string{}, prefixHeader...), r.registry.Keys()...)
	return r.cache.write(filepath.Join(r.dir, MeanCopyNumberFile), header)
}

func (r *MeanCopyNumberReport) record(snap driver.Snapshot) error {
	means, err := MeanCopyNumbers(snap.Space, r.registry)
	if err != nil {
		return fmt.Errorf("trial %d step %d: %w", snap.Trial, snap.Step, err)
	}
	fields := prefix(snap.Trial, snap.Step, snap.TimeClock)
	for _, m := range means {
		fields = append(fields, formatFloat(m))
	}
	r.cache.add(snap.Trial, snap.Step, fields)
	return nil
}

// MeanCopyNumbers averages each segment's copy number over the population,
// in registry order.
func MeanCopyNumbers(sp moran.Space, registry *segment.Registry) ([]float64, error) {
	cells := sp.List()
	if len(cells) == 0 {
		return nil, fmt.Errorf("population is empty")
	}
	segs := registry.List()
	sums := make([]float64, len(segs))
	for _, c := range cells {
		g, ok := c.Genotype().(segment.Genotype)
		if !ok {
			return nil, fmt.Errorf("%v does not carry a segment genotype", c)
		}
		for i, seg := range segs {
			sums[i] += float64(g.Count(seg))
		}
	}
	for i := range sums {
		sums[i] /= float64(len(cells))
	}
	return sums, nil
}
