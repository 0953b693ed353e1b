package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"moransim/internal/driver"
)

const GenotypeCoordFile = "genotype-coord.csv"

// GenotypeCoordReport writes the coordinate and genotype of every cell at
// each sample step. Rows are streamed, so trials running concurrently
// produce interleaved blocks of rows; each block is contiguous.
type GenotypeCoordReport struct {
	baseDir  string
	interval int

	mu     sync.Mutex
	dir    string
	file   *os.File
	writer *csv.Writer
}

func NewGenotypeCoordReport(baseDir string, interval int) (*GenotypeCoordReport, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("genotype-coord sample interval must be > 0")
	}
	return &GenotypeCoordReport{baseDir: baseDir, interval: interval}, nil
}

func (r *GenotypeCoordReport) InitRun(runID string) error {
	dir, err := runDir(r.baseDir, runID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dir = dir
	return nil
}

func (r *GenotypeCoordReport) InitTrial(driver.Snapshot) error {
	return nil
}

func (r *GenotypeCoordReport) ProcessStep(snap driver.Snapshot) error {
	if !driver.IsSampleStep(snap.Step, r.interval) {
		return nil
	}
	cells := snap.Space.List()
	if len(cells) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(cells))
	var header []string
	for _, c := range cells {
		loc, ok := snap.Space.Locate(c)
		if !ok {
			return fmt.Errorf("%v has no location", c)
		}
		if header == nil {
			header = append(append(append([]string{}, prefixHeader...), split(loc.Header())...), split(c.Genotype().Header())...)
		}
		fields := prefix(snap.Trial, snap.Step, snap.TimeClock)
		fields = append(fields, split(loc.Format())...)
		fields = append(fields, split(c.Genotype().Format())...)
		rows = append(rows, fields)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writer == nil {
		if err := r.open(header); err != nil {
			return err
		}
	}
	if err := r.writer.WriteAll(rows); err != nil {
		return err
	}
	return nil
}

func (r *GenotypeCoordReport) FinalizeTrial(driver.Snapshot) error {
	return nil
}

func (r *GenotypeCoordReport) FinalizeRun() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	r.writer.Flush()
	err := r.writer.Error()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	r.file, r.writer = nil, nil
	return err
}

func (r *GenotypeCoordReport) open(header []string) error {
	if r.dir == "" {
		return fmt.Errorf("report is not initialized")
	}
	file, err := os.Create(filepath.Join(r.dir, GenotypeCoordFile))
	if err != nil {
		return err
	}
	r.file = file
	r.writer = csv.NewWriter(file)
	return r.writer.Write(header)
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
