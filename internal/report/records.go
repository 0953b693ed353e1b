package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
)

// stepCache collects one row per (trial, step) from concurrent trials and
// writes them sorted once the run ends.
type stepCache struct {
	mu   sync.Mutex
	rows map[int][]row
}

type row struct {
	step   int
	fields []string
}

func newStepCache() *stepCache {
	return &stepCache{rows: make(map[int][]row)}
}

func (c *stepCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = make(map[int][]row)
}

func (c *stepCache) beginTrial(trial int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rows[trial]) != 0 {
		return fmt.Errorf("trial %d already has cached records", trial)
	}
	return nil
}

func (c *stepCache) add(trial, step int, fields []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[trial] = append(c.rows[trial], row{step: step, fields: fields})
}

func (c *stepCache) write(path string, header []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	return c.writeTo(file, header)
}

// writeTo writes the sorted rows and closes out. A close failure is reported
// when the rows themselves were written cleanly.
func (c *stepCache) writeTo(out io.WriteCloser, header []string) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	trials := make([]int, 0, len(c.rows))
	for trial := range c.rows {
		trials = append(trials, trial)
	}
	sort.Ints(trials)
	for _, trial := range trials {
		rows := c.rows[trial]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].step < rows[j].step })
		for _, r := range rows {
			if err := w.Write(r.fields); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatClock(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func prefix(trial, step int, clock float64) []string {
	return []string{strconv.Itoa(trial), strconv.Itoa(step), formatClock(clock)}
}

var prefixHeader = []string{"trialIndex", "stepIndex", "timeClock"}

func runDir(baseDir, runID string) (string, error) {
	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
