// Package report writes per-run CSV reports and JSON run artifacts.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const runIndexFile = "run_index.json"

type RunConfig struct {
	RunID          string  `json:"run_id"`
	Model          string  `json:"model"`
	Topology       string  `json:"topology"`
	PopulationSize int     `json:"population_size"`
	Trials         int     `json:"trials"`
	MaxSteps       int     `json:"max_steps"`
	FitnessMin     float64 `json:"fitness_min"`
	FitnessMax     float64 `json:"fitness_max,omitempty"`
	Seed           int64   `json:"seed"`
	Workers        int     `json:"workers"`
	Settings       any     `json:"settings,omitempty"`
}

type TrialSummary struct {
	Trial       int     `json:"trial"`
	Seed        int64   `json:"seed"`
	Steps       int     `json:"steps"`
	TimeClock   float64 `json:"time_clock"`
	MeanFitness float64 `json:"mean_fitness"`
	Outcome     string  `json:"outcome"`
	Error       string  `json:"error,omitempty"`
}

type RunArtifacts struct {
	Config RunConfig      `json:"config"`
	Trials []TrialSummary `json:"trials"`
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Model            string  `json:"model"`
	Topology         string  `json:"topology"`
	PopulationSize   int     `json:"population_size"`
	Trials           int     `json:"trials"`
	Seed             int64   `json:"seed"`
	FinalMeanFitness float64 `json:"final_mean_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
	ArtifactsDir     string  `json:"artifacts_dir,omitempty"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	dir, err := runDir(baseDir, artifacts.Config.RunID)
	if err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "trials.json"), artifacts.Trials); err != nil {
		return "", err
	}
	return dir, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}
	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadTrialSummaries(baseDir, runID string) ([]TrialSummary, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, "trials.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var trials []TrialSummary
	if err := json.Unmarshal(data, &trials); err != nil {
		return nil, false, err
	}
	return trials, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}
	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	order := make(map[string]int, len(entries))
	for i, e := range entries {
		order[e.RunID] = i
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAtUTC == entries[j].CreatedAtUTC {
			return order[entries[i].RunID] > order[entries[j].RunID]
		}
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
