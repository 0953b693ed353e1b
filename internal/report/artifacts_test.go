package report

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteRunArtifacts(t *testing.T) {
	base := t.TempDir()
	dir, err := WriteRunArtifacts(base, RunArtifacts{
		Config: RunConfig{RunID: "run-a", Model: "ab", Topology: "linear", PopulationSize: 10, Trials: 2, Seed: 7},
		Trials: []TrialSummary{{Trial: 0, Steps: 5, Outcome: "completed"}, {Trial: 1, Steps: 3, Outcome: "stopped"}},
	})
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if dir != filepath.Join(base, "run-a") {
		t.Fatalf("unexpected run dir %s", dir)
	}
	for _, name := range []string{"config.json", "trials.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	cfg, ok, err := ReadRunConfig(base, "run-a")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%t err=%v", ok, err)
	}
	if cfg.Model != "ab" || cfg.PopulationSize != 10 || cfg.Seed != 7 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	trials, ok, err := ReadTrialSummaries(base, "run-a")
	if err != nil || !ok {
		t.Fatalf("read trials: ok=%t err=%v", ok, err)
	}
	if len(trials) != 2 || trials[1].Outcome != "stopped" {
		t.Fatalf("unexpected trials: %+v", trials)
	}

	if _, ok, err := ReadRunConfig(base, "missing"); err != nil || ok {
		t.Fatalf("expected missing config, ok=%t err=%v", ok, err)
	}
	if _, err := WriteRunArtifacts(base, RunArtifacts{}); err == nil {
		t.Fatal("expected missing run id to fail")
	}
}

func TestRunIndexOrdering(t *testing.T) {
	base := t.TempDir()
	entries, err := ListRunIndex(base)
	if err != nil {
		t.Fatalf("list empty index: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty index, got %d", len(entries))
	}

	for _, e := range []RunIndexEntry{
		{RunID: "old", CreatedAtUTC: "2026-01-01T00:00:00Z"},
		{RunID: "new", CreatedAtUTC: "2026-02-01T00:00:00Z"},
		{RunID: "tie", CreatedAtUTC: "2026-02-01T00:00:00Z"},
	} {
		if err := AppendRunIndex(base, e); err != nil {
			t.Fatalf("append %s: %v", e.RunID, err)
		}
	}
	if err := AppendRunIndex(base, RunIndexEntry{RunID: "old", CreatedAtUTC: "2026-01-01T00:00:00Z", FinalMeanFitness: 1.2}); err != nil {
		t.Fatalf("replace old: %v", err)
	}

	entries, err = ListRunIndex(base)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].RunID != "tie" || entries[1].RunID != "new" || entries[2].RunID != "old" {
		t.Fatalf("unexpected order: %s %s %s", entries[0].RunID, entries[1].RunID, entries[2].RunID)
	}
	if entries[2].FinalMeanFitness != 1.2 {
		t.Fatalf("expected replaced entry, got %+v", entries[2])
	}
	if err := AppendRunIndex(base, RunIndexEntry{}); err == nil {
		t.Fatal("expected missing run id to fail")
	}
}
