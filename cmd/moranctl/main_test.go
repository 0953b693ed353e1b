package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moransim/pkg/moransim"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "moran.yaml")
	content := `
population:
  topology: lattice
  lattice: "HEXAGONAL; 4, 4"
model:
  kind: ab
  ab:
    fitness_ratio: 1.2
    mutation_rate: 0.05
run:
  trials: 2
  max_steps: 3
  workers: 2
reports:
  mean_fitness: true
  genotype_coord: true
  genotype_coord_interval: 1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewRootCmdCommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"version": false, "run": false, "runs": false, "trials": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Fatalf("expected version in output, got %q", out)
	}

	out, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version json: %v", err)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if payload["version"] != version {
		t.Fatalf("unexpected version payload %v", payload)
	}
}

func TestRunRunsAndTrialsCmds(t *testing.T) {
	dir := t.TempDir()
	reportsDir := filepath.Join(dir, "reports")
	cfgPath := writeConfig(t, dir)

	out, err := execute(t, "run", "--config", cfgPath, "--reports-dir", reportsDir, "--run-id", "cli-run", "--seed", "9", "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary moransim.RunSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode run summary: %v\n%s", err, out)
	}
	if summary.RunID != "cli-run" || len(summary.Trials) != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	for _, name := range []string{"config.json", "mean-fitness.csv", "genotype-coord.csv"} {
		if _, err := os.Stat(filepath.Join(reportsDir, "cli-run", name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	out, err = execute(t, "runs", "--reports-dir", reportsDir, "--store", "memory")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "cli-run") || !strings.Contains(out, "lattice") {
		t.Fatalf("expected run listing, got %q", out)
	}

	out, err = execute(t, "trials", "--latest", "--reports-dir", reportsDir, "--store", "memory")
	if err != nil {
		t.Fatalf("trials: %v", err)
	}
	if !strings.Contains(out, "TRIAL") || strings.Count(out, "completed") != 2 {
		t.Fatalf("expected two completed trials, got %q", out)
	}
}

func TestRunCmdRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("run:\n  trials: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := execute(t, "run", "--config", path, "--reports-dir", filepath.Join(dir, "reports")); err == nil {
		t.Fatal("expected invalid config to fail")
	}
}

func TestTrialsCmdRequiresRun(t *testing.T) {
	if _, err := execute(t, "trials", "--reports-dir", t.TempDir(), "--store", "memory"); err == nil {
		t.Fatal("expected trials without run id to fail")
	}
}
