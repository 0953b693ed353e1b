package segio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moransim/internal/segment"
	"moransim/internal/simerr"
)

const definitions = `# key, description
6p, chromosome 6 short arm
9q
12p, chromosome 12 short arm
`

func testRegistry(t *testing.T) *segment.Registry {
	t.Helper()
	defs, err := ReadDefinitions(strings.NewReader(definitions))
	if err != nil {
		t.Fatalf("read definitions: %v", err)
	}
	r, err := segment.NewRegistry(defs)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func TestReadDefinitions(t *testing.T) {
	r := testRegistry(t)
	if r.Count() != 3 {
		t.Fatalf("expected 3 segments, got %d", r.Count())
	}
	if got := r.At(1); got.Key != "9q" || got.Description != "9q" {
		t.Fatalf("unexpected segment %+v", got)
	}
	if _, err := ReadDefinitions(strings.NewReader("a, b, c\n")); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReadRatesMixedFormats(t *testing.T) {
	r := testRegistry(t)
	input := `
# segment-wide rates
6p, gain, 0.011
6p, loss, 0.11
9q, GAIN, 0.02
9q, LOSS, 0.03
12p, gain, 0.001
12p, loss, 0.002
# copy-number override
9q, 3, gain, 0.05
`
	mats, err := ReadRates(strings.NewReader(input), r, 8)
	if err != nil {
		t.Fatalf("read rates: %v", err)
	}
	seg9q, _ := r.Require("9q")
	if got := mats.Gain.Rate(seg9q, 3); got != 0.05 {
		t.Fatalf("override rate %v", got)
	}
	if got := mats.Gain.Rate(seg9q, 4); got != 0.02 {
		t.Fatalf("segment rate %v", got)
	}
	if got := mats.Gain.Rate(seg9q, 8); got != 0 {
		t.Fatalf("absorbing gain rate %v", got)
	}
	if _, err := segment.NewRateModel(mats.Gain, mats.Loss, 0.0123); err != nil {
		t.Fatalf("rate model: %v", err)
	}
}

func TestReadRatesErrors(t *testing.T) {
	r := testRegistry(t)
	cases := map[string]string{
		"unknown segment": "22q, gain, 0.1\n",
		"bad kind":        "6p, both, 0.1\n",
		"bad rate":        "6p, gain, fast\n",
		"absorbing":       "6p, 0, loss, 0.1\n",
		"field count":     "6p, 0.1\n",
	}
	for name, input := range cases {
		if _, err := ReadRates(strings.NewReader(input), r, 8); !errors.Is(err, simerr.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
	mats, err := ReadRates(strings.NewReader("6p, gain, 0.1\n"), r, 8)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := segment.NewRateModel(mats.Gain, mats.Loss, 0); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected incomplete matrices to fail, got %v", err)
	}
}

func TestReadExplicitFitnessMatrix(t *testing.T) {
	r := testRegistry(t)
	input := `Segment, 0, 1, 2, 3, 4
6p, 0.5, 0.8, 1.0, 1.1, 1.2
9q, 0.4, 0.7, 1.0, 1.3, 1.6
12p, 0.0, 0.9, 1.0, 1.0, 1.0
`
	m, err := ReadFitnessMatrix(strings.NewReader(input), r, 4, segment.ChainNone)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	seg, _ := r.Require("9q")
	if got := m.Value(seg, 3); got != 1.3 {
		t.Fatalf("value %v", got)
	}
	if _, err := ReadFitnessMatrix(strings.NewReader("Segment, 0, 1, 3, 2, 4\n"), r, 4, segment.ChainNone); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected header validation error, got %v", err)
	}
	missing := "Segment, 0, 1, 2, 3, 4\n6p, 0.5, 0.8, 1.0, 1.1, 1.2\n"
	if _, err := ReadFitnessMatrix(strings.NewReader(missing), r, 4, segment.ChainNone); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected unassigned rows to fail, got %v", err)
	}
}

func TestLoadChainedFitnessMatrixFromFile(t *testing.T) {
	r := testRegistry(t)
	path := filepath.Join(t.TempDir(), "fitness.csv")
	input := `6p, gain, 0.1
6p, loss, -0.2
9q, gain, 0.0
9q, loss, -0.1
12p, gain, 0.05
12p, loss, -0.05
`
	if err := os.WriteFile(path, []byte(input), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := LoadFitnessMatrix(path, r, 8, segment.ChainAdd)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	seg, _ := r.Require("6p")
	if got := m.Value(seg, 5); math.Abs(got-1.3) > 1e-12 {
		t.Fatalf("gain chain value %v", got)
	}
	if got := m.Value(seg, 0); math.Abs(got-0.6) > 1e-12 {
		t.Fatalf("loss chain value %v", got)
	}
	if got := m.Value(seg, 2); got != 1.0 {
		t.Fatalf("wild type value %v", got)
	}
	if _, err := LoadFitnessMatrix(filepath.Join(t.TempDir(), "missing.csv"), r, 8, segment.ChainAdd); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.csv")
	if err := os.WriteFile(path, []byte(definitions), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if strings.Join(r.Keys(), ",") != "6p,9q,12p" {
		t.Fatalf("unexpected keys %v", r.Keys())
	}
}
