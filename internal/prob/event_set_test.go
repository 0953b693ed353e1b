package prob

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"moransim/internal/simerr"
)

type color int

const (
	red color = iota
	green
	blue
)

func TestEventSetValidation(t *testing.T) {
	_, err := NewEventSet(
		Outcome[color]{red, 0.5},
		Outcome[color]{green, 0.4},
	)
	if !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error for short sum, got %v", err)
	}
	_, err = NewEventSet(
		Outcome[color]{red, 0.5},
		Outcome[color]{red, 0.5},
	)
	if !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error for duplicate, got %v", err)
	}
	_, err = NewEventSet(
		Outcome[color]{red, -0.5},
		Outcome[color]{green, 1.5},
	)
	if !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error for negative, got %v", err)
	}
}

func TestEventSetSelectPartition(t *testing.T) {
	set, err := NewEventSet(
		Outcome[color]{red, 0.2},
		Outcome[color]{green, 0},
		Outcome[color]{blue, 0.8},
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cases := []struct {
		draw float64
		want color
	}{
		{0, red},
		{0.1999, red},
		{0.2, blue},
		{0.9999999, blue},
	}
	for _, tc := range cases {
		if got := set.Select(tc.draw); got != tc.want {
			t.Fatalf("select(%v) = %v, want %v", tc.draw, got, tc.want)
		}
	}
	if math.Abs(set.Total()-1) > Tolerance {
		t.Fatalf("total %v", set.Total())
	}
}

func TestRemainderSet(t *testing.T) {
	set, err := NewRemainderSet(blue,
		Outcome[color]{red, 0.1},
		Outcome[color]{green, 0.3},
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := set.Probability(blue).Float64(); math.Abs(got-0.6) > Tolerance {
		t.Fatalf("remainder probability %v", got)
	}
	if _, err := NewRemainderSet(blue, Outcome[color]{red, 0.7}, Outcome[color]{green, 0.7}); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEventSetSampleFrequencies(t *testing.T) {
	set, err := NewEventSet(
		Outcome[color]{red, 0.1},
		Outcome[color]{green, 0.3},
		Outcome[color]{blue, 0.6},
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rng := rand.New(rand.NewSource(42))
	counts := map[color]int{}
	const draws = 200000
	for i := 0; i < draws; i++ {
		counts[set.Sample(rng)]++
	}
	for _, outcome := range set.Outcomes() {
		freq := float64(counts[outcome.Event]) / draws
		if math.Abs(freq-outcome.Probability.Float64()) > 0.005 {
			t.Fatalf("event %v frequency %v, want %v", outcome.Event, freq, outcome.Probability)
		}
	}
}
