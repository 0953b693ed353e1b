package prob

import (
	"fmt"
	"math"
	"math/rand"

	"moransim/internal/simerr"
)

// Outcome pairs an event with its probability.
type Outcome[E comparable] struct {
	Event       E
	Probability Probability
}

// EventSet is an immutable, mutually exclusive and exhaustive distribution
// over a small set of events. Outcomes keep their construction order, which
// fixes the cumulative partition used by Select.
type EventSet[E comparable] struct {
	outcomes   []Outcome[E]
	cumulative []float64
}

func NewEventSet[E comparable](outcomes ...Outcome[E]) (*EventSet[E], error) {
	if len(outcomes) == 0 {
		return nil, simerr.Validationf("event set requires at least one outcome")
	}
	seen := make(map[E]struct{}, len(outcomes))
	cumulative := make([]float64, len(outcomes))
	total := 0.0
	for i, outcome := range outcomes {
		if _, ok := seen[outcome.Event]; ok {
			return nil, simerr.Validationf("duplicate event %v", outcome.Event)
		}
		seen[outcome.Event] = struct{}{}
		if _, err := New(float64(outcome.Probability)); err != nil {
			return nil, err
		}
		total += float64(outcome.Probability)
		cumulative[i] = total
	}
	if math.Abs(total-1) > Tolerance {
		return nil, simerr.Validationf("event probabilities sum to %v, expected 1", total)
	}
	copied := make([]Outcome[E], len(outcomes))
	copy(copied, outcomes)
	return &EventSet[E]{outcomes: copied, cumulative: cumulative}, nil
}

// NewRemainderSet builds a set where the remainder event absorbs whatever
// probability the listed events leave unclaimed.
func NewRemainderSet[E comparable](remainder E, outcomes ...Outcome[E]) (*EventSet[E], error) {
	claimed := Zero
	for _, outcome := range outcomes {
		var err error
		claimed, err = claimed.Plus(outcome.Probability)
		if err != nil {
			return nil, fmt.Errorf("claimed event mass: %w", err)
		}
	}
	all := make([]Outcome[E], 0, len(outcomes)+1)
	all = append(all, outcomes...)
	all = append(all, Outcome[E]{Event: remainder, Probability: claimed.Not()})
	return NewEventSet(all...)
}

// Select maps a uniform draw in [0, 1) onto one event.
func (s *EventSet[E]) Select(draw float64) E {
	for i, bound := range s.cumulative {
		if draw < bound {
			return s.outcomes[i].Event
		}
	}
	// Rounding can leave the last bound just under 1; fall back to the last
	// event that carries any mass.
	for i := len(s.outcomes) - 1; i >= 0; i-- {
		if s.outcomes[i].Probability > 0 {
			return s.outcomes[i].Event
		}
	}
	return s.outcomes[len(s.outcomes)-1].Event
}

func (s *EventSet[E]) Sample(rng *rand.Rand) E {
	return s.Select(rng.Float64())
}

// Probability returns the probability of event, or zero when it is not a member.
func (s *EventSet[E]) Probability(event E) Probability {
	for _, outcome := range s.outcomes {
		if outcome.Event == event {
			return outcome.Probability
		}
	}
	return Zero
}

func (s *EventSet[E]) Outcomes() []Outcome[E] {
	out := make([]Outcome[E], len(s.outcomes))
	copy(out, s.outcomes)
	return out
}

// Total returns the summed probability of all outcomes.
func (s *EventSet[E]) Total() float64 {
	return s.cumulative[len(s.cumulative)-1]
}
