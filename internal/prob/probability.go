// Package prob provides bounded probabilities and categorical event sets.
package prob

import (
	"fmt"
	"math"
	"math/rand"

	"moransim/internal/simerr"
)

// Tolerance bounds floating error when summing event probabilities.
const Tolerance = 1e-9

// Probability is a scalar constrained to [0, 1].
type Probability float64

const (
	Zero Probability = 0
	One  Probability = 1
)

func New(value float64) (Probability, error) {
	if math.IsNaN(value) || value < 0 || value > 1 {
		return 0, simerr.Validationf("probability %v outside [0, 1]", value)
	}
	return Probability(value), nil
}

// MustNew panics on invalid input; used for constants.
func MustNew(value float64) Probability {
	p, err := New(value)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Probability) Float64() float64 {
	return float64(p)
}

// Not returns the complement 1 - p.
func (p Probability) Not() Probability {
	return 1 - p
}

// And returns the joint probability of two independent events.
func (p Probability) And(q Probability) Probability {
	return p * q
}

// Plus returns the probability of either of two mutually exclusive events.
func (p Probability) Plus(q Probability) (Probability, error) {
	return New(float64(p) + float64(q))
}

// Times scales p by a non-negative factor; the result must remain a probability.
func (p Probability) Times(factor float64) (Probability, error) {
	return New(float64(p) * factor)
}

// Accept reports whether a single uniform draw falls below p.
func (p Probability) Accept(rng *rand.Rand) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return rng.Float64() < float64(p)
}

func (p Probability) String() string {
	return fmt.Sprintf("%g", float64(p))
}
