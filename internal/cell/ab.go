package cell

import (
	"math"
	"math/rand"

	"moransim/internal/prob"
	"moransim/internal/simerr"
)

type ABType int

const (
	TypeA ABType = iota
	TypeB
)

func (t ABType) String() string {
	if t == TypeB {
		return "B"
	}
	return "A"
}

func ParseABType(s string) (ABType, error) {
	switch s {
	case "A", "a":
		return TypeA, nil
	case "B", "b":
		return TypeB, nil
	default:
		return 0, simerr.Validationf("unknown cell type %q", s)
	}
}

// ABConfig is the shared context for the two-type model. Type A has unit
// fitness; type B has FitnessRatio. A daughter of A becomes B with
// probability MutationRate, and B never reverts.
type ABConfig struct {
	FitnessRatio float64
	MutationRate prob.Probability
}

func NewABConfig(fitnessRatio, mutationRate float64) (*ABConfig, error) {
	if math.IsNaN(fitnessRatio) || math.IsInf(fitnessRatio, 0) || fitnessRatio < 0 {
		return nil, simerr.Validationf("fitness ratio %v must be finite and >= 0", fitnessRatio)
	}
	rate, err := prob.New(mutationRate)
	if err != nil {
		return nil, err
	}
	return &ABConfig{FitnessRatio: fitnessRatio, MutationRate: rate}, nil
}

func (c *ABConfig) Genotype(t ABType) ABGenotype {
	return ABGenotype{Type: t, config: c}
}

type ABGenotype struct {
	Type   ABType
	config *ABConfig
}

func (g ABGenotype) Fitness() float64 {
	if g.Type == TypeB {
		return g.config.FitnessRatio
	}
	return 1.0
}

func (g ABGenotype) Divide(rng *rand.Rand) (Genotype, error) {
	if g.Type == TypeA && g.config.MutationRate.Accept(rng) {
		return g.config.Genotype(TypeB), nil
	}
	return g, nil
}

func (g ABGenotype) Format() string {
	return g.Type.String()
}

func (g ABGenotype) Header() string {
	return "cellType"
}
