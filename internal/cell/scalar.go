package cell

import (
	"math"
	"math/rand"
	"strconv"

	"moransim/internal/simerr"
)

// Scalar is a genotype whose fitness is a fixed value and whose daughters
// are exact copies.
type Scalar float64

func NewScalar(fitness float64) (Scalar, error) {
	if math.IsNaN(fitness) || math.IsInf(fitness, 0) || fitness < 0 {
		return 0, simerr.Validationf("scalar fitness %v must be finite and >= 0", fitness)
	}
	return Scalar(fitness), nil
}

func (s Scalar) Fitness() float64 {
	return float64(s)
}

func (s Scalar) Divide(_ *rand.Rand) (Genotype, error) {
	return s, nil
}

func (s Scalar) Format() string {
	return strconv.FormatFloat(float64(s), 'f', -1, 64)
}

func (s Scalar) Header() string {
	return "fitness"
}
