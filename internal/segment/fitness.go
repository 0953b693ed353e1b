package segment

import (
	"fmt"
	"math"
	"strings"

	"moransim/internal/simerr"
)

// FitnessMatrix maps (segment, copy number) to a non-negative fitness
// contribution. A genotype's fitness is the sum of its segments' entries.
type FitnessMatrix struct {
	registry *Registry
	maxCN    int
	values   [][]float64
	assigned [][]bool
}

func NewFitnessMatrix(registry *Registry, maxCN int) (*FitnessMatrix, error) {
	if registry == nil {
		return nil, simerr.Validationf("segment registry is required")
	}
	if maxCN < 2 {
		return nil, simerr.Validationf("maximum copy number %d must be >= 2", maxCN)
	}
	m := &FitnessMatrix{
		registry: registry,
		maxCN:    maxCN,
		values:   make([][]float64, registry.Count()),
		assigned: make([][]bool, registry.Count()),
	}
	for row := range m.values {
		m.values[row] = make([]float64, maxCN+1)
		m.assigned[row] = make([]bool, maxCN+1)
	}
	return m, nil
}

func (m *FitnessMatrix) Set(seg Segment, cn int, value float64) error {
	if !m.registry.contains(seg) {
		return simerr.Validationf("segment %s is not registered with this fitness matrix", seg)
	}
	if cn < 0 || cn > m.maxCN {
		return simerr.Validationf("copy number %d outside [0, %d]", cn, m.maxCN)
	}
	if !isFiniteNonNegative(value) {
		return simerr.Validationf("fitness %v for %s at copy number %d must be finite and >= 0", value, seg, cn)
	}
	m.values[seg.Ordinal][cn] = value
	m.assigned[seg.Ordinal][cn] = true
	return nil
}

func (m *FitnessMatrix) Value(seg Segment, cn int) float64 {
	return m.values[seg.Ordinal][cn]
}

func (m *FitnessMatrix) MaxCopyNumber() int {
	return m.maxCN
}

func (m *FitnessMatrix) Validate() error {
	for row, cells := range m.assigned {
		for cn, ok := range cells {
			if !ok {
				return simerr.Validationf("fitness for %s at copy number %d is unassigned", m.registry.At(row), cn)
			}
		}
	}
	return nil
}

// Fitness sums the matrix entries selected by a copy-number vector.
func (m *FitnessMatrix) Fitness(copies []int) float64 {
	total := 0.0
	for ordinal, cn := range copies {
		total += m.values[ordinal][cn]
	}
	return total
}

// ChainOperation derives the fitness of copy number N from a per-copy
// selection coefficient s, relative to the wild type.
type ChainOperation int

const (
	ChainAdd ChainOperation = iota
	ChainMultiply
	ChainNone
)

func ParseChainOperation(s string) (ChainOperation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADD":
		return ChainAdd, nil
	case "MULTIPLY":
		return ChainMultiply, nil
	case "NONE":
		return ChainNone, nil
	default:
		return 0, simerr.Validationf("unknown fitness chain operation %q", s)
	}
}

func (op ChainOperation) String() string {
	switch op {
	case ChainAdd:
		return "ADD"
	case ChainMultiply:
		return "MULTIPLY"
	case ChainNone:
		return "NONE"
	default:
		return fmt.Sprintf("ChainOperation(%d)", int(op))
	}
}

func (op ChainOperation) Compute(s float64, n int) float64 {
	distance := math.Abs(float64(n - WildTypeCopyNumber))
	switch op {
	case ChainAdd:
		return 1.0 + distance*s
	case ChainMultiply:
		return math.Pow(1.0+s, distance)
	default:
		if n == WildTypeCopyNumber {
			return 1.0
		}
		return 1.0 + s
	}
}

// ChainLink is one "segment, gain|loss, s" entry of a chained fitness file.
type ChainLink struct {
	Segment   Segment
	Event     CNAType
	Selection float64
}

// NewChainedFitnessMatrix fills the wild-type column with unit fitness, gain
// links fill copy numbers above the wild type, and loss links fill those below.
func NewChainedFitnessMatrix(registry *Registry, maxCN int, op ChainOperation, links []ChainLink) (*FitnessMatrix, error) {
	m, err := NewFitnessMatrix(registry, maxCN)
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		if err := m.Set(link.Segment, WildTypeCopyNumber, 1.0); err != nil {
			return nil, err
		}
		var lo, hi int
		switch link.Event {
		case Gain:
			lo, hi = WildTypeCopyNumber+1, maxCN
		case Loss:
			lo, hi = 0, WildTypeCopyNumber-1
		default:
			return nil, simerr.Validationf("chained fitness event must be GAIN or LOSS, got %s", link.Event)
		}
		for cn := lo; cn <= hi; cn++ {
			if err := m.Set(link.Segment, cn, op.Compute(link.Selection, cn)); err != nil {
				return nil, err
			}
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
