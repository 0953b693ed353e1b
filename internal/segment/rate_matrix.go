package segment

import (
	"math"

	"moransim/internal/simerr"
)

// RateMatrix holds per-division rates of one event kind, indexed by segment
// ordinal and copy number in [0, maxCN]. Absorbing cells are fixed at zero
// on construction; every other cell must be assigned before use.
type RateMatrix struct {
	kind     CNAType
	registry *Registry
	maxCN    int
	rates    [][]float64
	assigned [][]bool
}

func NewRateMatrix(kind CNAType, registry *Registry, maxCN int) (*RateMatrix, error) {
	if kind != Gain && kind != Loss {
		return nil, simerr.Validationf("rate matrix kind must be GAIN or LOSS, got %s", kind)
	}
	if registry == nil {
		return nil, simerr.Validationf("segment registry is required")
	}
	if maxCN < 2 {
		return nil, simerr.Validationf("maximum copy number %d must be >= 2", maxCN)
	}
	m := &RateMatrix{
		kind:     kind,
		registry: registry,
		maxCN:    maxCN,
		rates:    make([][]float64, registry.Count()),
		assigned: make([][]bool, registry.Count()),
	}
	for row := range m.rates {
		m.rates[row] = make([]float64, maxCN+1)
		m.assigned[row] = make([]bool, maxCN+1)
		for cn := 0; cn <= maxCN; cn++ {
			m.assigned[row][cn] = m.IsAbsorbing(cn)
		}
	}
	return m, nil
}

// NewUniformRateMatrix assigns rate to every non-absorbing cell.
func NewUniformRateMatrix(kind CNAType, registry *Registry, maxCN int, rate float64) (*RateMatrix, error) {
	m, err := NewRateMatrix(kind, registry, maxCN)
	if err != nil {
		return nil, err
	}
	for _, seg := range registry.List() {
		if err := m.SetSegment(seg, rate); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *RateMatrix) Kind() CNAType {
	return m.kind
}

func (m *RateMatrix) MaxCopyNumber() int {
	return m.maxCN
}

func (m *RateMatrix) Registry() *Registry {
	return m.registry
}

// IsAbsorbing reports whether no event of this kind can occur at cn.
func (m *RateMatrix) IsAbsorbing(cn int) bool {
	if cn == 0 {
		return true
	}
	return m.kind == Gain && cn == m.maxCN
}

// Set assigns one cell. Absorbing cells accept only a zero rate.
func (m *RateMatrix) Set(seg Segment, cn int, rate float64) error {
	if err := m.checkIndex(seg, cn); err != nil {
		return err
	}
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return simerr.Validationf("%s rate %v for %s at copy number %d outside [0, 1]", m.kind, rate, seg, cn)
	}
	if m.IsAbsorbing(cn) {
		if rate != 0 {
			return simerr.Validationf("%s rate for %s at absorbing copy number %d must be zero", m.kind, seg, cn)
		}
		return nil
	}
	m.rates[seg.Ordinal][cn] = rate
	m.assigned[seg.Ordinal][cn] = true
	return nil
}

// SetSegment assigns rate to every non-absorbing copy number of seg.
func (m *RateMatrix) SetSegment(seg Segment, rate float64) error {
	for cn := 1; cn <= m.maxCN; cn++ {
		if m.IsAbsorbing(cn) {
			continue
		}
		if err := m.Set(seg, cn, rate); err != nil {
			return err
		}
	}
	return nil
}

func (m *RateMatrix) Rate(seg Segment, cn int) float64 {
	return m.rates[seg.Ordinal][cn]
}

// Validate fails on the first unassigned cell.
func (m *RateMatrix) Validate() error {
	for row, cells := range m.assigned {
		for cn, ok := range cells {
			if !ok {
				return simerr.Validationf("%s rate for %s at copy number %d is unassigned", m.kind, m.registry.At(row), cn)
			}
		}
	}
	return nil
}

func (m *RateMatrix) checkIndex(seg Segment, cn int) error {
	if !m.registry.contains(seg) {
		return simerr.Validationf("segment %s is not registered with this matrix", seg)
	}
	if cn < 0 || cn > m.maxCN {
		return simerr.Validationf("copy number %d outside [0, %d]", cn, m.maxCN)
	}
	return nil
}
