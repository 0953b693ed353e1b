package segment

import (
	"fmt"
	"math"
	"math/rand"

	"moransim/internal/prob"
	"moransim/internal/simerr"
)

// RateModel draws copy-number alterations for one cell division. Whole
// genome doubling and segment events are mutually exclusive per division,
// so segment rates are rescaled by 1/(1-wgd) inside the per-state event
// sets to keep their unconditional frequencies equal to the configured rates.
type RateModel struct {
	registry *Registry
	maxCN    int
	gain     *RateMatrix
	loss     *RateMatrix
	wgd      prob.Probability
	sets     [][]*prob.EventSet[CNAType]
}

func NewRateModel(gain, loss *RateMatrix, wgdRate float64) (*RateModel, error) {
	if gain == nil || loss == nil {
		return nil, simerr.Validationf("gain and loss rate matrices are required")
	}
	if gain.Kind() != Gain {
		return nil, simerr.Validationf("gain rate matrix is tagged %s", gain.Kind())
	}
	if loss.Kind() != Loss {
		return nil, simerr.Validationf("loss rate matrix is tagged %s", loss.Kind())
	}
	if gain.Registry() != loss.Registry() {
		return nil, simerr.Validationf("gain and loss rate matrices use different segment registries")
	}
	if gain.MaxCopyNumber() != loss.MaxCopyNumber() {
		return nil, simerr.Validationf("gain and loss rate matrices disagree on maximum copy number: %d vs %d",
			gain.MaxCopyNumber(), loss.MaxCopyNumber())
	}
	if err := gain.Validate(); err != nil {
		return nil, err
	}
	if err := loss.Validate(); err != nil {
		return nil, err
	}
	wgd, err := prob.New(wgdRate)
	if err != nil {
		return nil, fmt.Errorf("whole genome doubling rate: %w", err)
	}
	if wgd == prob.One {
		return nil, simerr.Validationf("whole genome doubling rate must be < 1")
	}

	m := &RateModel{
		registry: gain.Registry(),
		maxCN:    gain.MaxCopyNumber(),
		gain:     gain,
		loss:     loss,
		wgd:      wgd,
		sets:     make([][]*prob.EventSet[CNAType], gain.Registry().Count()),
	}
	scale := 1.0 / wgd.Not().Float64()
	for _, seg := range m.registry.List() {
		m.sets[seg.Ordinal] = make([]*prob.EventSet[CNAType], m.maxCN+1)
		for cn := 0; cn <= m.maxCN; cn++ {
			set, err := buildEventSet(gain.Rate(seg, cn)*scale, loss.Rate(seg, cn)*scale)
			if err != nil {
				return nil, fmt.Errorf("event set for %s at copy number %d: %w", seg, cn, err)
			}
			m.sets[seg.Ordinal][cn] = set
		}
	}
	return m, nil
}

func buildEventSet(gainRate, lossRate float64) (*prob.EventSet[CNAType], error) {
	pGain, err := prob.New(gainRate)
	if err != nil {
		return nil, err
	}
	pLoss, err := prob.New(lossRate)
	if err != nil {
		return nil, err
	}
	return prob.NewRemainderSet(None,
		prob.Outcome[CNAType]{Event: Gain, Probability: pGain},
		prob.Outcome[CNAType]{Event: Loss, Probability: pLoss},
	)
}

func (m *RateModel) Registry() *Registry {
	return m.registry
}

func (m *RateModel) MaxCopyNumber() int {
	return m.maxCN
}

func (m *RateModel) GainRate(seg Segment, cn int) float64 {
	return m.gain.Rate(seg, cn)
}

func (m *RateModel) LossRate(seg Segment, cn int) float64 {
	return m.loss.Rate(seg, cn)
}

func (m *RateModel) WGDRate() prob.Probability {
	return m.wgd
}

// EventSet returns the {GAIN, LOSS, NONE} distribution for seg at cn.
func (m *RateModel) EventSet(seg Segment, cn int) (*prob.EventSet[CNAType], error) {
	if !m.registry.contains(seg) {
		return nil, simerr.Validationf("segment %s is not registered with this rate model", seg)
	}
	if cn < 0 || cn > m.maxCN {
		return nil, simerr.Statef("copy number %d outside [0, %d]", cn, m.maxCN)
	}
	return m.sets[seg.Ordinal][cn], nil
}

// Mutate applies one division's worth of alterations to g and returns the
// result. g is never modified.
func (m *RateModel) Mutate(rng *rand.Rand, g Genotype) (Genotype, error) {
	if rng == nil {
		return Genotype{}, fmt.Errorf("random source is required")
	}
	if g.model == nil || g.model.registry != m.registry {
		return Genotype{}, simerr.Statef("genotype does not belong to this rate model's registry")
	}
	if m.wgd.Accept(rng) {
		return g.DoubleWG(), nil
	}

	copies := g.CopyNumbers()
	changed := false
	for _, seg := range m.registry.segments {
		cn := copies[seg.Ordinal]
		set, err := m.EventSet(seg, cn)
		if err != nil {
			return Genotype{}, err
		}
		switch set.Sample(rng) {
		case Gain:
			if cn == 0 {
				return Genotype{}, simerr.Statef("gain drawn for %s at copy number zero", seg)
			}
			if cn < m.maxCN {
				copies[seg.Ordinal]++
				changed = true
			}
		case Loss:
			if cn == 0 {
				return Genotype{}, simerr.Statef("loss drawn for %s at copy number zero", seg)
			}
			copies[seg.Ordinal]--
			changed = true
		}
	}
	if !changed {
		return g, nil
	}
	return Genotype{model: g.model, copies: copies}, nil
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
