package segment

import (
	"moransim/internal/simerr"
)

// Model is the shared context of the copy-number genotype: the segment
// registry, the copy-number ceiling, the alteration rates and the fitness
// matrix. Genotypes carry a pointer to the model that created them.
type Model struct {
	registry *Registry
	maxCN    int
	rates    *RateModel
	fitness  *FitnessMatrix
}

func NewModel(rates *RateModel, fitness *FitnessMatrix) (*Model, error) {
	if rates == nil {
		return nil, simerr.Validationf("rate model is required")
	}
	if fitness == nil {
		return nil, simerr.Validationf("fitness matrix is required")
	}
	if fitness.registry != rates.registry {
		return nil, simerr.Validationf("fitness matrix and rate model use different segment registries")
	}
	if fitness.maxCN != rates.maxCN {
		return nil, simerr.Validationf("fitness matrix and rate model disagree on maximum copy number: %d vs %d",
			fitness.maxCN, rates.maxCN)
	}
	if err := fitness.Validate(); err != nil {
		return nil, err
	}
	return &Model{registry: rates.registry, maxCN: rates.maxCN, rates: rates, fitness: fitness}, nil
}

func (m *Model) Registry() *Registry {
	return m.registry
}

func (m *Model) MaxCopyNumber() int {
	return m.maxCN
}

func (m *Model) Rates() *RateModel {
	return m.rates
}

func (m *Model) FitnessMatrix() *FitnessMatrix {
	return m.fitness
}

// WildType returns the germline genotype with two copies of every segment.
func (m *Model) WildType() Genotype {
	copies := make([]int, m.registry.Count())
	for i := range copies {
		copies[i] = WildTypeCopyNumber
	}
	return Genotype{model: m, copies: copies}
}

// Genotype builds a genotype from an explicit copy-number vector.
func (m *Model) Genotype(copies []int) (Genotype, error) {
	if len(copies) != m.registry.Count() {
		return Genotype{}, simerr.Validationf("expected %d copy numbers, got %d", m.registry.Count(), len(copies))
	}
	owned := make([]int, len(copies))
	for i, cn := range copies {
		if cn < 0 || cn > m.maxCN {
			return Genotype{}, simerr.Validationf("copy number %d for %s outside [0, %d]", cn, m.registry.At(i), m.maxCN)
		}
		owned[i] = cn
	}
	return Genotype{model: m, copies: owned}, nil
}
