package segment

import (
	"math/rand"
	"strconv"
	"strings"

	"moransim/internal/cell"
	"moransim/internal/simerr"
)

// WildTypeCopyNumber is the germline copy number of every segment.
const WildTypeCopyNumber = 2

// Genotype is an immutable copy-number vector indexed by segment ordinal.
type Genotype struct {
	model  *Model
	copies []int
}

var _ cell.Genotype = Genotype{}

func (g Genotype) Count(seg Segment) int {
	return g.copies[seg.Ordinal]
}

// CopyNumbers returns a copy of the vector in ordinal order.
func (g Genotype) CopyNumbers() []int {
	out := make([]int, len(g.copies))
	copy(out, g.copies)
	return out
}

// Gain adds one copy of seg. At the maximum copy number it returns g unchanged.
func (g Genotype) Gain(seg Segment) (Genotype, error) {
	cn := g.Count(seg)
	if cn >= g.model.maxCN {
		return g, nil
	}
	if cn < 1 {
		return Genotype{}, simerr.Statef("segment %s has copy number zero", seg)
	}
	copies := g.CopyNumbers()
	copies[seg.Ordinal]++
	return Genotype{model: g.model, copies: copies}, nil
}

// Lose removes one copy of seg; zero is absorbing.
func (g Genotype) Lose(seg Segment) (Genotype, error) {
	if g.Count(seg) < 1 {
		return Genotype{}, simerr.Statef("segment %s has copy number zero", seg)
	}
	copies := g.CopyNumbers()
	copies[seg.Ordinal]--
	return Genotype{model: g.model, copies: copies}, nil
}

// DoubleWG doubles every copy number, clamped at the maximum.
func (g Genotype) DoubleWG() Genotype {
	copies := g.CopyNumbers()
	for i, cn := range copies {
		copies[i] = min(2*cn, g.model.maxCN)
	}
	return Genotype{model: g.model, copies: copies}
}

func (g Genotype) Equal(other Genotype) bool {
	if len(g.copies) != len(other.copies) {
		return false
	}
	for i := range g.copies {
		if g.copies[i] != other.copies[i] {
			return false
		}
	}
	return true
}

func (g Genotype) Fitness() float64 {
	return g.model.fitness.Fitness(g.copies)
}

func (g Genotype) Divide(rng *rand.Rand) (cell.Genotype, error) {
	daughter, err := g.model.rates.Mutate(rng, g)
	if err != nil {
		return nil, err
	}
	return daughter, nil
}

func (g Genotype) Format() string {
	parts := make([]string, len(g.copies))
	for i, cn := range g.copies {
		parts[i] = strconv.Itoa(cn)
	}
	return strings.Join(parts, ",")
}

func (g Genotype) Header() string {
	return strings.Join(g.model.registry.Keys(), ",")
}
