// Package cell holds the agents of a Moran population and their genotypes.
package cell

import (
	"fmt"
	"math/rand"

	"moransim/internal/simerr"
)

// Genotype is the heritable state of a cell. Implementations are immutable
// values: Divide returns a new genotype and never modifies the receiver.
type Genotype interface {
	Fitness() float64
	Divide(rng *rand.Rand) (Genotype, error)
	// Format renders the genotype as comma separated report fields.
	Format() string
	// Header names the fields produced by Format.
	Header() string
}

// Cell is an immutable agent. Identity is the creation ordinal assigned by a Source.
type Cell struct {
	id       uint64
	parentID uint64
	genotype Genotype
}

func (c *Cell) ID() uint64 {
	return c.id
}

// ParentID is zero for founders.
func (c *Cell) ParentID() uint64 {
	return c.parentID
}

func (c *Cell) Genotype() Genotype {
	return c.genotype
}

func (c *Cell) Fitness() float64 {
	return c.genotype.Fitness()
}

func (c *Cell) String() string {
	return fmt.Sprintf("cell-%d", c.id)
}

// Source issues cells with monotonically increasing ordinals. One source
// belongs to one trial and is not safe for concurrent use.
type Source struct {
	next uint64
}

func NewSource() *Source {
	return &Source{next: 1}
}

func (s *Source) Founder(g Genotype) (*Cell, error) {
	if g == nil {
		return nil, simerr.Validationf("founder genotype is required")
	}
	return s.issue(0, g), nil
}

// Founders creates n founders sharing one genotype value.
func (s *Source) Founders(n int, g Genotype) ([]*Cell, error) {
	if n <= 0 {
		return nil, simerr.Validationf("founder count must be > 0")
	}
	cells := make([]*Cell, 0, n)
	for i := 0; i < n; i++ {
		c, err := s.Founder(g)
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// Daughter divides parent and wraps the resulting genotype in a new cell.
func (s *Source) Daughter(parent *Cell, rng *rand.Rand) (*Cell, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	g, err := parent.genotype.Divide(rng)
	if err != nil {
		return nil, fmt.Errorf("divide %s: %w", parent, err)
	}
	return s.issue(parent.id, g), nil
}

func (s *Source) issue(parentID uint64, g Genotype) *Cell {
	c := &Cell{id: s.next, parentID: parentID, genotype: g}
	s.next++
	return c
}
