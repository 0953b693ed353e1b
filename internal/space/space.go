package space

import (
	"math/rand"

	"moransim/internal/cell"
	"moransim/internal/coord"
	"moransim/internal/simerr"
)

type Kind string

const (
	KindPoint   Kind = "point"
	KindLinear  Kind = "linear"
	KindLattice Kind = "lattice"
)

// topology supplies adjacency and coordinates in terms of population slots.
// A cell's location is the location of its slot, so replacing a cell keeps
// the location binding without extra bookkeeping.
type topology interface {
	kind() Kind
	neighbors(slot int) []int
	coordOf(slot int) coord.Coord
	slotAt(c coord.Coord) (int, bool)
}

// Space binds a population to a topology.
type Space struct {
	pop  *Population
	topo topology
}

func (s *Space) Kind() Kind {
	return s.topo.kind()
}

func (s *Space) Size() int {
	return s.pop.Size()
}

func (s *Space) Select(rng *rand.Rand) *cell.Cell {
	return s.pop.Select(rng)
}

func (s *Space) Contains(c *cell.Cell) bool {
	return s.pop.Contains(c)
}

// List returns the cells in population order.
func (s *Space) List() []*cell.Cell {
	return s.pop.List()
}

// Neighbors returns the cells adjacent to c in a fixed order.
func (s *Space) Neighbors(c *cell.Cell) ([]*cell.Cell, error) {
	slot, ok := s.pop.Slot(c)
	if !ok {
		return nil, simerr.Statef("cell %v is not a member of the population", c)
	}
	slots := s.topo.neighbors(slot)
	out := make([]*cell.Cell, len(slots))
	for i, n := range slots {
		out[i] = s.pop.At(n)
	}
	return out, nil
}

// Locate returns the coordinate of c.
func (s *Space) Locate(c *cell.Cell) (coord.Coord, bool) {
	slot, ok := s.pop.Slot(c)
	if !ok {
		return coord.Coord{}, false
	}
	return s.topo.coordOf(slot), true
}

// CellAt returns the unique occupant of a coordinate.
func (s *Space) CellAt(c coord.Coord) (*cell.Cell, bool) {
	slot, ok := s.topo.slotAt(c)
	if !ok {
		return nil, false
	}
	return s.pop.At(slot), true
}

func (s *Space) ContainsCoord(c coord.Coord) bool {
	_, ok := s.topo.slotAt(c)
	return ok
}

// Replace swaps oldCell for newCell at the same location.
func (s *Space) Replace(oldCell, newCell *cell.Cell) error {
	_, err := s.pop.Replace(oldCell, newCell)
	return err
}
