package space

import (
	"moransim/internal/cell"
	"moransim/internal/coord"
	"moransim/internal/lattice"
	"moransim/internal/simerr"
)

type latticeTopology struct {
	lattice *lattice.Lattice
}

// NewLattice builds a space over a completely filled occupancy. Population
// slots coincide with lattice sites.
func NewLattice(occ *lattice.Occupancy[*cell.Cell]) (*Space, error) {
	if occ == nil {
		return nil, simerr.Validationf("lattice occupancy is required")
	}
	if !occ.IsFull() {
		return nil, simerr.Validationf("lattice must be completely filled")
	}
	l := occ.Lattice()
	cells := make([]*cell.Cell, l.Size())
	for site := range cells {
		cells[site], _ = occ.Occupant(site)
	}
	pop, err := NewPopulation(cells)
	if err != nil {
		return nil, err
	}
	return &Space{pop: pop, topo: latticeTopology{lattice: l}}, nil
}

// FillLattice creates one cell per site from factory and builds the space.
func FillLattice(l *lattice.Lattice, factory func(coord.Coord) (*cell.Cell, error)) (*Space, error) {
	occ := lattice.NewOccupancy[*cell.Cell](l)
	if err := occ.Fill(factory); err != nil {
		return nil, err
	}
	return NewLattice(occ)
}

func (latticeTopology) kind() Kind {
	return KindLattice
}

func (t latticeTopology) neighbors(slot int) []int {
	return t.lattice.Neighbors(slot)
}

func (t latticeTopology) coordOf(slot int) coord.Coord {
	return t.lattice.Coord(slot)
}

func (t latticeTopology) slotAt(c coord.Coord) (int, bool) {
	return t.lattice.Site(c)
}
