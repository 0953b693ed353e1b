package lattice

import (
	"moransim/internal/coord"
	"moransim/internal/simerr"
)

// Occupancy records which item sits at each lattice site while a lattice
// is being filled. Each site holds at most one item.
type Occupancy[T comparable] struct {
	lattice  *Lattice
	items    []T
	occupied []bool
	count    int
}

func NewOccupancy[T comparable](l *Lattice) *Occupancy[T] {
	return &Occupancy[T]{
		lattice:  l,
		items:    make([]T, l.Size()),
		occupied: make([]bool, l.Size()),
	}
}

func (o *Occupancy[T]) Lattice() *Lattice {
	return o.lattice
}

func (o *Occupancy[T]) Place(c coord.Coord, item T) error {
	site, ok := o.lattice.Site(c)
	if !ok {
		return simerr.Validationf("coordinate %s is outside the lattice", c)
	}
	if o.occupied[site] {
		return simerr.Validationf("coordinate %s is already occupied", c)
	}
	o.items[site] = item
	o.occupied[site] = true
	o.count++
	return nil
}

// Occupant returns the item at site and whether the site is filled.
func (o *Occupancy[T]) Occupant(site int) (T, bool) {
	return o.items[site], o.occupied[site]
}

func (o *Occupancy[T]) IsFull() bool {
	return o.count == len(o.items)
}

// Fill places factory(coordinate) at every vacant site.
func (o *Occupancy[T]) Fill(factory func(coord.Coord) (T, error)) error {
	for site := range o.items {
		if o.occupied[site] {
			continue
		}
		item, err := factory(o.lattice.Coord(site))
		if err != nil {
			return err
		}
		o.items[site] = item
		o.occupied[site] = true
		o.count++
	}
	return nil
}
