package space

import (
	"moransim/internal/cell"
	"moransim/internal/coord"
)

type pointTopology struct {
	size int
}

// NewPoint builds an unstructured space where every cell neighbors every other.
func NewPoint(cells []*cell.Cell) (*Space, error) {
	pop, err := NewPopulation(cells)
	if err != nil {
		return nil, err
	}
	return &Space{pop: pop, topo: pointTopology{size: pop.Size()}}, nil
}

func (pointTopology) kind() Kind {
	return KindPoint
}

func (t pointTopology) neighbors(slot int) []int {
	out := make([]int, 0, t.size-1)
	for i := 0; i < t.size; i++ {
		if i != slot {
			out = append(out, i)
		}
	}
	return out
}

func (pointTopology) coordOf(int) coord.Coord {
	return coord.Origin
}

// The origin is shared by every cell, so no coordinate has a unique occupant.
func (pointTopology) slotAt(coord.Coord) (int, bool) {
	return 0, false
}
