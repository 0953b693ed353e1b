package space

import (
	"moransim/internal/cell"
	"moransim/internal/coord"
	"moransim/internal/simerr"
)

// MinLinearSize is the smallest line that is not degenerate.
const MinLinearSize = 3

type linearTopology struct {
	size     int
	periodic bool
}

// NewLinear places cells at positions 0..n-1 in order. Interior positions
// have two neighbors; end positions have one unless periodic is set.
func NewLinear(cells []*cell.Cell, periodic bool) (*Space, error) {
	if len(cells) < MinLinearSize {
		return nil, simerr.Validationf("linear space requires at least %d cells, got %d", MinLinearSize, len(cells))
	}
	pop, err := NewPopulation(cells)
	if err != nil {
		return nil, err
	}
	return &Space{pop: pop, topo: linearTopology{size: pop.Size(), periodic: periodic}}, nil
}

func (linearTopology) kind() Kind {
	return KindLinear
}

func (t linearTopology) neighbors(slot int) []int {
	last := t.size - 1
	switch slot {
	case 0:
		if t.periodic {
			return []int{last, 1}
		}
		return []int{1}
	case last:
		if t.periodic {
			return []int{last - 1, 0}
		}
		return []int{last - 1}
	default:
		return []int{slot - 1, slot + 1}
	}
}

func (linearTopology) coordOf(slot int) coord.Coord {
	return coord.Of(slot)
}

func (t linearTopology) slotAt(c coord.Coord) (int, bool) {
	if c.Dim() != 1 || c.At(0) < 0 || c.At(0) >= t.size {
		return 0, false
	}
	return c.At(0), true
}
