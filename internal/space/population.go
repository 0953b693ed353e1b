// Package space holds fixed-size cell populations and the spatial
// topologies that decide which cells neighbor each other.
package space

import (
	"fmt"
	"math/rand"

	"moransim/internal/cell"
	"moransim/internal/simerr"
)

// Population is a fixed-size arena of cells. Each cell occupies one dense
// slot; the id index gives constant-time lookup for replacement.
type Population struct {
	cells []*cell.Cell
	slots map[uint64]int
}

func NewPopulation(cells []*cell.Cell) (*Population, error) {
	if len(cells) == 0 {
		return nil, simerr.Validationf("population requires at least one cell")
	}
	p := &Population{
		cells: make([]*cell.Cell, len(cells)),
		slots: make(map[uint64]int, len(cells)),
	}
	for slot, c := range cells {
		if c == nil {
			return nil, simerr.Validationf("population slot %d has no cell", slot)
		}
		if _, ok := p.slots[c.ID()]; ok {
			return nil, simerr.Validationf("duplicate cell %s", c)
		}
		p.cells[slot] = c
		p.slots[c.ID()] = slot
	}
	return p, nil
}

func (p *Population) Size() int {
	return len(p.cells)
}

func (p *Population) At(slot int) *cell.Cell {
	return p.cells[slot]
}

// Slot returns the slot occupied by c.
func (p *Population) Slot(c *cell.Cell) (int, bool) {
	if c == nil {
		return 0, false
	}
	slot, ok := p.slots[c.ID()]
	if !ok || p.cells[slot] != c {
		return 0, false
	}
	return slot, true
}

func (p *Population) Contains(c *cell.Cell) bool {
	_, ok := p.Slot(c)
	return ok
}

// Select returns a uniformly random cell.
func (p *Population) Select(rng *rand.Rand) *cell.Cell {
	return p.cells[rng.Intn(len(p.cells))]
}

// Replace puts newCell into the slot held by oldCell and returns that slot.
func (p *Population) Replace(oldCell, newCell *cell.Cell) (int, error) {
	slot, ok := p.Slot(oldCell)
	if !ok {
		return 0, simerr.Validationf("cell %v is not a member of the population", oldCell)
	}
	if newCell == nil {
		return 0, simerr.Validationf("replacement cell is required")
	}
	if _, ok := p.slots[newCell.ID()]; ok {
		return 0, simerr.Validationf("cell %s is already a member of the population", newCell)
	}
	delete(p.slots, oldCell.ID())
	p.cells[slot] = newCell
	p.slots[newCell.ID()] = slot
	return slot, nil
}

// List returns the cells in slot order.
func (p *Population) List() []*cell.Cell {
	out := make([]*cell.Cell, len(p.cells))
	copy(out, p.cells)
	return out
}

func (p *Population) String() string {
	return fmt.Sprintf("population(%d)", len(p.cells))
}
