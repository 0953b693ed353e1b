package space

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"moransim/internal/cell"
	"moransim/internal/coord"
	"moransim/internal/lattice"
	"moransim/internal/simerr"
)

func founders(t *testing.T, src *cell.Source, n int) []*cell.Cell {
	t.Helper()
	cells, err := src.Founders(n, cell.Scalar(1))
	if err != nil {
		t.Fatalf("founders: %v", err)
	}
	return cells
}

func ids(cells []*cell.Cell) []uint64 {
	out := make([]uint64, len(cells))
	for i, c := range cells {
		out[i] = c.ID()
	}
	return out
}

func assertNeighbors(t *testing.T, s *Space, c *cell.Cell, want ...*cell.Cell) {
	t.Helper()
	got, err := s.Neighbors(c)
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("neighbors of %s = %v, want %v", c, ids(got), ids(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("neighbors of %s = %v, want %v", c, ids(got), ids(want))
		}
	}
}

func TestPopulationRejectsDuplicates(t *testing.T) {
	cells := founders(t, cell.NewSource(), 3)
	if _, err := NewPopulation([]*cell.Cell{cells[0], cells[1], cells[0]}); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := NewPopulation(nil); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPopulationSelectIsUniform(t *testing.T) {
	cells := founders(t, cell.NewSource(), 4)
	pop, err := NewPopulation(cells)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	rng := rand.New(rand.NewSource(42))
	counts := map[uint64]int{}
	const draws = 1000000
	for i := 0; i < draws; i++ {
		counts[pop.Select(rng).ID()]++
	}
	for _, c := range cells {
		freq := float64(counts[c.ID()]) / draws
		if math.Abs(freq-0.25) > 0.001 {
			t.Fatalf("cell %s frequency %v", c, freq)
		}
	}
}

func TestPopulationReplace(t *testing.T) {
	src := cell.NewSource()
	cells := founders(t, src, 4)
	pop, err := NewPopulation(cells)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		victim := pop.Select(rng)
		daughter, err := src.Daughter(pop.Select(rng), rng)
		if err != nil {
			t.Fatalf("daughter: %v", err)
		}
		if _, err := pop.Replace(victim, daughter); err != nil {
			t.Fatalf("replace: %v", err)
		}
		if pop.Size() != 4 {
			t.Fatalf("size changed to %d", pop.Size())
		}
		if pop.Contains(victim) || !pop.Contains(daughter) {
			t.Fatal("replace did not update membership")
		}
	}

	current := pop.List()
	if _, err := pop.Replace(current[0], current[1]); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error for present replacement, got %v", err)
	}
	outsider := founders(t, src, 1)[0]
	if _, err := pop.Replace(outsider, founders(t, src, 1)[0]); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error for absent cell, got %v", err)
	}
}

func TestPointNeighbors(t *testing.T) {
	cells := founders(t, cell.NewSource(), 4)
	s, err := NewPoint(cells)
	if err != nil {
		t.Fatalf("point: %v", err)
	}
	assertNeighbors(t, s, cells[0], cells[1], cells[2], cells[3])
	assertNeighbors(t, s, cells[2], cells[0], cells[1], cells[3])
	loc, ok := s.Locate(cells[1])
	if !ok || loc != coord.Origin {
		t.Fatalf("locate = %v %v", loc, ok)
	}
	if _, ok := s.CellAt(coord.Origin); ok {
		t.Fatal("origin must not resolve to a unique cell")
	}
}

func TestLinearNeighbors(t *testing.T) {
	cells := founders(t, cell.NewSource(), 4)
	wall, err := NewLinear(cells, false)
	if err != nil {
		t.Fatalf("linear: %v", err)
	}
	assertNeighbors(t, wall, cells[0], cells[1])
	assertNeighbors(t, wall, cells[1], cells[0], cells[2])
	assertNeighbors(t, wall, cells[3], cells[2])

	ring, err := NewLinear(cells, true)
	if err != nil {
		t.Fatalf("linear: %v", err)
	}
	assertNeighbors(t, ring, cells[0], cells[3], cells[1])
	assertNeighbors(t, ring, cells[3], cells[2], cells[0])

	if got, ok := ring.CellAt(coord.Of(2)); !ok || got != cells[2] {
		t.Fatalf("cell at 2 = %v %v", got, ok)
	}
	if ring.ContainsCoord(coord.Of(4)) || !ring.ContainsCoord(coord.Of(0)) {
		t.Fatal("unexpected coordinate membership")
	}
	if _, err := NewLinear(cells[:2], true); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReplaceKeepsLocation(t *testing.T) {
	src := cell.NewSource()
	cells := founders(t, src, 5)
	s, err := NewLinear(cells, false)
	if err != nil {
		t.Fatalf("linear: %v", err)
	}
	daughter, err := src.Daughter(cells[0], rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("daughter: %v", err)
	}
	if err := s.Replace(cells[2], daughter); err != nil {
		t.Fatalf("replace: %v", err)
	}
	loc, ok := s.Locate(daughter)
	if !ok || loc != coord.Of(2) {
		t.Fatalf("daughter located at %v %v", loc, ok)
	}
	if _, ok := s.Locate(cells[2]); ok {
		t.Fatal("victim still located")
	}
	assertNeighbors(t, s, cells[1], cells[0], daughter)
	if _, err := s.Neighbors(cells[2]); !errors.Is(err, simerr.ErrState) {
		t.Fatalf("expected state error, got %v", err)
	}
}

func TestLatticeSpace(t *testing.T) {
	l, err := lattice.New(lattice.Square, 3, 4)
	if err != nil {
		t.Fatalf("lattice: %v", err)
	}
	src := cell.NewSource()
	s, err := FillLattice(l, func(coord.Coord) (*cell.Cell, error) {
		return src.Founder(cell.Scalar(1))
	})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if s.Size() != 12 || s.Kind() != KindLattice {
		t.Fatalf("unexpected space %d %s", s.Size(), s.Kind())
	}
	center, ok := s.CellAt(coord.Of(1, 1))
	if !ok {
		t.Fatal("missing center cell")
	}
	ns, err := s.Neighbors(center)
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	want := []coord.Coord{coord.Of(0, 1), coord.Of(2, 1), coord.Of(1, 0), coord.Of(1, 2)}
	for i, n := range ns {
		loc, _ := s.Locate(n)
		if loc != want[i] {
			t.Fatalf("neighbor %d at %s, want %s", i, loc, want[i])
		}
	}

	partial := lattice.NewOccupancy[*cell.Cell](l)
	c, _ := src.Founder(cell.Scalar(1))
	if err := partial.Place(coord.Of(0, 0), c); err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := NewLattice(partial); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error for vacancies, got %v", err)
	}

	dup := lattice.NewOccupancy[*cell.Cell](l)
	if err := dup.Fill(func(coord.Coord) (*cell.Cell, error) { return c, nil }); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if _, err := NewLattice(dup); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error for duplicates, got %v", err)
	}
}
