// Package lattice provides periodic lattice geometries with fixed
// coordination numbers and an occupancy table for filling them.
package lattice

import (
	"fmt"
	"strconv"
	"strings"

	"moransim/internal/coord"
	"moransim/internal/simerr"
)

type Kind int

const (
	Square Kind = iota
	Hexagonal
	SimpleCubic
)

func (k Kind) String() string {
	switch k {
	case Square:
		return "SQUARE"
	case Hexagonal:
		return "HEXAGONAL"
	case SimpleCubic:
		return "SIMPLE_CUBIC"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SQUARE":
		return Square, nil
	case "HEXAGONAL", "HEX":
		return Hexagonal, nil
	case "SIMPLE_CUBIC", "CUBIC":
		return SimpleCubic, nil
	default:
		return 0, simerr.Validationf("unknown lattice type %q", s)
	}
}

// Offsets are listed in a fixed order so neighbor lists are reproducible.
var offsets = map[Kind][][]int{
	Square:      {{-1, 0}, {1, 0}, {0, -1}, {0, 1}},
	Hexagonal:   {{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {1, -1}, {-1, 1}},
	SimpleCubic: {{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}},
}

// Lattice is an immutable periodic lattice. Sites are numbered densely in
// row-major order and each site's neighbor list is computed once.
type Lattice struct {
	kind      Kind
	dims      []int
	neighbors [][]int
}

func New(kind Kind, dims ...int) (*Lattice, error) {
	offs, ok := offsets[kind]
	if !ok {
		return nil, simerr.Validationf("unknown lattice type %v", kind)
	}
	if len(dims) != len(offs[0]) {
		return nil, simerr.Validationf("%s lattice requires %d dimensions, got %d", kind, len(offs[0]), len(dims))
	}
	size := 1
	for _, d := range dims {
		if d < 3 {
			return nil, simerr.Validationf("%s lattice dimensions must be >= 3, got %v", kind, dims)
		}
		size *= d
	}

	l := &Lattice{kind: kind, dims: append([]int(nil), dims...), neighbors: make([][]int, size)}
	buf := make([]int, len(dims))
	for site := 0; site < size; site++ {
		origin := l.components(site)
		list := make([]int, 0, len(offs))
		for _, off := range offs {
			for i := range buf {
				buf[i] = ((origin[i]+off[i])%dims[i] + dims[i]) % dims[i]
			}
			list = append(list, l.siteOf(buf))
		}
		l.neighbors[site] = list
	}
	return l, nil
}

// Parse reads "TYPE; d1, d2[, d3]" with an optional positive spacing field
// between type and dimensions, as in "SQUARE; 1.0; 10, 10".
func Parse(spec string) (*Lattice, error) {
	parts := strings.Split(spec, ";")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, simerr.Validationf("invalid lattice specification %q", spec)
	}
	kind, err := ParseKind(parts[0])
	if err != nil {
		return nil, err
	}
	if len(parts) == 3 {
		spacing, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || spacing <= 0 {
			return nil, simerr.Validationf("invalid lattice spacing %q", parts[1])
		}
	}
	fields := strings.Split(parts[len(parts)-1], ",")
	dims := make([]int, 0, len(fields))
	for _, field := range fields {
		d, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, simerr.Validationf("invalid lattice dimension %q", field)
		}
		dims = append(dims, d)
	}
	return New(kind, dims...)
}

func (l *Lattice) Kind() Kind {
	return l.kind
}

func (l *Lattice) Dims() []int {
	return append([]int(nil), l.dims...)
}

func (l *Lattice) Size() int {
	return len(l.neighbors)
}

func (l *Lattice) CoordinationNumber() int {
	return len(offsets[l.kind])
}

// Neighbors returns the sites adjacent to site. Callers must not modify the result.
func (l *Lattice) Neighbors(site int) []int {
	return l.neighbors[site]
}

func (l *Lattice) Coord(site int) coord.Coord {
	return coord.Of(l.components(site)...)
}

// Site maps an in-range coordinate to its site number.
func (l *Lattice) Site(c coord.Coord) (int, bool) {
	if c.Dim() != len(l.dims) {
		return 0, false
	}
	comps := make([]int, c.Dim())
	for i := range comps {
		comps[i] = c.At(i)
		if comps[i] < 0 || comps[i] >= l.dims[i] {
			return 0, false
		}
	}
	return l.siteOf(comps), true
}

func (l *Lattice) components(site int) []int {
	comps := make([]int, len(l.dims))
	for i := len(l.dims) - 1; i >= 0; i-- {
		comps[i] = site % l.dims[i]
		site /= l.dims[i]
	}
	return comps
}

func (l *Lattice) siteOf(comps []int) int {
	site := 0
	for i, c := range comps {
		site = site*l.dims[i] + c
	}
	return site
}
