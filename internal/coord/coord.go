// Package coord defines the integer locations used by spatial populations.
package coord

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxDim is the largest supported dimensionality.
const MaxDim = 3

// Coord is an integer tuple of fixed dimensionality. It is comparable and
// may be used as a map key; equality is component-wise.
type Coord struct {
	dim int
	x   [MaxDim]int
}

// Origin is the zero-dimensional location shared by every cell of an
// unstructured population.
var Origin = Coord{}

func New(components ...int) (Coord, error) {
	if len(components) > MaxDim {
		return Coord{}, fmt.Errorf("coordinate dimension %d exceeds %d", len(components), MaxDim)
	}
	c := Coord{dim: len(components)}
	copy(c.x[:], components)
	return c, nil
}

// Of panics on more than MaxDim components.
func Of(components ...int) Coord {
	c, err := New(components...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Coord) Dim() int {
	return c.dim
}

func (c Coord) At(i int) int {
	return c.x[i]
}

func (c Coord) Equal(other Coord) bool {
	return c == other
}

// Header names the coordinate columns of a report row.
func (c Coord) Header() string {
	return strings.Join([]string{"x", "y", "z"}[:c.dim], ",")
}

// Format renders the components as comma separated report fields.
func (c Coord) Format() string {
	parts := make([]string, c.dim)
	for i := 0; i < c.dim; i++ {
		parts[i] = strconv.Itoa(c.x[i])
	}
	return strings.Join(parts, ",")
}

func (c Coord) String() string {
	return "(" + c.Format() + ")"
}
