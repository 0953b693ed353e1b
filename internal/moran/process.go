// Package moran implements the continuous-time Moran death/division cycle.
package moran

import (
	"fmt"
	"math/rand"

	"moransim/internal/cell"
	"moransim/internal/coord"
	"moransim/internal/simerr"
)

// Space is the population container the process drives.
type Space interface {
	Size() int
	Select(rng *rand.Rand) *cell.Cell
	Neighbors(c *cell.Cell) ([]*cell.Cell, error)
	Replace(oldCell, newCell *cell.Cell) error
	Locate(c *cell.Cell) (coord.Coord, bool)
	List() []*cell.Cell
}

// Process owns one trial's population and advances it one cycle at a time.
// It is not safe for concurrent use.
type Process struct {
	space  Space
	source *cell.Source
	rng    *rand.Rand

	timeClock   float64
	meanFitness float64
	cycles      uint64

	fitness []float64
}

func NewProcess(s Space, source *cell.Source, rng *rand.Rand) (*Process, error) {
	if s == nil {
		return nil, simerr.Validationf("space is required")
	}
	if source == nil {
		return nil, simerr.Validationf("cell source is required")
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	p := &Process{space: s, source: source, rng: rng}
	p.meanFitness = p.ComputeMeanFitness()
	return p, nil
}

// ExecuteCycle runs one death/division event: a uniformly chosen cell dies,
// the clock advances by Exp(mean neighbor fitness)/N, and a neighbor chosen
// in proportion to fitness divides into the vacated location.
func (p *Process) ExecuteCycle() error {
	victim := p.space.Select(p.rng)
	neighbors, err := p.space.Neighbors(victim)
	if err != nil {
		return err
	}
	if len(neighbors) == 0 {
		return simerr.Statef("cell %s has no neighbors", victim)
	}

	p.fitness = p.fitness[:0]
	total := 0.0
	for _, n := range neighbors {
		f := n.Fitness()
		p.fitness = append(p.fitness, f)
		total += f
	}
	if total <= 0 {
		return simerr.Statef("neighbors of %s have zero total fitness", victim)
	}

	rate := total / float64(len(neighbors))
	p.timeClock += p.rng.ExpFloat64() / rate / float64(p.space.Size())

	replicator := neighbors[p.pickProportional(total)]
	daughter, err := p.source.Daughter(replicator, p.rng)
	if err != nil {
		return err
	}
	if err := p.space.Replace(victim, daughter); err != nil {
		return fmt.Errorf("%w: replace %s: %v", simerr.ErrState, victim, err)
	}

	p.meanFitness += (daughter.Fitness() - victim.Fitness()) / float64(p.space.Size())
	p.cycles++
	return nil
}

func (p *Process) pickProportional(total float64) int {
	target := p.rng.Float64() * total
	acc := 0.0
	last := 0
	for i, f := range p.fitness {
		if f <= 0 {
			continue
		}
		acc += f
		last = i
		if target < acc {
			return i
		}
	}
	return last
}

// ExecuteStep runs N cycles, where N is the population size.
func (p *Process) ExecuteStep() error {
	for i := 0; i < p.space.Size(); i++ {
		if err := p.ExecuteCycle(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Process) TimeClock() float64 {
	return p.timeClock
}

// MeanFitness is maintained incrementally across cycles.
func (p *Process) MeanFitness() float64 {
	return p.meanFitness
}

func (p *Process) Cycles() uint64 {
	return p.cycles
}

func (p *Process) Space() Space {
	return p.space
}

// ComputeMeanFitness rescans the population.
func (p *Process) ComputeMeanFitness() float64 {
	cells := p.space.List()
	total := 0.0
	for _, c := range cells {
		total += c.Fitness()
	}
	return total / float64(len(cells))
}
