package segment

import "testing"

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry([]Definition{
		{Key: "6p", Description: "chromosome 6 short arm"},
		{Key: "9q"},
		{Key: "12p"},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func testModel(t *testing.T, gainRate, lossRate, wgd float64) *Model {
	t.Helper()
	r := testRegistry(t)
	gain, err := NewUniformRateMatrix(Gain, r, 8, gainRate)
	if err != nil {
		t.Fatalf("gain matrix: %v", err)
	}
	loss, err := NewUniformRateMatrix(Loss, r, 8, lossRate)
	if err != nil {
		t.Fatalf("loss matrix: %v", err)
	}
	rates, err := NewRateModel(gain, loss, wgd)
	if err != nil {
		t.Fatalf("rate model: %v", err)
	}
	links := make([]ChainLink, 0, 2*r.Count())
	for _, seg := range r.List() {
		links = append(links,
			ChainLink{Segment: seg, Event: Gain, Selection: 0.1},
			ChainLink{Segment: seg, Event: Loss, Selection: -0.2},
		)
	}
	fitness, err := NewChainedFitnessMatrix(r, 8, ChainMultiply, links)
	if err != nil {
		t.Fatalf("fitness matrix: %v", err)
	}
	m, err := NewModel(rates, fitness)
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	return m
}
