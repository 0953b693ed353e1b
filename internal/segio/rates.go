package segio

import (
	"io"

	"moransim/internal/segment"
)

// RateMatrices is the parsed content of a rate file.
type RateMatrices struct {
	Gain *segment.RateMatrix
	Loss *segment.RateMatrix
}

// ReadRates parses rate lines of the form "segment, gain|loss, rate", which
// covers every non-absorbing copy number, or "segment, cn, gain|loss, rate"
// for a single copy number. Later lines override earlier ones.
func ReadRates(r io.Reader, registry *segment.Registry, maxCN int) (RateMatrices, error) {
	gain, err := segment.NewRateMatrix(segment.Gain, registry, maxCN)
	if err != nil {
		return RateMatrices{}, err
	}
	loss, err := segment.NewRateMatrix(segment.Loss, registry, maxCN)
	if err != nil {
		return RateMatrices{}, err
	}
	records, err := readRecords(r)
	if err != nil {
		return RateMatrices{}, err
	}

	for _, rec := range records {
		if len(rec.fields) != 3 && len(rec.fields) != 4 {
			return RateMatrices{}, rec.errorf("expected 3 or 4 fields, got %d", len(rec.fields))
		}
		seg, err := registry.Require(rec.fields[0])
		if err != nil {
			return RateMatrices{}, rec.errorf("%v", err)
		}
		kindField := 1
		cn := -1
		if len(rec.fields) == 4 {
			if cn, err = rec.int(1); err != nil {
				return RateMatrices{}, err
			}
			kindField = 2
		}
		kind, err := segment.ParseEvent(rec.fields[kindField])
		if err != nil {
			return RateMatrices{}, rec.errorf("%v", err)
		}
		rate, err := rec.float(len(rec.fields) - 1)
		if err != nil {
			return RateMatrices{}, err
		}

		target := gain
		if kind == segment.Loss {
			target = loss
		}
		if cn < 0 {
			err = target.SetSegment(seg, rate)
		} else {
			err = target.Set(seg, cn, rate)
		}
		if err != nil {
			return RateMatrices{}, rec.errorf("%v", err)
		}
	}
	return RateMatrices{Gain: gain, Loss: loss}, nil
}

func LoadRates(path string, registry *segment.Registry, maxCN int) (RateMatrices, error) {
	return withFile(path, func(r io.Reader) (RateMatrices, error) {
		return ReadRates(r, registry, maxCN)
	})
}
