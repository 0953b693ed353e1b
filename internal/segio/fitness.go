package segio

import (
	"io"
	"strings"

	"moransim/internal/segment"
	"moransim/internal/simerr"
)

// ReadFitnessMatrix parses either an explicit matrix, introduced by a
// "Segment, 0, 1, ..., maxCN" header row, or a chained file of
// "segment, gain|loss, s" rows expanded with op.
func ReadFitnessMatrix(r io.Reader, registry *segment.Registry, maxCN int, op segment.ChainOperation) (*segment.FitnessMatrix, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, simerr.Validationf("fitness file is empty")
	}
	if strings.EqualFold(records[0].fields[0], "segment") {
		return readExplicit(records, registry, maxCN)
	}
	return readChained(records, registry, maxCN, op)
}

func readExplicit(records []record, registry *segment.Registry, maxCN int) (*segment.FitnessMatrix, error) {
	header := records[0]
	if len(header.fields) != maxCN+2 {
		return nil, header.errorf("expected %d header columns, got %d", maxCN+2, len(header.fields))
	}
	for col := 1; col < len(header.fields); col++ {
		cn, err := header.int(col)
		if err != nil {
			return nil, err
		}
		if cn != col-1 {
			return nil, header.errorf("header column %d must be copy number %d", col, col-1)
		}
	}

	m, err := segment.NewFitnessMatrix(registry, maxCN)
	if err != nil {
		return nil, err
	}
	for _, rec := range records[1:] {
		if len(rec.fields) != maxCN+2 {
			return nil, rec.errorf("expected %d columns, got %d", maxCN+2, len(rec.fields))
		}
		seg, err := registry.Require(rec.fields[0])
		if err != nil {
			return nil, rec.errorf("%v", err)
		}
		for col := 1; col < len(rec.fields); col++ {
			v, err := rec.float(col)
			if err != nil {
				return nil, err
			}
			if err := m.Set(seg, col-1, v); err != nil {
				return nil, rec.errorf("%v", err)
			}
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func readChained(records []record, registry *segment.Registry, maxCN int, op segment.ChainOperation) (*segment.FitnessMatrix, error) {
	links := make([]segment.ChainLink, 0, len(records))
	for _, rec := range records {
		if len(rec.fields) != 3 {
			return nil, rec.errorf("expected 3 fields, got %d", len(rec.fields))
		}
		seg, err := registry.Require(rec.fields[0])
		if err != nil {
			return nil, rec.errorf("%v", err)
		}
		event, err := segment.ParseEvent(rec.fields[1])
		if err != nil {
			return nil, rec.errorf("%v", err)
		}
		s, err := rec.float(2)
		if err != nil {
			return nil, err
		}
		links = append(links, segment.ChainLink{Segment: seg, Event: event, Selection: s})
	}
	return segment.NewChainedFitnessMatrix(registry, maxCN, op, links)
}

func LoadFitnessMatrix(path string, registry *segment.Registry, maxCN int, op segment.ChainOperation) (*segment.FitnessMatrix, error) {
	return withFile(path, func(r io.Reader) (*segment.FitnessMatrix, error) {
		return ReadFitnessMatrix(r, registry, maxCN, op)
	})
}
