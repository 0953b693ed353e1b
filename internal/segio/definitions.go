package segio

import (
	"io"

	"moransim/internal/segment"
)

// ReadDefinitions parses "key" or "key, description" lines. A missing
// description defaults to the key.
func ReadDefinitions(r io.Reader) ([]segment.Definition, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	defs := make([]segment.Definition, 0, len(records))
	for _, rec := range records {
		switch len(rec.fields) {
		case 1:
			defs = append(defs, segment.Definition{Key: rec.fields[0], Description: rec.fields[0]})
		case 2:
			defs = append(defs, segment.Definition{Key: rec.fields[0], Description: rec.fields[1]})
		default:
			return nil, rec.errorf("expected 1 or 2 fields, got %d", len(rec.fields))
		}
	}
	return defs, nil
}

func LoadRegistry(path string) (*segment.Registry, error) {
	defs, err := withFile(path, ReadDefinitions)
	if err != nil {
		return nil, err
	}
	return segment.NewRegistry(defs)
}
