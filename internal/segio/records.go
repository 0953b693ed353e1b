// Package segio reads segment definitions, copy-number alteration rates and
// fitness matrices from comma separated text files.
package segio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"moransim/internal/simerr"
)

type record struct {
	line   int
	fields []string
}

// readRecords returns the non-blank, non-comment rows of r with trimmed fields.
func readRecords(r io.Reader) ([]record, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, simerr.Validationf("parse: %v", err)
		}
		line, _ := reader.FieldPos(0)
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) == 1 && fields[0] == "" {
			continue
		}
		out = append(out, record{line: line, fields: fields})
	}
}

func (r record) errorf(format string, args ...any) error {
	return simerr.Validationf("line %d: %s", r.line, fmt.Sprintf(format, args...))
}

func (r record) float(i int) (float64, error) {
	v, err := strconv.ParseFloat(r.fields[i], 64)
	if err != nil {
		return 0, r.errorf("invalid number %q", r.fields[i])
	}
	return v, nil
}

func (r record) int(i int) (int, error) {
	v, err := strconv.Atoi(r.fields[i])
	if err != nil {
		return 0, r.errorf("invalid integer %q", r.fields[i])
	}
	return v, nil
}

func withFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer file.Close()

	out, err := read(file)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
