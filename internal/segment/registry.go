// Package segment models genome segments, their copy-number genotypes and
// the copy-number alteration rates that mutate them.
package segment

import (
	"errors"
	"fmt"
	"strings"

	"moransim/internal/simerr"
)

var ErrUnknownSegment = errors.New("unknown genome segment")

// Segment is an immutable registered genome segment. Ordinal indexes rate
// and copy-number tables and is dense over the registry.
type Segment struct {
	Key         string
	Description string
	Ordinal     int
}

func (s Segment) String() string {
	return s.Key
}

// Definition is one parsed entry of a segment definition file.
type Definition struct {
	Key         string
	Description string
}

// Registry is the read-only, ordered set of segments for one model.
type Registry struct {
	segments []Segment
	byKey    map[string]int
}

func NewRegistry(defs []Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, simerr.Validationf("at least one genome segment is required")
	}
	r := &Registry{
		segments: make([]Segment, 0, len(defs)),
		byKey:    make(map[string]int, len(defs)),
	}
	for _, def := range defs {
		key := strings.TrimSpace(def.Key)
		if key == "" {
			return nil, simerr.Validationf("genome segment key is required")
		}
		if _, ok := r.byKey[key]; ok {
			return nil, simerr.Validationf("duplicate genome segment %q", key)
		}
		ordinal := len(r.segments)
		r.byKey[key] = ordinal
		r.segments = append(r.segments, Segment{
			Key:         key,
			Description: strings.TrimSpace(def.Description),
			Ordinal:     ordinal,
		})
	}
	return r, nil
}

func (r *Registry) Count() int {
	return len(r.segments)
}

func (r *Registry) List() []Segment {
	out := make([]Segment, len(r.segments))
	copy(out, r.segments)
	return out
}

func (r *Registry) At(ordinal int) Segment {
	return r.segments[ordinal]
}

func (r *Registry) Lookup(key string) (Segment, bool) {
	ordinal, ok := r.byKey[key]
	if !ok {
		return Segment{}, false
	}
	return r.segments[ordinal], true
}

// Require returns the named segment or a validation error.
func (r *Registry) Require(key string) (Segment, error) {
	seg, ok := r.Lookup(strings.TrimSpace(key))
	if !ok {
		return Segment{}, fmt.Errorf("%w: %w: %s", simerr.ErrValidation, ErrUnknownSegment, key)
	}
	return seg, nil
}

func (r *Registry) contains(seg Segment) bool {
	return seg.Ordinal >= 0 && seg.Ordinal < len(r.segments) && r.segments[seg.Ordinal].Key == seg.Key
}

// Keys returns segment keys in ordinal order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.segments))
	for i, seg := range r.segments {
		keys[i] = seg.Key
	}
	return keys
}
