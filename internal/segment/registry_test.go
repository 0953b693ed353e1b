package segment

import (
	"errors"
	"testing"

	"moransim/internal/simerr"
)

func TestRegistryOrdinalsAreDense(t *testing.T) {
	r := testRegistry(t)
	for i, seg := range r.List() {
		if seg.Ordinal != i {
			t.Fatalf("segment %s has ordinal %d, want %d", seg, seg.Ordinal, i)
		}
	}
	seg, err := r.Require("9q")
	if err != nil {
		t.Fatalf("require: %v", err)
	}
	if seg.Ordinal != 1 {
		t.Fatalf("unexpected ordinal %d", seg.Ordinal)
	}
	if r.At(0).Description != "chromosome 6 short arm" {
		t.Fatalf("unexpected description %q", r.At(0).Description)
	}
}

func TestRegistryRejectsDuplicatesAndUnknownKeys(t *testing.T) {
	if _, err := NewRegistry([]Definition{{Key: "1p"}, {Key: "1p"}}); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := NewRegistry(nil); !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err := testRegistry(t).Require("22q")
	if !errors.Is(err, ErrUnknownSegment) || !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("expected unknown segment validation error, got %v", err)
	}
}
