package domain

import (
	"context"
	"errors"
	"fmt"
)

const (
	referencePrefix      = "ELX"
	maxReferenceAttempts = 5
)

var (
	// ErrReferenceCollision signals that a generated reference already
	// exists; generation retries with a fresh sequence number
	ErrReferenceCollision = errors.New("reference already exists")

	// ErrReferenceAssigned is returned when attempting to overwrite an
	// assigned booking reference
	ErrReferenceAssigned = errors.New("booking reference already assigned")
)

// SequenceStore hands out monotonically increasing sequence numbers for a
// named counter
type SequenceStore interface {
	Next(ctx context.Context, key string) (int64, error)
}

// ReferenceExistsFunc checks whether a booking reference is already taken
type ReferenceExistsFunc func(ctx context.Context, reference string) (bool, error)

// ReferenceGenerator produces unique booking references of the form
// ELX-<year>-<zero-padded sequence>
type ReferenceGenerator struct {
	sequences SequenceStore
	exists    ReferenceExistsFunc
}

// NewReferenceGenerator creates a reference generator backed by the given
// sequence store and existence check
func NewReferenceGenerator(sequences SequenceStore, exists ReferenceExistsFunc) *ReferenceGenerator {
	return &ReferenceGenerator{
		sequences: sequences,
		exists:    exists,
	}
}

// Generate allocates the next reference for the given year, retrying on
// collision with an already-issued reference
func (g *ReferenceGenerator) Generate(ctx context.Context, year int) (string, error) {
	var lastErr error

	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		seq, err := g.sequences.Next(ctx, fmt.Sprintf("shipments-%d", year))
		if err != nil {
			return "", fmt.Errorf("next sequence: %w", err)
		}

		reference := FormatReference(year, seq)

		taken, err := g.exists(ctx, reference)
		if err != nil {
			return "", fmt.Errorf("check reference: %w", err)
		}
		if !taken {
			return reference, nil
		}

		lastErr = fmt.Errorf("%w: %s", ErrReferenceCollision, reference)
	}

	return "", lastErr
}

// FormatReference renders a booking reference for a year and sequence number
func FormatReference(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", referencePrefix, year, seq)
}
