package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSequenceStore struct {
	next int64
	keys []string
}

func (s *stubSequenceStore) Next(ctx context.Context, key string) (int64, error) {
	s.keys = append(s.keys, key)
	s.next++
	return s.next, nil
}

func TestFormatReference(t *testing.T) {
	assert.Equal(t, "ELX-2026-000007", FormatReference(2026, 7))
	assert.Equal(t, "ELX-2025-123456", FormatReference(2025, 123456))
	// Sequences past six digits keep growing without truncation
	assert.Equal(t, "ELX-2026-1000000", FormatReference(2026, 1000000))
}

func TestReferenceGeneratorGenerate(t *testing.T) {
	store := &stubSequenceStore{}
	gen := NewReferenceGenerator(store, func(ctx context.Context, ref string) (bool, error) {
		return false, nil
	})

	ref, err := gen.Generate(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, "ELX-2026-000001", ref)

	// Counters are partitioned per year
	_, err = gen.Generate(context.Background(), 2027)
	require.NoError(t, err)
	assert.Equal(t, []string{"shipments-2026", "shipments-2027"}, store.keys)
}

func TestReferenceGeneratorRetriesOnCollision(t *testing.T) {
	store := &stubSequenceStore{}
	taken := map[string]bool{
		"ELX-2026-000001": true,
		"ELX-2026-000002": true,
	}
	gen := NewReferenceGenerator(store, func(ctx context.Context, ref string) (bool, error) {
		return taken[ref], nil
	})

	ref, err := gen.Generate(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, "ELX-2026-000003", ref)
}

func TestReferenceGeneratorGivesUpAfterMaxAttempts(t *testing.T) {
	store := &stubSequenceStore{}
	gen := NewReferenceGenerator(store, func(ctx context.Context, ref string) (bool, error) {
		return true, nil
	})

	_, err := gen.Generate(context.Background(), 2026)
	assert.ErrorIs(t, err, ErrReferenceCollision)
	assert.Len(t, store.keys, maxReferenceAttempts)
}
