package ref

import (
	"context"
	"errors"
	"testing"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	entityID := id.New()
	r := New(KindDocument, entityID)

	parsed, err := Parse(r.String())
	require.NoError(t, err)
	assert.Equal(t, r, parsed)
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{
		"",
		"document",
		"document:",
		"document:not-a-uuid",
		"spaceship:" + id.New().String(),
	} {
		_, err := Parse(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestScanValue(t *testing.T) {
	r := New(KindProduct, id.New())

	v, err := r.Value()
	require.NoError(t, err)

	var got Ref
	require.NoError(t, got.Scan(v))
	assert.Equal(t, r, got)
}

func TestRegistryResolve(t *testing.T) {
	ctx := context.Background()
	known := id.New()

	registry := NewRegistry()
	registry.Register(KindDocument, ResolverFunc(func(ctx context.Context, entityID id.ID) (bool, error) {
		return entityID == known, nil
	}))

	require.NoError(t, registry.Resolve(ctx, New(KindDocument, known)))

	err := registry.Resolve(ctx, New(KindDocument, id.New()))
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	// No resolver for the kind is a wiring bug, not a missing entity.
	err = registry.Resolve(ctx, New(KindSupplier, known))
	require.Error(t, err)
	assert.False(t, apperror.IsNotFound(err))
}

func TestRegistryResolvePropagatesErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("resolver down")

	registry := NewRegistry()
	registry.Register(KindProduct, ResolverFunc(func(ctx context.Context, entityID id.ID) (bool, error) {
		return false, boom
	}))

	err := registry.Resolve(ctx, New(KindProduct, id.New()))
	assert.ErrorIs(t, err, boom)
}
