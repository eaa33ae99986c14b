package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	t.Parallel()
	testStore(t, newMemory(time.Now))
}

func TestMemoryFrozenClock(t *testing.T) {
	// Writes must still be ordered when the clock doesn't move.
	t.Parallel()

	ctx := context.Background()
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newMemory(func() time.Time { return frozen })

	a := create(t, s, AreaKind, 0, 0)
	b := create(t, s, AreaKind, 0, 10)
	assert.True(t, b.Updated.After(a.Updated))

	require.NoError(t, s.Save(ctx, a))
	last, err := s.LastUpdated(ctx, AreaKind)
	require.NoError(t, err)
	assert.True(t, last.After(b.Updated))
	assert.True(t, last.Equal(load(t, s, AreaKind, a.ID).Updated))
}
