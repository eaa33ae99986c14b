package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestChangeGate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newMemory(time.Now)
	gate := &changeGate{store: s, key: TreeSortOrderKey(AreaKind), kind: AreaKind}

	open, err := gate.open(ctx)
	require.NoError(t, err)
	assert.False(t, open, "empty kinds have nothing to process")

	n := create(t, s, AreaKind, 0, 0)

	open, err = gate.open(ctx)
	require.NoError(t, err)
	assert.True(t, open, "never processed")
	assert.True(t, gate.start.Equal(n.Updated))

	require.NoError(t, gate.close(ctx, gate.start))
	processed, err := s.GateTime(ctx, gate.key)
	require.NoError(t, err)
	assert.True(t, processed.Equal(n.Updated))

	open, err = gate.open(ctx)
	require.NoError(t, err)
	assert.False(t, open)

	// Writes to another kind don't open this gate.
	create(t, s, CategoryKind, 0, 0)
	open, err = gate.open(ctx)
	require.NoError(t, err)
	assert.False(t, open)

	require.NoError(t, s.Save(ctx, n))
	open, err = gate.open(ctx)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestChangeGateErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := gomock.NewController(t)
	store := NewMockStore(c)
	gate := &changeGate{store: store, key: "k", kind: AreaKind}
	boom := errors.New("boom")

	store.EXPECT().GateTime(gomock.Any(), "k").Return(time.Time{}, boom)
	_, err := gate.open(ctx)
	assert.ErrorIs(t, err, boom)

	store.EXPECT().SetGateTime(gomock.Any(), "k", gomock.Any()).Return(boom)
	err = gate.close(ctx, time.Now())
	assert.ErrorIs(t, err, boom)
}
