package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newReadCache()
	t.Cleanup(c.Close)

	t.Run("miss", func(t *testing.T) {
		out, ok := c.Get(ctx, "missing")
		assert.False(t, ok)
		assert.Nil(t, out)
	})

	t.Run("set-get", func(t *testing.T) {
		val := []byte(`{"id":1}`)
		c.Set(ctx, NodeKey(AreaKind, 0, 1), val)
		c.wait()

		out, ok := c.Get(ctx, NodeKey(AreaKind, 0, 1))
		assert.True(t, ok)
		assert.Equal(t, val, out)

		_, ok = c.Get(ctx, NodeKey(AreaKind, 1, 1))
		assert.False(t, ok, "generations don't share entries")
	})

	t.Run("empty", func(t *testing.T) {
		c.Set(ctx, "empty", nil)
		c.wait()

		_, ok := c.Get(ctx, "empty")
		assert.False(t, ok)
	})

	assert.Positive(t, c.hits.Load())
	assert.Positive(t, c.misses.Load())
	c.logStats(ctx)
}

func TestCacheKeys(t *testing.T) {
	t.Parallel()

	keys := []string{
		NodeKey(AreaKind, 3, 7),
		ChildrenKey(AreaKind, 3, 7),
		SubtreeKey(AreaKind, 3, 7),
		ForestKey(AreaKind, 3),
		NodeKey(CategoryKind, 3, 7),
		NodeKey(AreaKind, 4, 7),
	}
	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %q", k)
		seen[k] = true
	}
	assert.Equal(t, "area/3/n7", keys[0])
}
