package internal

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
)

// readCache holds serialized query results (single nodes, child listings,
// subtrees). Keys embed a per-kind generation which the controller bumps on
// every mutation, so stale entries are never read again and simply age out.
type readCache struct {
	hits   atomic.Int64
	misses atomic.Int64

	r *ristretto.Cache[string, []byte]
}

// newReadCache sizes the cache to a quarter of the process memory limit.
func newReadCache() *readCache {
	r, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e6,                          // Track LRU for up to 1M keys.
		MaxCost:     debug.SetMemoryLimit(-1) / 4, // Use 25% of available memory.
		BufferItems: 64,                           // Number of keys per Get buffer.
	})
	if err != nil {
		panic(err)
	}
	return &readCache{r: r}
}

// Get returns a cached value, if it exists, and a boolean if a value was
// found.
func (c *readCache) Get(_ context.Context, key string) ([]byte, bool) {
	val, ok := c.r.Get(key)
	if !ok {
		_ = c.misses.Add(1)
		_cacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	_ = c.hits.Add(1)
	_cacheLookups.WithLabelValues("hit").Inc()
	return val, true
}

// Set caches a value. Empty values are ignored.
func (c *readCache) Set(ctx context.Context, key string, val []byte) {
	if len(val) == 0 {
		Log(ctx).Warn("refusing to set empty value", "key", key)
		return
	}
	c.r.Set(key, val, int64(len(val)))
}

// wait blocks until buffered writes are applied. Useful in tests.
func (c *readCache) wait() {
	c.r.Wait()
}

// logStats logs hit/miss counts.
func (c *readCache) logStats(ctx context.Context) {
	hits, misses := c.hits.Load(), c.misses.Load()
	if hits+misses == 0 {
		return
	}
	Log(ctx).LogAttrs(ctx, slog.LevelDebug, "cache stats",
		slog.Int64("hits", hits),
		slog.Int64("misses", misses),
		slog.Float64("ratio", float64(hits)/(float64(hits)+float64(misses))),
	)
}

func (c *readCache) Close() {
	c.r.Close()
}

// NodeKey returns a cache key for a single node.
func NodeKey(kind Kind, gen int64, id int64) string {
	return fmt.Sprintf("%s/%d/n%d", kind, gen, id)
}

// ChildrenKey returns a cache key for a node's children. Zero lists roots.
func ChildrenKey(kind Kind, gen int64, id int64) string {
	return fmt.Sprintf("%s/%d/c%d", kind, gen, id)
}

// SubtreeKey returns a cache key for a node's descendants.
func SubtreeKey(kind Kind, gen int64, id int64) string {
	return fmt.Sprintf("%s/%d/s%d", kind, gen, id)
}

// ForestKey returns a cache key for a whole kind.
func ForestKey(kind Kind, gen int64) string {
	return fmt.Sprintf("%s/%d/all", kind, gen)
}
