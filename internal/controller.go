package internal

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap/buffer"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// _buffers reduces GC.
var _buffers = buffer.NewPool()

var _stripTags = bluemonday.StrictPolicy()

// Controller is the entry point for every tree operation. It serializes
// mutations per kind, keeps the read cache coherent and schedules background
// linearization.
//
// Mutations (moves, sort order changes, lineage passes) run synchronously
// under a per-kind lock so two admins re-ordering the same parent can't race
// each other's repair pass. Re-linearization is comparatively expensive, so
// mutations only mark their kind dirty and Run picks it up in the background,
// batching many moves into one pass.
type Controller struct {
	store Store
	cache *readCache
	group singleflight.Group // Coalesce concurrent linearization passes.

	// Populated once at construction and only read afterwards.
	locks map[Kind]*sync.Mutex
	gens  map[Kind]*atomic.Int64 // Read cache generation per kind.
	dirty map[Kind]*atomic.Bool  // Kinds awaiting linearization.

	notify   chan struct{} // Wakes Run when a kind becomes dirty.
	done     chan struct{}
	stopped  chan struct{}
	shutdown sync.Once
}

// NewController creates a new controller over the given store.
func NewController(store Store) (*Controller, error) {
	if store == nil {
		return nil, errors.New("missing store")
	}
	c := &Controller{
		store:   store,
		cache:   newReadCache(),
		locks:   map[Kind]*sync.Mutex{},
		gens:    map[Kind]*atomic.Int64{},
		dirty:   map[Kind]*atomic.Bool{},
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, k := range Kinds {
		c.locks[k] = &sync.Mutex{}
		c.gens[k] = &atomic.Int64{}
		c.dirty[k] = &atomic.Bool{}
	}
	return c, nil
}

// lock acquires the kind's mutation lock, rejecting unknown kinds.
func (c *Controller) lock(kind Kind) (unlock func(), err error) {
	mu, ok := c.locks[kind]
	if !ok {
		return nil, errors.Join(fmt.Errorf("unknown kind %q", kind), errBadRequest)
	}
	mu.Lock()
	return mu.Unlock, nil
}

// invalidate retires every cached read for the kind.
func (c *Controller) invalidate(kind Kind) {
	c.gens[kind].Add(1)
}

// markDirty invalidates reads and schedules a linearization pass.
func (c *Controller) markDirty(kind Kind) {
	c.invalidate(kind)
	c.dirty[kind].Store(true)
	select {
	case c.notify <- struct{}{}:
	default: // Run is already awake.
	}
}

// MoveEntity re-parents a node, or makes it a root if parentID is zero.
func (c *Controller) MoveEntity(ctx context.Context, kind Kind, id int64, parentID int64) (bool, error) {
	unlock, err := c.lock(kind)
	if err != nil {
		return false, err
	}
	defer unlock()

	changed, err := moveEntity(ctx, c.store, kind, id, parentID)
	observe(kind, "move", changed, err)
	if changed {
		c.markDirty(kind)
	}
	return changed, err
}

// ChangeSortOrder moves a node one slot up or down among its siblings.
func (c *Controller) ChangeSortOrder(ctx context.Context, kind Kind, id int64, moveUp bool) (bool, error) {
	unlock, err := c.lock(kind)
	if err != nil {
		return false, err
	}
	defer unlock()

	moved, repaired, err := changeSortOrder(ctx, c.store, kind, id, moveUp)
	observe(kind, "sort", moved, err)
	// A repair may have written siblings even if the node didn't move.
	if moved || repaired {
		c.markDirty(kind)
	}
	return moved, err
}

// UpdateLineages recomputes every lineage of the kind.
func (c *Controller) UpdateLineages(ctx context.Context, kind Kind) (bool, error) {
	unlock, err := c.lock(kind)
	if err != nil {
		return false, err
	}
	defer unlock()

	n, err := updateLineages(ctx, c.store, kind)
	observe(kind, "lineage", n > 0, err)
	if n > 0 {
		c.markDirty(kind)
	}
	return n > 0, err
}

// RecomputeTreeSortOrder re-linearizes the kind if anything changed since
// the pass recorded under gateKey. Concurrent calls for the same kind and key
// share one pass.
func (c *Controller) RecomputeTreeSortOrder(ctx context.Context, kind Kind, gateKey string) (bool, error) {
	if gateKey == "" {
		gateKey = TreeSortOrderKey(kind)
	}
	out, err, _ := c.group.Do(string(kind)+"|"+gateKey, func() (any, error) {
		unlock, err := c.lock(kind)
		if err != nil {
			return false, err
		}
		defer unlock()

		start := time.Now()
		changed, err := recomputeTreeSortOrder(ctx, c.store, kind, gateKey)
		_linearizeDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
		observe(kind, "linearize", changed, err)
		if changed {
			c.invalidate(kind)
		}
		return changed, err
	})
	return out.(bool), err
}

// Create adds a node as the last child of parentID, or as the last root if
// parentID is zero.
func (c *Controller) Create(ctx context.Context, kind Kind, name string, parentID int64) (Node, error) {
	unlock, err := c.lock(kind)
	if err != nil {
		return Node{}, err
	}
	defer unlock()

	name, err = cleanName(name)
	if err != nil {
		observe(kind, "create", false, err)
		return Node{}, err
	}
	n, err := c.create(ctx, kind, name, parentID, nil)
	observe(kind, "create", err == nil, err)
	if err == nil {
		c.markDirty(kind)
	}
	return n, err
}

// create persists a node with its lineage. If key is nil the node is placed
// after its existing siblings. name must already be clean. Callers must hold
// the kind's lock.
func (c *Controller) create(ctx context.Context, kind Kind, name string, parentID int64, key *float64) (Node, error) {
	var err error
	parentLineage := ""
	if parentID != 0 {
		parent, err := c.store.Node(ctx, kind, parentID)
		if err != nil {
			return Node{}, fmt.Errorf("loading parent: %w", err)
		}
		parentLineage = parent.Lineage
	}

	n := Node{Kind: kind, ParentID: parentID, Name: name, Active: true}
	if key != nil {
		n.SiblingSortOrder = *key
	} else if n.SiblingSortOrder, err = lastSortOrder(ctx, c.store, kind, parentID, 0); err != nil {
		return Node{}, err
	}

	n, err = c.store.Create(ctx, n)
	if err != nil {
		return Node{}, err
	}

	// The lineage needs the assigned ID.
	if !updateLineage(&n, parentLineage) {
		return n, nil
	}
	if err := c.store.Save(ctx, n); err != nil {
		return Node{}, fmt.Errorf("saving lineage: %w", err)
	}
	return c.store.Node(ctx, kind, n.ID)
}

// cleanName strips markup from a display name.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(html.UnescapeString(_stripTags.Sanitize(name)))
	if name == "" {
		return "", errors.Join(fmt.Errorf("name is required"), errBadRequest)
	}
	return name, nil
}

// Get returns a serialized node.
func (c *Controller) Get(ctx context.Context, kind Kind, id int64) ([]byte, error) {
	return c.cached(ctx, kind, func(gen int64) string { return NodeKey(kind, gen, id) }, func() (any, error) {
		return c.store.Node(ctx, kind, id)
	})
}

// Children returns a node's serialized children in sibling order. Zero lists
// the roots.
func (c *Controller) Children(ctx context.Context, kind Kind, id int64) ([]byte, error) {
	return c.cached(ctx, kind, func(gen int64) string { return ChildrenKey(kind, gen, id) }, func() (any, error) {
		if id != 0 {
			if _, err := c.store.Node(ctx, kind, id); err != nil {
				return nil, err
			}
		}
		children, err := c.store.Nodes(ctx, kind, ChildrenOf(id))
		if err != nil {
			return nil, err
		}
		slices.SortFunc(children, compareSiblings)
		return children, nil
	})
}

// Subtree returns a node's serialized descendants ordered by tree sort order.
// The order reflects the most recent linearization pass.
func (c *Controller) Subtree(ctx context.Context, kind Kind, id int64) ([]byte, error) {
	return c.cached(ctx, kind, func(gen int64) string { return SubtreeKey(kind, gen, id) }, func() (any, error) {
		root, err := c.store.Node(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		nodes, err := c.store.Nodes(ctx, kind, All())
		if err != nil {
			return nil, err
		}
		nodes = slices.DeleteFunc(nodes, func(n Node) bool { return !n.IsDescendantOf(root) })
		slices.SortFunc(nodes, compareTreeOrder)
		return nodes, nil
	})
}

// Forest returns every serialized node of the kind ordered by tree sort
// order.
func (c *Controller) Forest(ctx context.Context, kind Kind) ([]byte, error) {
	return c.cached(ctx, kind, func(gen int64) string { return ForestKey(kind, gen) }, func() (any, error) {
		nodes, err := c.store.Nodes(ctx, kind, All())
		if err != nil {
			return nil, err
		}
		slices.SortFunc(nodes, compareTreeOrder)
		return nodes, nil
	})
}

func compareTreeOrder(l, r Node) int {
	if c := cmp.Compare(l.TreeSortOrder, r.TreeSortOrder); c != 0 {
		return c
	}
	return cmp.Compare(l.ID, r.ID)
}

// cached serves a read from the cache or loads, serializes and caches it.
func (c *Controller) cached(ctx context.Context, kind Kind, key func(gen int64) string, load func() (any, error)) ([]byte, error) {
	gen, ok := c.gens[kind]
	if !ok {
		return nil, errors.Join(fmt.Errorf("unknown kind %q", kind), errBadRequest)
	}
	k := key(gen.Load())
	if out, ok := c.cache.Get(ctx, k); ok {
		return out, nil
	}

	v, err := load()
	if err != nil {
		return nil, err
	}

	buf := _buffers.Get()
	defer buf.Free()
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}

	// We can't persist the shared buffer in the cache so clone it.
	out := bytes.Clone(buf.Bytes())
	c.cache.Set(ctx, k, out)
	return out, nil
}

// Run linearizes dirty kinds in the background, at most once per interval.
// Every kind is also re-checked each interval so changes made by other
// processes (e.g. the CLI) are picked up; the change-gate keeps that cheap.
// Run returns after Shutdown is called or the context is done.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	defer close(c.stopped)

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			// One last pass so nothing is left stale.
			c.linearizeDirty(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			for _, k := range Kinds {
				c.dirty[k].Store(true)
			}
			c.cache.logStats(ctx)
		case <-c.notify:
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}
		c.linearizeDirty(ctx)
	}
}

// linearizeDirty runs a pass for every dirty kind, a couple at a time.
func (c *Controller) linearizeDirty(ctx context.Context) {
	g := errgroup.Group{}
	g.SetLimit(2)

	for _, kind := range Kinds {
		if !c.dirty[kind].Swap(false) {
			continue
		}
		g.Go(func() error {
			ctx := context.WithValue(ctx, middleware.RequestIDKey, "linearize-"+uuid.NewString())

			defer func() {
				if r := recover(); r != nil {
					Log(ctx).Error("panic", "details", r)
				}
			}()

			_, err := c.RecomputeTreeSortOrder(ctx, kind, TreeSortOrderKey(kind))
			if err != nil {
				Log(ctx).Warn("problem recomputing tree sort order", "kind", kind, "err", err)
				c.dirty[kind].Store(true) // Try again next time.
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Shutdown stops Run after a final pass and waits for it to return, or for
// the context to expire.
func (c *Controller) Shutdown(ctx context.Context) {
	c.shutdown.Do(func() { close(c.done) })
	select {
	case <-c.stopped:
	case <-ctx.Done():
	}
}

// Close releases the read cache. The store is owned by the caller.
func (c *Controller) Close() {
	c.cache.Close()
}
