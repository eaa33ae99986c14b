package internal

import (
	"context"
	"fmt"
	"time"
)

// linearize numbers every node 1..N in pre-order, siblings in sibling order,
// and returns the nodes whose number must be persisted.
//
// A node is queued when its number changed. Once a node is queued its whole
// subtree is queued as well, even where the numbers happen to line up, so a
// shifted subtree is always rewritten consistently.
func linearize(f *forest) []Node {
	updated := []Node{}
	counter := 0

	var rec func(ids []int64, ancestorUpdated bool)
	rec = func(ids []int64, ancestorUpdated bool) {
		for _, id := range ids {
			n, _ := f.get(id)
			counter++
			changed := ancestorUpdated
			if n.TreeSortOrder != counter {
				n.TreeSortOrder = counter
				changed = true
			}
			if changed {
				updated = append(updated, *n)
			}
			rec(f.childrenOf(id), changed)
		}
	}
	rec(f.roots(), false)

	return updated
}

// recomputeTreeSortOrder re-linearizes a kind if the change-gate under
// gateKey says something changed since the last pass. Returns true if any
// node was written.
//
// The gate is closed at the kind's last modification from before the pass.
// The pass's own writes would then re-open it, so once they are done the
// forest is read again and, if it's still linearized, the gate moves past
// them. Writes from other processes which landed mid-pass keep it open.
func recomputeTreeSortOrder(ctx context.Context, store Store, kind Kind, gateKey string) (bool, error) {
	gate := &changeGate{store: store, key: gateKey, kind: kind}

	open, err := gate.open(ctx)
	if err != nil {
		return false, err
	}
	if !open {
		_linearizeSkipped.WithLabelValues(string(kind)).Inc()
		Log(ctx).Debug("tree sort order is current", "kind", kind, "key", gateKey)
		return false, nil
	}

	nodes, err := store.Nodes(ctx, kind, All())
	if err != nil {
		return false, fmt.Errorf("loading %s nodes: %w", kind, err)
	}

	processed := gate.start
	updated := linearize(newForest(nodes))
	if len(updated) > 0 {
		if err := store.Save(ctx, updated...); err != nil {
			return false, fmt.Errorf("saving tree sort order: %w", err)
		}
		_nodesWritten.WithLabelValues(string(kind), "linearize").Add(float64(len(updated)))

		if processed, err = settled(ctx, store, kind, gate.start); err != nil {
			return true, err
		}
	}

	if err := gate.close(ctx, processed); err != nil {
		return len(updated) > 0, err
	}

	Log(ctx).Debug("recomputed tree sort order", "kind", kind, "nodes", len(nodes), "updated", len(updated))
	return len(updated) > 0, nil
}

// settled returns the kind's current last modification if the forest is
// fully linearized as of that time, or fallback if something re-ordered it
// since it was loaded.
func settled(ctx context.Context, store Store, kind Kind, fallback time.Time) (time.Time, error) {
	// Read the stamp first: every write at or before it is visible below.
	last, err := store.LastUpdated(ctx, kind)
	if err != nil {
		return fallback, fmt.Errorf("reading last update: %w", err)
	}
	nodes, err := store.Nodes(ctx, kind, All())
	if err != nil {
		return fallback, fmt.Errorf("reloading %s nodes: %w", kind, err)
	}
	if stale := linearize(newForest(nodes)); len(stale) > 0 {
		Log(ctx).Info("tree changed during linearization, keeping gate open", "kind", kind, "stale", len(stale))
		return fallback, nil
	}
	return last, nil
}
