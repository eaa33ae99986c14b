package internal

import (
	"context"
	"fmt"
	"slices"
)

// _sortMargin is how far past the first/last sibling a node lands when it
// moves into the first/last slot.
const _sortMargin = 10.0

// siblings loads a node's siblings (including itself) in sibling order.
func siblings(ctx context.Context, store Store, n Node) ([]Node, error) {
	sibs, err := store.Nodes(ctx, n.Kind, ChildrenOf(n.ParentID))
	if err != nil {
		return nil, fmt.Errorf("loading siblings of %s %d: %w", n.Kind, n.ID, err)
	}
	slices.SortFunc(sibs, compareSiblings)
	return sibs, nil
}

// hasDuplicateKeys is true if any two (sorted) siblings share a key.
func hasDuplicateKeys(sorted []Node) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].SiblingSortOrder == sorted[i-1].SiblingSortOrder {
			return true
		}
	}
	return false
}

// renumber assigns every sorted sibling its rank as its key. It returns true
// if any key changed.
func renumber(sorted []Node) bool {
	changed := false
	for i := range sorted {
		if sorted[i].SiblingSortOrder != float64(i) {
			sorted[i].SiblingSortOrder = float64(i)
			changed = true
		}
	}
	return changed
}

// repairSortOrder renumbers and persists siblings 0, 1, 2, ... in their
// current order. It returns false, without writing, if nothing needed to
// change.
func repairSortOrder(ctx context.Context, store Store, sorted []Node) (bool, error) {
	if !renumber(sorted) {
		return false, nil
	}
	Log(ctx).Debug("repairing sibling sort order", "count", len(sorted))
	if err := store.Save(ctx, sorted...); err != nil {
		return false, err
	}
	_nodesWritten.WithLabelValues(string(sorted[0].Kind), "repair").Add(float64(len(sorted)))
	return true, nil
}

// nextSortOrder computes the key that moves sorted[idx] one slot up or down.
// ok is false if the node is already first (up) or last (down).
func nextSortOrder(sorted []Node, idx int, moveUp bool) (key float64, ok bool) {
	last := len(sorted) - 1
	switch {
	case moveUp && idx <= 0:
		return 0, false
	case moveUp && idx == 1:
		return sorted[0].SiblingSortOrder - _sortMargin, true
	case moveUp:
		return (sorted[idx-1].SiblingSortOrder + sorted[idx-2].SiblingSortOrder) / 2.0, true
	case idx >= last:
		return 0, false
	case idx == last-1:
		return sorted[last].SiblingSortOrder + _sortMargin, true
	default:
		return (sorted[idx+1].SiblingSortOrder + sorted[idx+2].SiblingSortOrder) / 2.0, true
	}
}

// fits is true if key lands strictly inside the slot the move targets. It
// can fail once repeated halving exhausts float precision between two keys.
func fits(sorted []Node, idx int, moveUp bool, key float64) bool {
	if moveUp {
		if key >= sorted[idx-1].SiblingSortOrder {
			return false
		}
		return idx < 2 || key > sorted[idx-2].SiblingSortOrder
	}
	if key <= sorted[idx+1].SiblingSortOrder {
		return false
	}
	return idx+2 >= len(sorted) || key < sorted[idx+2].SiblingSortOrder
}

// changeSortOrder moves a node one slot up or down among its siblings by
// giving it a new fractional key. Only the moved node is written, unless the
// siblings first need their keys repaired.
//
// moved is false if the node was already first (up) or last (down).
// repaired is true if sibling keys were rewritten, which can happen even
// when the node itself doesn't move.
func changeSortOrder(ctx context.Context, store Store, kind Kind, id int64, moveUp bool) (moved, repaired bool, err error) {
	n, err := store.Node(ctx, kind, id)
	if err != nil {
		return false, false, err
	}

	sorted, err := siblings(ctx, store, n)
	if err != nil {
		return false, false, err
	}

	if hasDuplicateKeys(sorted) {
		if repaired, err = repairSortOrder(ctx, store, sorted); err != nil {
			return false, false, fmt.Errorf("repairing sort order: %w", err)
		}
	}

	idx := slices.IndexFunc(sorted, func(s Node) bool { return s.ID == id })
	if idx < 0 {
		return false, repaired, notFound(kind, id)
	}

	key, ok := nextSortOrder(sorted, idx, moveUp)
	if !ok {
		return false, repaired, nil
	}

	if !fits(sorted, idx, moveUp, key) {
		// Adjacent keys are too close together; spread them out and retry.
		spread, err := repairSortOrder(ctx, store, sorted)
		if err != nil {
			return false, repaired, fmt.Errorf("repairing sort order: %w", err)
		}
		repaired = repaired || spread
		key, _ = nextSortOrder(sorted, idx, moveUp)
	}

	target := sorted[idx]
	target.SiblingSortOrder = key
	if err := store.Save(ctx, target); err != nil {
		return false, repaired, fmt.Errorf("saving %s %d: %w", kind, id, err)
	}

	Log(ctx).Debug("changed sort order", "kind", kind, "id", id, "moveUp", moveUp, "key", key)
	return true, repaired, nil
}
