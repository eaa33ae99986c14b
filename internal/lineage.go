package internal

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// updateLineage recomputes a node's lineage from its parent's lineage and
// reports whether it changed. Roots pass an empty parent lineage.
func updateLineage(n *Node, parentLineage string) bool {
	lineage := lineageOf(n.ID, parentLineage)
	if n.Lineage == lineage {
		return false
	}
	n.Lineage = lineage
	return true
}

// collectLineages walks the forest pre-order so a parent's lineage is always
// recomputed before its children's, and returns every node whose lineage
// changed. Unchanged nodes are still descended into since their children may
// have drifted independently.
func collectLineages(ctx context.Context, f *forest) []Node {
	updated := []Node{}
	f.walk(func(n *Node, _ int) bool {
		parentLineage := ""
		if f.isOrphan(n) {
			Log(ctx).Warn("node parent is missing, treating as root", "kind", n.Kind, "id", n.ID, "parentID", n.ParentID)
		} else if parent, ok := f.get(n.ParentID); ok {
			parentLineage = parent.Lineage
		}
		if updateLineage(n, parentLineage) {
			updated = append(updated, *n)
		}
		return true
	})
	return updated
}

// updateLineages recomputes the lineage of every node of a kind and persists
// those which changed in bulk. Returns the number of nodes written.
func updateLineages(ctx context.Context, store Store, kind Kind) (int, error) {
	nodes, err := store.Nodes(ctx, kind, All())
	if err != nil {
		return 0, fmt.Errorf("loading %s nodes: %w", kind, err)
	}

	updated := collectLineages(ctx, newForest(nodes))
	if len(updated) == 0 {
		return 0, nil
	}

	if err := store.Save(ctx, updated...); err != nil {
		return 0, fmt.Errorf("saving lineages: %w", err)
	}
	_nodesWritten.WithLabelValues(string(kind), "lineage").Add(float64(len(updated)))
	Log(ctx).Debug("updated lineages", "kind", kind, "count", len(updated))
	return len(updated), nil
}

// checkAncestry rejects a move which would make a node its own ancestor by
// walking from the proposed parent up to its root.
func checkAncestry(ctx context.Context, store Store, n Node, parent Node) error {
	seen := map[int64]bool{}
	for cur := parent; ; {
		if cur.ID == n.ID {
			return errors.Join(fmt.Errorf("moving %s %d under %d", n.Kind, n.ID, parent.ID), errCycle)
		}
		if cur.IsRoot() {
			return nil
		}
		if seen[cur.ID] {
			// The stored tree is already cyclic above the target.
			return errors.Join(fmt.Errorf("%s %d has a cyclic ancestry", n.Kind, cur.ID), errCycle)
		}
		seen[cur.ID] = true

		next, err := store.Node(ctx, n.Kind, cur.ParentID)
		if errors.Is(err, errNotFound) {
			return nil // Orphaned ancestry can't contain n.
		}
		if err != nil {
			return err
		}
		cur = next
	}
}

// moveEntity re-parents a node, or makes it a root if newParentID is zero.
// The moved node is placed after its new siblings. Lineages of the whole kind
// are recomputed afterwards since every descendant of the moved node changes.
// Returns false if the node already has the requested parent.
func moveEntity(ctx context.Context, store Store, kind Kind, id int64, newParentID int64) (bool, error) {
	n, err := store.Node(ctx, kind, id)
	if err != nil {
		return false, err
	}
	if n.ParentID == newParentID {
		return false, nil
	}

	if newParentID != 0 {
		parent, err := store.Node(ctx, kind, newParentID)
		if err != nil {
			return false, fmt.Errorf("loading new parent: %w", err)
		}
		if err := checkAncestry(ctx, store, n, parent); err != nil {
			return false, err
		}
	}

	n.ParentID = newParentID
	n.SiblingSortOrder, err = lastSortOrder(ctx, store, kind, newParentID, id)
	if err != nil {
		return false, err
	}
	if err := store.Save(ctx, n); err != nil {
		return false, fmt.Errorf("saving %s %d: %w", kind, id, err)
	}

	if _, err := updateLineages(ctx, store, kind); err != nil {
		return true, err
	}

	Log(ctx).Debug("moved node", "kind", kind, "id", id, "parentID", newParentID)
	return true, nil
}

// lastSortOrder returns a key which sorts after every current child of
// parentID, ignoring the node being placed.
func lastSortOrder(ctx context.Context, store Store, kind Kind, parentID int64, ignore int64) (float64, error) {
	sibs, err := store.Nodes(ctx, kind, ChildrenOf(parentID))
	if err != nil {
		return 0, fmt.Errorf("loading siblings: %w", err)
	}
	sibs = slices.DeleteFunc(sibs, func(s Node) bool { return s.ID == ignore })
	if len(sibs) == 0 {
		return 0, nil
	}
	last := slices.MaxFunc(sibs, compareSiblings)
	return last.SiblingSortOrder + _sortMargin, nil
}
