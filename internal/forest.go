package internal

import (
	"cmp"
	"slices"
)

// forest is an arena over every node of one kind. Nodes are stored by value
// in a flat table and relationships are tracked by ID, so the parent/child
// back-references never form a pointer cycle.
//
// children lists are kept sorted by sibling order (ties broken by ID) which
// makes every traversal deterministic even while duplicate keys exist.
type forest struct {
	nodes    map[int64]*Node
	children map[int64][]int64 // Parent ID => child IDs. Key 0 holds the roots.
}

// newForest indexes the given nodes. Nodes whose parent isn't part of the
// forest are treated as roots so they are still visited.
func newForest(nodes []Node) *forest {
	f := &forest{
		nodes:    make(map[int64]*Node, len(nodes)),
		children: map[int64][]int64{},
	}
	for i := range nodes {
		n := nodes[i]
		f.nodes[n.ID] = &n
	}
	for _, n := range f.nodes {
		parentID := n.ParentID
		if _, ok := f.nodes[parentID]; !ok {
			parentID = 0
		}
		f.children[parentID] = append(f.children[parentID], n.ID)
	}
	for parentID := range f.children {
		f.sortChildren(parentID)
	}
	return f
}

func (f *forest) sortChildren(parentID int64) {
	slices.SortFunc(f.children[parentID], func(l, r int64) int {
		return compareSiblings(*f.nodes[l], *f.nodes[r])
	})
}

// compareSiblings orders nodes by sibling sort order, then by ID.
func compareSiblings(l, r Node) int {
	if c := cmp.Compare(l.SiblingSortOrder, r.SiblingSortOrder); c != 0 {
		return c
	}
	return cmp.Compare(l.ID, r.ID)
}

// roots returns the IDs of every root in sibling order.
func (f *forest) roots() []int64 {
	return f.children[0]
}

// childrenOf returns the IDs of a node's direct children in sibling order.
func (f *forest) childrenOf(id int64) []int64 {
	return f.children[id]
}

func (f *forest) get(id int64) (*Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// isOrphan is true if the node claims a parent that isn't in the forest.
func (f *forest) isOrphan(n *Node) bool {
	if n.IsRoot() {
		return false
	}
	_, ok := f.nodes[n.ParentID]
	return !ok
}

// walk visits every node in pre-order, siblings in sibling order. Returning
// false from visit skips the node's subtree.
func (f *forest) walk(visit func(n *Node, depth int) bool) {
	var rec func(ids []int64, depth int)
	rec = func(ids []int64, depth int) {
		for _, id := range ids {
			n := f.nodes[id]
			if !visit(n, depth) {
				continue
			}
			rec(f.childrenOf(id), depth+1)
		}
	}
	rec(f.roots(), 0)
}

// len returns the number of nodes in the forest.
func (f *forest) len() int {
	return len(f.nodes)
}
