package internal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a family of tree entities sharing one hierarchy, e.g. areas
// or categories. Every store query and every tree operation is scoped to a
// single kind.
type Kind string

// Supported kinds.
const (
	AreaKind     Kind = "area"
	CategoryKind Kind = "category"
)

// Kinds lists every kind we maintain, in a stable order.
var Kinds = []Kind{AreaKind, CategoryKind}

// ParseKind validates a kind coming from a URL or the command line.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.Join(fmt.Errorf("unknown kind %q", s), errBadRequest)
}

// Node is one entity in a forest. Parent and children are ID references so
// the forest can be held in a flat table, exactly as it is persisted.
type Node struct {
	ID               int64     `json:"id"`
	Kind             Kind      `json:"kind"`
	ParentID         int64     `json:"parentId,omitempty"` // Zero for roots.
	Name             string    `json:"name"`
	SiblingSortOrder float64   `json:"siblingSortOrder"`
	Lineage          string    `json:"lineage"`
	TreeSortOrder    int       `json:"treeSortOrder"`
	Active           bool      `json:"active"`
	Updated          time.Time `json:"updated"`
}

// IsRoot is true if the node has no parent.
func (n Node) IsRoot() bool {
	return n.ParentID == 0
}

// _lineageSep separates IDs in a materialized lineage.
const _lineageSep = "/"

// lineageOf returns the lineage a node should have given its parent's
// lineage. Roots pass an empty parent lineage.
func lineageOf(id int64, parentLineage string) string {
	self := strconv.FormatInt(id, 10)
	if parentLineage == "" {
		return self
	}
	return parentLineage + _lineageSep + self
}

// IsDescendantOf uses the materialized lineage to decide ancestry without
// walking the tree.
func (n Node) IsDescendantOf(ancestor Node) bool {
	if ancestor.Lineage == "" {
		return false
	}
	return strings.HasPrefix(n.Lineage, ancestor.Lineage+_lineageSep)
}

// Filter narrows a node listing. The zero Filter matches every node.
type Filter struct {
	parentID int64
	byParent bool
}

// All matches every node of a kind.
func All() Filter {
	return Filter{}
}

// ChildrenOf matches the direct children of a node. ChildrenOf(0) matches
// the roots.
func ChildrenOf(parentID int64) Filter {
	return Filter{parentID: parentID, byParent: true}
}

// Parent returns the parent constraint, if any.
func (f Filter) Parent() (int64, bool) {
	return f.parentID, f.byParent
}

// Match reports whether the node satisfies the filter.
func (f Filter) Match(n Node) bool {
	if !f.byParent {
		return true
	}
	return n.ParentID == f.parentID
}
