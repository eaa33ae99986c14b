package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ImportNode is one node of an imported tree.
type ImportNode struct {
	Name     string       `json:"name" validate:"required,max=256"`
	Children []ImportNode `json:"children,omitempty" validate:"omitempty,dive"`
}

// cleanImport returns a copy of trees with every name cleaned, or the first
// name that cleans to nothing.
func cleanImport(trees []ImportNode) ([]ImportNode, error) {
	out := make([]ImportNode, len(trees))
	for i, in := range trees {
		name, err := cleanName(in.Name)
		if err != nil {
			return nil, fmt.Errorf("importing %q: %w", in.Name, err)
		}
		children, err := cleanImport(in.Children)
		if err != nil {
			return nil, err
		}
		out[i] = ImportNode{Name: name, Children: children}
	}
	return out, nil
}

// Import creates the given trees under parentID (zero imports new roots).
// Top-level nodes are placed after any existing siblings; children keep the
// order they were given in. Returns the number of nodes created.
//
// Every name is cleaned before anything is written, so a bad name anywhere
// in the trees rejects the whole import.
func (c *Controller) Import(ctx context.Context, kind Kind, parentID int64, trees []ImportNode) (int, error) {
	unlock, err := c.lock(kind)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if trees, err = cleanImport(trees); err != nil {
		observe(kind, "import", false, err)
		return 0, err
	}

	start, err := lastSortOrder(ctx, c.store, kind, parentID, 0)
	if err != nil {
		return 0, err
	}

	created := 0
	var rec func(parentID int64, nodes []ImportNode, first float64) error
	rec = func(parentID int64, nodes []ImportNode, first float64) error {
		for idx, in := range nodes {
			key := first + float64(idx)*_sortMargin
			n, err := c.create(ctx, kind, in.Name, parentID, &key)
			if err != nil {
				return fmt.Errorf("importing %q: %w", in.Name, err)
			}
			created++
			if err := rec(n.ID, in.Children, 0); err != nil {
				return err
			}
		}
		return nil
	}
	err = rec(parentID, trees, start)

	observe(kind, "import", created > 0, err)
	if created > 0 {
		c.markDirty(kind)
	}
	if err != nil {
		Log(ctx).Warn("import stopped", "kind", kind, "created", created, "err", err)
		return created, err
	}
	Log(ctx).Info("imported nodes", "kind", kind, "count", created)
	return created, nil
}

// ReadImport parses a JSON import document: a list of nested nodes.
func ReadImport(r io.Reader) ([]ImportNode, error) {
	var trees []ImportNode
	if err := json.NewDecoder(r).Decode(&trees); err != nil {
		return nil, errors.Join(fmt.Errorf("decoding import: %w", err), errBadRequest)
	}
	if len(trees) == 0 {
		return nil, errors.Join(fmt.Errorf("nothing to import"), errBadRequest)
	}
	for _, t := range trees {
		if err := _validate.Struct(t); err != nil {
			return nil, errors.Join(err, errBadRequest)
		}
	}
	return trees, nil
}
