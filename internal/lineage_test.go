package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertLineages checks every node's lineage against its parent's.
func assertLineages(t *testing.T, s Store, kind Kind) {
	t.Helper()
	nodes, err := s.Nodes(context.Background(), kind, All())
	require.NoError(t, err)

	byID := map[int64]Node{}
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, n := range nodes {
		want := lineageOf(n.ID, "")
		if !n.IsRoot() {
			want = lineageOf(n.ID, byID[n.ParentID].Lineage)
		}
		assert.Equal(t, want, n.Lineage, "node %d", n.ID)
	}
}

func TestUpdateLineage(t *testing.T) {
	t.Parallel()

	n := Node{ID: 9}
	assert.True(t, updateLineage(&n, "1/5"))
	assert.Equal(t, "1/5/9", n.Lineage)
	assert.False(t, updateLineage(&n, "1/5"))

	assert.True(t, updateLineage(&n, ""))
	assert.Equal(t, "9", n.Lineage)
}

func TestUpdateLineages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newMemory(time.Now)

	r1 := create(t, s, AreaKind, 0, 0)
	r2 := create(t, s, AreaKind, 0, 10)
	a := create(t, s, AreaKind, r1.ID, 0)
	b := create(t, s, AreaKind, a.ID, 0)
	c := create(t, s, AreaKind, b.ID, 0)
	d := create(t, s, AreaKind, r2.ID, 0)

	n, err := updateLineages(ctx, s, AreaKind)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assertLineages(t, s, AreaKind)
	assert.Equal(t, "1/3/4/5", load(t, s, AreaKind, c.ID).Lineage)
	assert.Equal(t, "2/6", load(t, s, AreaKind, d.ID).Lineage)

	t.Run("idempotent", func(t *testing.T) {
		n, err := updateLineages(ctx, s, AreaKind)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("drift", func(t *testing.T) {
		// Corrupt a middle node; its descendants must be fixed too.
		stale := load(t, s, AreaKind, b.ID)
		stale.Lineage = "garbage"
		require.NoError(t, s.Save(ctx, stale))
		grandchild := load(t, s, AreaKind, c.ID)
		grandchild.Lineage = "garbage/5"
		require.NoError(t, s.Save(ctx, grandchild))

		n, err := updateLineages(ctx, s, AreaKind)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assertLineages(t, s, AreaKind)
	})

	t.Run("orphan", func(t *testing.T) {
		orphan := create(t, s, AreaKind, 999, 0)

		_, err := updateLineages(ctx, s, AreaKind)
		require.NoError(t, err)
		assert.Equal(t, lineageOf(orphan.ID, ""), load(t, s, AreaKind, orphan.ID).Lineage)
	})
}

func TestMoveEntity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// r1 -> a -> b
	// r2 -> x
	setup := func(t *testing.T) (Store, Node, Node, Node, Node, Node) {
		s := newMemory(time.Now)
		r1 := create(t, s, AreaKind, 0, 0)
		r2 := create(t, s, AreaKind, 0, 10)
		a := create(t, s, AreaKind, r1.ID, 0)
		b := create(t, s, AreaKind, a.ID, 0)
		x := create(t, s, AreaKind, r2.ID, 5)
		_, err := updateLineages(ctx, s, AreaKind)
		require.NoError(t, err)
		return s, r1, r2, a, b, x
	}

	t.Run("reparent", func(t *testing.T) {
		s, _, r2, a, b, x := setup(t)

		changed, err := moveEntity(ctx, s, AreaKind, a.ID, r2.ID)
		require.NoError(t, err)
		assert.True(t, changed)

		moved := load(t, s, AreaKind, a.ID)
		assert.Equal(t, r2.ID, moved.ParentID)
		assert.Equal(t, 15.0, moved.SiblingSortOrder, "placed after x")
		assert.Equal(t, []int64{x.ID, a.ID}, ids(sortedChildren(t, s, AreaKind, r2.ID)))
		assert.Equal(t, "2/3/4", load(t, s, AreaKind, b.ID).Lineage)
		assertLineages(t, s, AreaKind)
	})

	t.Run("to root", func(t *testing.T) {
		s, r1, r2, a, b, _ := setup(t)

		changed, err := moveEntity(ctx, s, AreaKind, b.ID, 0)
		require.NoError(t, err)
		assert.True(t, changed)

		assert.Equal(t, []int64{r1.ID, r2.ID, b.ID}, ids(sortedChildren(t, s, AreaKind, 0)))
		assert.Equal(t, "4", load(t, s, AreaKind, b.ID).Lineage)
		assert.Empty(t, sortedChildren(t, s, AreaKind, a.ID))
		assertLineages(t, s, AreaKind)
	})

	t.Run("same parent", func(t *testing.T) {
		s, r1, _, a, _, _ := setup(t)
		before := load(t, s, AreaKind, a.ID)

		changed, err := moveEntity(ctx, s, AreaKind, a.ID, r1.ID)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, before, load(t, s, AreaKind, a.ID))
	})

	t.Run("cycle", func(t *testing.T) {
		s, r1, _, a, b, _ := setup(t)

		_, err := moveEntity(ctx, s, AreaKind, r1.ID, b.ID)
		assert.ErrorIs(t, err, errCycle)
		assert.ErrorIs(t, err, errBadRequest)

		_, err = moveEntity(ctx, s, AreaKind, a.ID, a.ID)
		assert.ErrorIs(t, err, errCycle)

		assert.Equal(t, r1.ID, load(t, s, AreaKind, a.ID).ParentID, "nothing was written")
		assertLineages(t, s, AreaKind)
	})

	t.Run("missing", func(t *testing.T) {
		s, _, _, a, _, _ := setup(t)

		_, err := moveEntity(ctx, s, AreaKind, 999, a.ID)
		assert.ErrorIs(t, err, errNotFound)

		_, err = moveEntity(ctx, s, AreaKind, a.ID, 999)
		assert.ErrorIs(t, err, errNotFound)
	})
}

func TestCheckAncestryCorruptTree(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newMemory(time.Now)

	// p and q claim each other as parents.
	p := create(t, s, AreaKind, 0, 0)
	q := create(t, s, AreaKind, p.ID, 0)
	p.ParentID = q.ID
	require.NoError(t, s.Save(ctx, p))
	n := create(t, s, AreaKind, 0, 10)

	err := checkAncestry(ctx, s, n, load(t, s, AreaKind, q.ID))
	assert.ErrorIs(t, err, errCycle)
}
