package internal

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPostgres runs against a live database. It truncates the tables it uses,
// so point POSTGRES_TEST_DSN at a throwaway database.
func TestPostgres(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	ctx := context.Background()
	s, err := newPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.db.ExecContext(ctx, `TRUNCATE tree_node, tree_gate RESTART IDENTITY;`)
	require.NoError(t, err)

	testStore(t, s)
}
