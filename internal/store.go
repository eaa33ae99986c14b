//go:generate go run go.uber.org/mock/mockgen -typed -source store.go -package internal -destination mock_store.go

package internal

import (
	"context"
	"fmt"
	"time"
)

// Store persists nodes and the change-gate timestamps. Implementations must
// be safe for concurrent use.
type Store interface {
	// Nodes returns every node of the kind matching the filter, in no
	// particular order.
	Nodes(ctx context.Context, kind Kind, f Filter) ([]Node, error)

	// Node loads a node by ID. The error wraps errNotFound if it doesn't
	// exist.
	Node(ctx context.Context, kind Kind, id int64) (Node, error)

	// Create persists a new node and returns it with its ID and Updated
	// fields assigned.
	Create(ctx context.Context, n Node) (Node, error)

	// Save persists existing nodes in bulk, stamping Updated on each. Saving
	// a node which doesn't exist is an error.
	Save(ctx context.Context, nodes ...Node) error

	// LastUpdated is the most recent Updated time across every node of the
	// kind, or the zero time if there are none.
	LastUpdated(ctx context.Context, kind Kind) (time.Time, error)

	// GateTime returns the timestamp stored under key, or the zero time.
	GateTime(ctx context.Context, key string) (time.Time, error)

	// SetGateTime stores a timestamp under key.
	SetGateTime(ctx context.Context, key string, t time.Time) error

	// Close releases any underlying resources.
	Close() error
}

// StoreKind selects a Store implementation.
type StoreKind string

// Available stores.
const (
	PostgresStore StoreKind = "postgres"
	BadgerStore   StoreKind = "badger"
	MemoryStore   StoreKind = "memory"
)

// StoreOptions configures NewStore.
type StoreOptions struct {
	Kind       StoreKind
	DSN        string // Postgres only.
	BadgerPath string // Badger only. Empty means in-memory.
}

// NewStore opens the configured store.
func NewStore(ctx context.Context, o StoreOptions) (Store, error) {
	switch o.Kind {
	case PostgresStore:
		return newPostgres(ctx, o.DSN)
	case BadgerStore:
		return newBadger(o.BadgerPath)
	case MemoryStore, "":
		return newMemory(time.Now), nil
	default:
		return nil, fmt.Errorf("unknown store %q", o.Kind)
	}
}

// stamp returns a write timestamp strictly after prev. The change-gate
// compares these, so two writes must never share a stamp.
func stamp(now time.Time, prev time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
