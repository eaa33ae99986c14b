package internal

import (
	"context"
	"fmt"
	"time"
)

// TreeSortOrderKey is the default change-gate key for a kind's
// linearization pass.
func TreeSortOrderKey(kind Kind) string {
	return "treeSortOrder." + string(kind)
}

// changeGate remembers, per consumer key, the newest node modification a
// global pass has already processed. It lets expensive passes skip when
// nothing changed since their last run.
type changeGate struct {
	store Store
	key   string
	kind  Kind

	start time.Time // The kind's last modification when the gate was opened.
}

// open reports whether any node of the kind changed after the last processed
// timestamp, and remembers the kind's current last modification.
func (g *changeGate) open(ctx context.Context) (bool, error) {
	processed, err := g.store.GateTime(ctx, g.key)
	if err != nil {
		return false, fmt.Errorf("reading gate %q: %w", g.key, err)
	}
	last, err := g.store.LastUpdated(ctx, g.kind)
	if err != nil {
		return false, fmt.Errorf("reading last update: %w", err)
	}
	g.start = last
	if last.IsZero() {
		return false, nil // Nothing to process.
	}
	return processed.IsZero() || last.After(processed), nil
}

// close records processed as the newest modification the pass handled.
func (g *changeGate) close(ctx context.Context, processed time.Time) error {
	if err := g.store.SetGateTime(ctx, g.key, processed); err != nil {
		return fmt.Errorf("writing gate %q: %w", g.key, err)
	}
	return nil
}
