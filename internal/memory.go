package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// memstore keeps everything in memory. It's used by tests and by the
// "memory" store option for throwaway servers.
type memstore struct {
	mu sync.Mutex

	nodes  map[Kind]map[int64]Node
	gates  map[string]time.Time
	nextID int64
	last   time.Time // Most recent write stamp.

	now func() time.Time
}

var _ Store = (*memstore)(nil)

func newMemory(now func() time.Time) *memstore {
	return &memstore{
		nodes: map[Kind]map[int64]Node{},
		gates: map[string]time.Time{},
		now:   now,
	}
}

func (m *memstore) Nodes(_ context.Context, kind Kind, f Filter) ([]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Node{}
	for _, n := range m.nodes[kind] {
		if f.Match(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memstore) Node(_ context.Context, kind Kind, id int64) (Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[kind][id]
	if !ok {
		return Node{}, notFound(kind, id)
	}
	return n, nil
}

func (m *memstore) Create(_ context.Context, n Node) (Node, error) {
	if n.Kind == "" {
		return Node{}, errors.Join(fmt.Errorf("missing kind"), errBadRequest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	n.ID = m.nextID
	n.Updated = m.tick()

	if m.nodes[n.Kind] == nil {
		m.nodes[n.Kind] = map[int64]Node{}
	}
	m.nodes[n.Kind][n.ID] = n
	return n, nil
}

func (m *memstore) Save(_ context.Context, nodes ...Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate first so a bad batch doesn't partially apply.
	for _, n := range nodes {
		if _, ok := m.nodes[n.Kind][n.ID]; !ok {
			return notFound(n.Kind, n.ID)
		}
	}
	for _, n := range nodes {
		n.Updated = m.tick()
		m.nodes[n.Kind][n.ID] = n
	}
	return nil
}

func (m *memstore) LastUpdated(_ context.Context, kind Kind) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var last time.Time
	for _, n := range m.nodes[kind] {
		if n.Updated.After(last) {
			last = n.Updated
		}
	}
	return last, nil
}

func (m *memstore) GateTime(_ context.Context, key string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gates[key], nil
}

func (m *memstore) SetGateTime(_ context.Context, key string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gates[key] = t
	return nil
}

// Close is a no-op.
func (m *memstore) Close() error {
	return nil
}

// tick returns the next write stamp. Callers must hold the lock.
func (m *memstore) tick() time.Time {
	m.last = stamp(m.now().Truncate(time.Microsecond), m.last)
	return m.last
}
