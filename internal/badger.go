package internal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// kvstore persists nodes in an embedded badger database. It's meant for
// single-node deployments which don't want to run Postgres.
//
// Layout:
//
//	node/<kind>/<id>  JSON-encoded Node (id is big-endian so keys sort by ID)
//	last/<kind>       most recent write stamp for the kind
//	gate/<key>        change-gate timestamp
//	seq/node          ID sequence
type kvstore struct {
	db  *badger.DB
	seq *badger.Sequence

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

var _ Store = (*kvstore)(nil)

// newBadger opens a badger database at path, or an in-memory one if path is
// empty.
func newBadger(path string) (*kvstore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("creating badger directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path).WithSyncWrites(true)
	}
	opts = opts.WithLogger(badgerLogger{slog.Default().With("component", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	seq, err := db.GetSequence([]byte("seq/node"), 100)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("leasing id sequence: %w", err)
	}
	return &kvstore{db: db, seq: seq, now: time.Now}, nil
}

// badgerLogger adapts slog to badger's logger. Badger is chatty at info, so
// that is demoted to debug.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

func nodePrefix(kind Kind) []byte {
	return []byte("node/" + string(kind) + "/")
}

func nodeKey(kind Kind, id int64) []byte {
	return binary.BigEndian.AppendUint64(nodePrefix(kind), uint64(id))
}

func lastKey(kind Kind) []byte {
	return []byte("last/" + string(kind))
}

func gateKey(key string) []byte {
	return []byte("gate/" + key)
}

func (kv *kvstore) Nodes(_ context.Context, kind Kind, f Filter) ([]Node, error) {
	out := []Node{}
	err := kv.db.View(func(txn *badger.Txn) error {
		prefix := nodePrefix(kind)
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var n Node
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			})
			if err != nil {
				return err
			}
			if f.Match(n) {
				out = append(out, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s nodes: %w", kind, err)
	}
	return out, nil
}

func (kv *kvstore) Node(_ context.Context, kind Kind, id int64) (Node, error) {
	var n Node
	err := kv.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = getNode(txn, kind, id)
		return err
	})
	return n, err
}

func getNode(txn *badger.Txn, kind Kind, id int64) (Node, error) {
	var n Node
	item, err := txn.Get(nodeKey(kind, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return n, notFound(kind, id)
	}
	if err != nil {
		return n, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &n)
	})
	return n, err
}

func putNode(txn *badger.Txn, n Node) error {
	val, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := txn.Set(nodeKey(n.Kind, n.ID), val); err != nil {
		return err
	}

	// Concurrent writers may commit out of stamp order; only move forward.
	if item, err := txn.Get(lastKey(n.Kind)); err == nil {
		var prev time.Time
		if err := item.Value(prev.UnmarshalBinary); err == nil && !n.Updated.After(prev) {
			return nil
		}
	}
	last, err := n.Updated.MarshalBinary()
	if err != nil {
		return err
	}
	return txn.Set(lastKey(n.Kind), last)
}

func (kv *kvstore) Create(_ context.Context, n Node) (Node, error) {
	if n.Kind == "" {
		return Node{}, errors.Join(fmt.Errorf("missing kind"), errBadRequest)
	}
	id, err := kv.seq.Next()
	if err != nil {
		return Node{}, fmt.Errorf("allocating id: %w", err)
	}
	// Badger sequences start at zero but zero means "no parent".
	n.ID = int64(id) + 1
	n.Updated = kv.tick()

	err = kv.db.Update(func(txn *badger.Txn) error {
		return putNode(txn, n)
	})
	if err != nil {
		return Node{}, fmt.Errorf("creating %s: %w", n.Kind, err)
	}
	return n, nil
}

func (kv *kvstore) Save(_ context.Context, nodes ...Node) error {
	if len(nodes) == 0 {
		return nil
	}
	return kv.db.Update(func(txn *badger.Txn) error {
		for _, n := range nodes {
			if _, err := txn.Get(nodeKey(n.Kind, n.ID)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return notFound(n.Kind, n.ID)
				}
				return err
			}
			n.Updated = kv.tick()
			if err := putNode(txn, n); err != nil {
				return fmt.Errorf("saving %s %d: %w", n.Kind, n.ID, err)
			}
		}
		return nil
	})
}

func (kv *kvstore) LastUpdated(_ context.Context, kind Kind) (time.Time, error) {
	return kv.getTime(lastKey(kind))
}

func (kv *kvstore) GateTime(_ context.Context, key string) (time.Time, error) {
	return kv.getTime(gateKey(key))
}

func (kv *kvstore) SetGateTime(_ context.Context, key string, t time.Time) error {
	val, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	return kv.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gateKey(key), val)
	})
}

func (kv *kvstore) getTime(key []byte) (time.Time, error) {
	var t time.Time
	err := kv.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(t.UnmarshalBinary)
	})
	return t, err
}

func (kv *kvstore) Close() error {
	return errors.Join(kv.seq.Release(), kv.db.Close())
}

func (kv *kvstore) tick() time.Time {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.last = stamp(kv.now().UTC().Truncate(time.Microsecond), kv.last)
	return kv.last
}
