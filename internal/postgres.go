package internal

import (
	"context"
	"database/sql"
	_ "embed" // For schema.
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

//go:embed schema.sql
var _schema string

const _nodeColumns = `id, kind, parent_id, name, sibling_sort_order, lineage, tree_sort_order, active, updated`

// pgstore persists nodes in Postgres.
type pgstore struct {
	db *sql.DB

	mu   sync.Mutex
	last time.Time // Most recent write stamp issued by this process.
	now  func() time.Time
}

var _ Store = (*pgstore)(nil)

func newPostgres(ctx context.Context, dsn string) (*pgstore, error) {
	db, err := newDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating db: %w", err)
	}
	return &pgstore{db: db, now: time.Now}, nil
}

// newDB connects to our DB and applies our schema.
func newDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("dbinit: %w", err)
	}
	err = db.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("establishing db connection: %w", err)
	}

	Log(ctx).Info("ensuring DB schema")
	_, err = db.ExecContext(ctx, _schema)
	if err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	return db, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (Node, error) {
	var n Node
	var kind string
	var parentID sql.NullInt64
	err := row.Scan(&n.ID, &kind, &parentID, &n.Name, &n.SiblingSortOrder, &n.Lineage, &n.TreeSortOrder, &n.Active, &n.Updated)
	if err != nil {
		return Node{}, err
	}
	n.Kind = Kind(kind)
	n.ParentID = parentID.Int64
	return n, nil
}

// nullID maps the zero ID to NULL.
func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func (pg *pgstore) Nodes(ctx context.Context, kind Kind, f Filter) ([]Node, error) {
	query := `SELECT ` + _nodeColumns + ` FROM tree_node WHERE kind = $1`
	args := []any{string(kind)}
	if parentID, ok := f.Parent(); ok {
		if parentID == 0 {
			query += ` AND parent_id IS NULL`
		} else {
			query += ` AND parent_id = $2`
			args = append(args, parentID)
		}
	}

	rows, err := pg.db.QueryContext(ctx, query+`;`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s nodes: %w", kind, err)
	}
	defer func() { _ = rows.Close() }()

	out := []Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (pg *pgstore) Node(ctx context.Context, kind Kind, id int64) (Node, error) {
	row := pg.db.QueryRowContext(ctx, `SELECT `+_nodeColumns+` FROM tree_node WHERE kind = $1 AND id = $2;`, string(kind), id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Node{}, notFound(kind, id)
	}
	return n, err
}

func (pg *pgstore) Create(ctx context.Context, n Node) (Node, error) {
	if n.Kind == "" {
		return Node{}, errors.Join(fmt.Errorf("missing kind"), errBadRequest)
	}
	n.Updated = pg.tick()
	err := pg.db.QueryRowContext(ctx,
		`INSERT INTO tree_node (kind, parent_id, name, sibling_sort_order, lineage, tree_sort_order, active, updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id;`,
		string(n.Kind), nullID(n.ParentID), n.Name, n.SiblingSortOrder, n.Lineage, n.TreeSortOrder, n.Active, n.Updated,
	).Scan(&n.ID)
	if err != nil {
		return Node{}, fmt.Errorf("creating %s: %w", n.Kind, err)
	}
	return n, nil
}

// Save updates every node in a single transaction.
func (pg *pgstore) Save(ctx context.Context, nodes ...Node) error {
	if len(nodes) == 0 {
		return nil
	}

	tx, err := pg.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE tree_node SET parent_id = $1, name = $2, sibling_sort_order = $3, lineage = $4,
		 tree_sort_order = $5, active = $6, updated = $7 WHERE kind = $8 AND id = $9;`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, n := range nodes {
		res, err := stmt.ExecContext(ctx,
			nullID(n.ParentID), n.Name, n.SiblingSortOrder, n.Lineage,
			n.TreeSortOrder, n.Active, pg.tick(), string(n.Kind), n.ID,
		)
		if err != nil {
			return fmt.Errorf("saving %s %d: %w", n.Kind, n.ID, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return notFound(n.Kind, n.ID)
		}
	}

	return tx.Commit()
}

func (pg *pgstore) LastUpdated(ctx context.Context, kind Kind) (time.Time, error) {
	var last sql.NullTime
	err := pg.db.QueryRowContext(ctx, `SELECT MAX(updated) FROM tree_node WHERE kind = $1;`, string(kind)).Scan(&last)
	if err != nil {
		return time.Time{}, err
	}
	return last.Time, nil
}

func (pg *pgstore) GateTime(ctx context.Context, key string) (time.Time, error) {
	var processed time.Time
	err := pg.db.QueryRowContext(ctx, `SELECT processed FROM tree_gate WHERE key = $1;`, key).Scan(&processed)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	return processed, err
}

func (pg *pgstore) SetGateTime(ctx context.Context, key string, t time.Time) error {
	_, err := pg.db.ExecContext(ctx,
		`INSERT INTO tree_gate (key, processed) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET processed = $3;`,
		key, t, t,
	)
	return err
}

func (pg *pgstore) Close() error {
	return pg.db.Close()
}

// tick returns the next write stamp, truncated to what timestamptz can hold.
func (pg *pgstore) tick() time.Time {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.last = stamp(pg.now().UTC().Truncate(time.Microsecond), pg.last)
	return pg.last
}
