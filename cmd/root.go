// Package cmd contains helpers common to all CLI implementations.
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/KimMachineGun/automemlimit/memlimit"
	charm "github.com/charmbracelet/log"
	"github.com/niord/hierarchy/internal"
)

// PGConfig configured a PostGres connection.
type PGConfig struct {
	PostgresHost         string `default:"localhost" env:"POSTGRES_HOST" help:"Postgres host."`
	PostgresUser         string `default:"postgres" env:"POSTGRES_USER" help:"Postgres user."`
	PostgresPassword     string `xor:"db-auth" env:"POSTGRES_PASSWORD" help:"Postgres password."`
	PostgresPasswordFile []byte `type:"filecontent" xor:"db-auth" env:"POSTGRES_PASSWORD_FILE" help:"File with the Postgres password."`
	PostgresPort         int    `default:"5432" env:"POSTGRES_PORT" help:"Postgres port."`
	PostgresDatabase     string `default:"hierarchy" env:"POSTGRES_DATABASE" help:"Postgres database to use."`
}

// DSN returns the database's DSN based on the provided flags.
func (c *PGConfig) DSN() string {
	if len(c.PostgresPasswordFile) > 0 {
		c.PostgresPassword = string(bytes.TrimSpace(c.PostgresPasswordFile))
	}

	dsn := fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s sslmode=disable",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresDatabase,
		c.PostgresHost,
	)

	// Unix sockets don't need a port.
	if !filepath.IsAbs(c.PostgresHost) {
		dsn = fmt.Sprintf("%s port=%d", dsn, c.PostgresPort)
	}

	return dsn
}

// StoreConfig selects and configures where trees are persisted.
type StoreConfig struct {
	PGConfig

	Store      string `default:"postgres" enum:"postgres,badger,memory" env:"STORE" help:"Where to persist trees (postgres, badger or memory)."`
	BadgerPath string `default:"" env:"BADGER_PATH" help:"Badger data directory. Empty keeps badger in memory."`
}

// Open connects to the configured store.
func (c *StoreConfig) Open(ctx context.Context) (internal.Store, error) {
	store, err := internal.NewStore(ctx, internal.StoreOptions{
		Kind:       internal.StoreKind(c.Store),
		DSN:        c.DSN(),
		BadgerPath: c.BadgerPath,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", c.Store, err)
	}
	return store, nil
}

// LogConfig configures logging.
type LogConfig struct {
	Verbose bool `env:"VERBOSE" help:"increase log verbosity"`
}

// Run sets logging to DEBUG if verbose is enabled.
func (c *LogConfig) Run() error {
	if c.Verbose {
		internal.SetLogLevel(charm.DebugLevel)
	}
	return nil
}

// Maintenance is embedded by every one-shot command. It opens a store and a
// controller over it.
type Maintenance struct {
	StoreConfig
	LogConfig

	Kind string `arg:"" enum:"area,category" help:"Kind of tree to operate on (area or category)."`
}

// open is the shared setup for maintenance commands. The returned cleanup
// must be called once the command is done.
func (m *Maintenance) open(ctx context.Context) (*internal.Controller, internal.Kind, func(), error) {
	_ = m.LogConfig.Run()

	kind, err := internal.ParseKind(m.Kind)
	if err != nil {
		return nil, "", nil, err
	}
	store, err := m.Open(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	ctrl, err := internal.NewController(store)
	if err != nil {
		_ = store.Close()
		return nil, "", nil, err
	}
	cleanup := func() {
		ctrl.Close()
		_ = store.Close()
	}
	return ctrl, kind, cleanup, nil
}

// Lineage recomputes every lineage of a kind.
type Lineage struct {
	Maintenance
}

// Run updates lineages.
func (l *Lineage) Run() error {
	ctx := context.Background()
	ctrl, kind, cleanup, err := l.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	changed, err := ctrl.UpdateLineages(ctx, kind)
	if err != nil {
		return err
	}
	internal.Log(ctx).Info("lineages updated", "kind", kind, "changed", changed)
	return nil
}

// Linearize recomputes the tree sort order of a kind.
type Linearize struct {
	Maintenance

	Key string `default:"" help:"Change-gate key to use. Defaults to the server's key for the kind."`
}

// Run re-linearizes the kind if it changed since the last pass.
func (l *Linearize) Run() error {
	ctx := context.Background()
	ctrl, kind, cleanup, err := l.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	changed, err := ctrl.RecomputeTreeSortOrder(ctx, kind, l.Key)
	if err != nil {
		return err
	}
	internal.Log(ctx).Info("tree sort order recomputed", "kind", kind, "changed", changed)
	return nil
}

// Move re-parents a node.
type Move struct {
	Maintenance

	ID       int64 `arg:"" help:"ID of the node to move."`
	ParentID int64 `arg:"" optional:"" help:"New parent ID. Omit to make the node a root."`
}

// Run moves the node and re-linearizes its kind.
func (m *Move) Run() error {
	ctx := context.Background()
	ctrl, kind, cleanup, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	changed, err := ctrl.MoveEntity(ctx, kind, m.ID, m.ParentID)
	if err != nil {
		return err
	}
	internal.Log(ctx).Info("node moved", "kind", kind, "id", m.ID, "parentID", m.ParentID, "changed", changed)
	_, err = ctrl.RecomputeTreeSortOrder(ctx, kind, "")
	return err
}

// Sort moves a node one slot among its siblings.
type Sort struct {
	Maintenance

	ID   int64 `arg:"" help:"ID of the node to move."`
	Down bool  `help:"Move the node down instead of up."`
}

// Run changes the node's sort order and re-linearizes its kind.
func (s *Sort) Run() error {
	ctx := context.Background()
	ctrl, kind, cleanup, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	changed, err := ctrl.ChangeSortOrder(ctx, kind, s.ID, !s.Down)
	if err != nil {
		return err
	}
	internal.Log(ctx).Info("sort order changed", "kind", kind, "id", s.ID, "down", s.Down, "changed", changed)
	_, err = ctrl.RecomputeTreeSortOrder(ctx, kind, "")
	return err
}

// Import loads a JSON tree document.
type Import struct {
	Maintenance

	File     string `arg:"" type:"existingfile" help:"JSON file holding a list of nested {name, children} nodes."`
	ParentID int64  `default:"0" help:"Parent to import under. Zero imports new roots."`
}

// Run imports the file and re-linearizes its kind.
func (i *Import) Run() error {
	ctx := context.Background()
	ctrl, kind, cleanup, err := i.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	f, err := os.Open(i.File)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	trees, err := internal.ReadImport(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", i.File, err)
	}
	created, err := ctrl.Import(ctx, kind, i.ParentID, trees)
	if err != nil {
		return err
	}
	internal.Log(ctx).Info("import finished", "kind", kind, "created", created)
	_, err = ctrl.RecomputeTreeSortOrder(ctx, kind, "")
	return err
}

func init() {
	// Limit our memory to 90% of what's free. This affects cache sizes.
	_, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.9),
		memlimit.WithLogger(slog.Default()),
		memlimit.WithProvider(
			memlimit.ApplyFallback(
				memlimit.FromCgroup,
				memlimit.FromSystem,
			),
		),
	)
	if err != nil {
		panic(err)
	}
}
