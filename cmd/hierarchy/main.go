// Package main runs the hierarchy admin server and its maintenance commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/niord/hierarchy/cmd"
	"github.com/niord/hierarchy/internal"
)

// cli contains our command-line flags.
type cli struct {
	Serve server `cmd:"" help:"Run the HTTP admin server."`

	Lineage   cmd.Lineage   `cmd:"" help:"Recompute every lineage of a kind."`
	Linearize cmd.Linearize `cmd:"" help:"Recompute the tree sort order of a kind if it changed."`
	Move      cmd.Move      `cmd:"" help:"Move a node under a new parent."`
	Sort      cmd.Sort      `cmd:"" help:"Move a node one slot up or down among its siblings."`
	Import    cmd.Import    `cmd:"" help:"Import nested nodes from a JSON file."`
}

type server struct {
	cmd.StoreConfig
	cmd.LogConfig

	Port              int           `default:"8789" env:"PORT" help:"Port to serve traffic on."`
	LinearizeInterval time.Duration `default:"2s" env:"LINEARIZE_INTERVAL" help:"Minimum time between background tree sort order passes."`
	MaxBodyBytes      int64         `default:"1048576" env:"MAX_BODY_BYTES" help:"Largest accepted request body, imports included."`
}

func (s *server) Run() error {
	_ = s.LogConfig.Run()

	ctx := context.Background()
	store, err := s.Open(ctx)
	if err != nil {
		return fmt.Errorf("setting up store: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctrl, err := internal.NewController(store)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	h := internal.NewHandler(ctrl)
	mux := internal.NewMux(h)

	mux = middleware.RequestSize(s.MaxBodyBytes)(mux) // Limit request bodies.
	mux = internal.Requestlogger{}.Wrap(mux)          // Log requests.
	mux = middleware.RequestID(mux)                   // Include a request ID header.
	mux = middleware.Recoverer(mux)                   // Recover from panics.

	addr := fmt.Sprintf(":%d", s.Port)
	server := &http.Server{
		Handler:           mux,
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	}

	go func() {
		slog.Info("listening on "+addr, "store", s.Store)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			internal.Log(ctx).Error(err.Error())
			os.Exit(1)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdown
		slog.Info("shutting down http server")
		_ = server.Shutdown(ctx)
		slog.Info("waiting for linearization to finish")
		ctrl.Shutdown(ctx)
	}()

	ctrl.Run(ctx, s.LinearizeInterval)

	slog.Info("au revoir!")

	return nil
}

func main() {
	kctx := kong.Parse(&cli{})
	err := kctx.Run()
	if err != nil {
		internal.Log(context.Background()).Error("fatal", "err", err)
		os.Exit(1)
	}
}
