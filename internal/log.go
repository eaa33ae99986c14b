package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	charm "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattn/go-isatty"
)

var _logHandler *charm.Logger

// SetLogLevel adjusts the verbosity of the default logger.
func SetLogLevel(level charm.Level) {
	_logHandler.SetLevel(level)
}

// Log returns a logger scoped to the request ID if present in the context.
// Background passes put their own job ID under the same key.
func Log(ctx context.Context) *slog.Logger {
	return slog.Default().With("trace", ctx.Value(middleware.RequestIDKey))
}

// _maxLoggedErr caps how much of an error response body we log.
const _maxLoggedErr = 512

// Requestlogger logs every admin request along with the tree it touched.
type Requestlogger struct{}

// Wrap applies middleware.
func (Requestlogger) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hand chi a route context up front so we can read its URL params
		// after routing.
		rctx := chi.NewRouteContext()
		ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		errBody := &cappedBuffer{max: _maxLoggedErr}
		ww.Tee(errBody)

		defer func() {
			status := ww.Status()
			duration := time.Since(start)

			attrs := []slog.Attr{
				slog.Int("status", status),
				slog.Duration("duration", duration),
				slog.Int("bytes", ww.BytesWritten()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			}
			if kind := rctx.URLParam("kind"); kind != "" {
				attrs = append(attrs, slog.String("kind", kind))
			}
			if id := rctx.URLParam("id"); id != "" {
				attrs = append(attrs, slog.String("id", id))
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
				attrs = append(attrs, slog.String("err", errBody.String()))
			case status >= 400 && status != http.StatusNotFound:
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("err", errBody.String()))
			case r.Method == http.MethodGet:
				level = slog.LevelDebug // Reads are noisy.
			}

			Log(ctx).LogAttrs(ctx, level,
				fmt.Sprintf("%s %s => HTTP %d (%v)", r.Method, r.URL.String(), status, duration),
				attrs...)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

// cappedBuffer keeps the first max bytes written to it and drops the rest.
type cappedBuffer struct {
	buf []byte
	max int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := c.max - len(c.buf); room > 0 {
		c.buf = append(c.buf, p[:min(room, len(p))]...)
	}
	return len(p), nil
}

func (c *cappedBuffer) String() string {
	return string(c.buf)
}

// set up our default log handler and formatting.
func init() {
	styles := charm.DefaultStyles()
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true)
	styles.Keys["status"] = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	styles.Keys["kind"] = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	styles.Values["trace"] = lipgloss.NewStyle().Faint(true)

	_logHandler = charm.NewWithOptions(os.Stderr, charm.Options{
		ReportTimestamp: true,
		TimeFormat:      time.StampMilli,
		Level:           charm.InfoLevel,
	})
	_logHandler.SetStyles(styles)

	// Output JSON when we aren't attached to a terminal.
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		_logHandler.SetFormatter(charm.JSONFormatter)
		_logHandler.SetTimeFormat(time.RFC3339)
	}

	slog.SetDefault(slog.New(_logHandler))
}
