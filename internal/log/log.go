// log wires the process-wide logging configuration: a human-readable console
// handler, optionally teed to a JSON file for later inspection of a
// provisioning run.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chainguard-dev/clog"
	charm "github.com/charmbracelet/log"
	slogmulti "github.com/samber/slog-multi"
)

// Setup builds the logger stack and attaches it to the returned context.
//
// 'level' accepts the usual names (debug, info, warn, error). If 'file' is
// non-empty, every record is also written there as JSON. The returned closer
// flushes and closes the file tee (a no-op when no file was requested).
func Setup(ctx context.Context, level, file string) (context.Context, func(), error) {
	lvl, err := charm.ParseLevel(level)
	if err != nil {
		return ctx, nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	console := charm.NewWithOptions(os.Stderr, charm.Options{
		ReportTimestamp: true,
		Level:           lvl,
	})

	handlers := []slog.Handler{console}
	closer := func() {}

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return ctx, nil, fmt.Errorf("opening log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: slogLevel(lvl),
		}))
		closer = func() { _ = f.Close() }
	}

	logger := clog.New(slogmulti.Fanout(handlers...))
	ctx = clog.WithLogger(ctx, logger)
	slog.SetDefault(&logger.Logger)
	return ctx, closer, nil
}

func slogLevel(lvl charm.Level) slog.Level {
	switch lvl {
	case charm.DebugLevel:
		return slog.LevelDebug
	case charm.WarnLevel:
		return slog.LevelWarn
	case charm.ErrorLevel, charm.FatalLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
