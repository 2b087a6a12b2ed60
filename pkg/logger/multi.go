package logger

import (
	"context"
	"log/slog"
)

// fanout duplicates every record across a set of slog.Handlers. The serve
// command uses it to keep pretty console output and a JSON log file in sync.
type fanout struct {
	handlers []slog.Handler
}

// Multi combines loggers into one that forwards each record to every
// underlying handler.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	handlers := make([]slog.Handler, 0, len(loggers))
	for _, l := range loggers {
		handlers = append(handlers, l.Handler())
	}
	return slog.New(&fanout{handlers: handlers})
}

// Enabled reports true if any handler would accept the level.
func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to every handler that accepts its level,
// stopping at the first error.
func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		children[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: children}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		children[i] = h.WithGroup(name)
	}
	return &fanout{handlers: children}
}
