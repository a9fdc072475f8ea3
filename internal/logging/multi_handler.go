package logging

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler tees each record to every sink that accepts its level, so the
// stdout stream and the system_logs buffer see the same events. A failing
// sink does not keep the record from the others.
type MultiHandler struct {
	sinks []slog.Handler
}

// NewMultiHandler skips nil sinks.
func NewMultiHandler(sinks ...slog.Handler) *MultiHandler {
	kept := make([]slog.Handler, 0, len(sinks))
	for _, h := range sinks {
		if h != nil {
			kept = append(kept, h)
		}
	}
	return &MultiHandler{sinks: kept}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.sinks {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle gives each sink its own copy of the record and returns the joined
// sink errors.
func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range m.sinks {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return m
	}
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *MultiHandler) derive(fn func(slog.Handler) slog.Handler) *MultiHandler {
	sinks := make([]slog.Handler, len(m.sinks))
	for i, h := range m.sinks {
		sinks[i] = fn(h)
	}
	return &MultiHandler{sinks: sinks}
}
