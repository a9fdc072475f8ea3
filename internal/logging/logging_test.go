package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var info, errs bytes.Buffer
	logger := slog.New(NewMultiHandler(
		NewJSONHandler(&info, "info"),
		NewJSONHandler(&errs, "error"),
	))

	logger.Info("report created", "report_id", "r1")
	logger.Error("classifier failed", "error", "timeout")

	assert.Equal(t, 2, bytes.Count(info.Bytes(), []byte("\n")))
	assert.Equal(t, 1, bytes.Count(errs.Bytes(), []byte("\n")))
	assert.Contains(t, errs.String(), "classifier failed")
}

func TestMultiHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMultiHandler(NewJSONHandler(&buf, "debug"))).With("component", "store")
	logger.Debug("ping")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "store", line["component"])
}

type brokenSink struct {
	slog.Handler
	err error
}

func (b brokenSink) Handle(context.Context, slog.Record) error { return b.err }

func TestMultiHandlerKeepsGoingPastFailingSink(t *testing.T) {
	var buf bytes.Buffer
	first := errors.New("system_logs buffer closed")
	second := errors.New("disk full")
	h := NewMultiHandler(
		brokenSink{Handler: NewJSONHandler(&bytes.Buffer{}, "debug"), err: first},
		nil,
		NewJSONHandler(&buf, "info"),
		brokenSink{Handler: NewJSONHandler(&bytes.Buffer{}, "debug"), err: second},
	)

	rec := slog.NewRecord(time.Now(), slog.LevelError, "persist report", 0)
	err := h.Handle(context.Background(), rec)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Contains(t, buf.String(), "persist report", "healthy sink still receives the record")
}

func TestMultiHandlerEmptyGroupAndAttrsReturnSelf(t *testing.T) {
	h := NewMultiHandler(NewJSONHandler(&bytes.Buffer{}, "info"))
	assert.Same(t, h, h.WithGroup(""))
	assert.Same(t, h, h.WithAttrs(nil))
	assert.NotSame(t, h, h.WithGroup("report"))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))
}

func TestToSystemLogMapsKnownAttrs(t *testing.T) {
	rec := slog.NewRecord(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), slog.LevelError, "collection failed", 0)
	rec.AddAttrs(
		slog.String("request_id", "req-1"),
		slog.String("external_id", "auth0|42"),
		slog.String("error", "boom"),
		slog.Float64("latency_ms", 12.6),
		slog.String("report_id", "r9"),
	)

	entry := toSystemLog(rec, []slog.Attr{slog.String("action", "submit_proof")})

	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "collection failed", entry.Message)
	assert.Equal(t, "req-1", entry.TraceID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "auth0|42", *entry.UserID)
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, 13, entry.LatencyMs)
	assert.Equal(t, "submit_proof", entry.Action)
	assert.JSONEq(t, `{"report_id":"r9"}`, string(entry.Extra))
}

func TestPGHandlerBuffersOnlyErrors(t *testing.T) {
	h := &PGHandler{sink: &pgSink{done: make(chan struct{}), ticker: time.NewTicker(time.Hour)}}
	defer h.sink.ticker.Stop()

	logger := slog.New(h).With("action", "create_report")
	logger.Info("ignored")
	logger.Error("kept")

	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	require.Len(t, h.sink.buffer, 1)
	assert.Equal(t, "kept", h.sink.buffer[0].Message)
	assert.Equal(t, "create_report", h.sink.buffer[0].Action)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
