// Public domain.

package pzlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/photoz/internal/pzconf"
	"github.com/soniakeys/photoz/internal/pzlog"
)

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	} {
		assert.Equal(t, want, pzlog.ParseLevel(s), s)
	}
}

func TestJSONRunID(t *testing.T) {
	var buf bytes.Buffer
	log := pzlog.New(pzconf.LoggingConfig{Level: "info", Format: "json"}, &buf)
	ctx := pzlog.WithRunID(context.Background(), "run-1")
	log.DebugContext(ctx, "hidden")
	log.With("k", 1).InfoContext(ctx, "shown", "sources", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "run-1", rec["run_id"])
	assert.Equal(t, 3., rec["sources"])
	assert.Equal(t, 1., rec["k"])
}

func TestTextNoRunID(t *testing.T) {
	var buf bytes.Buffer
	log := pzlog.New(pzconf.LoggingConfig{Level: "debug", Format: "text"}, &buf)
	log.Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.NotContains(t, buf.String(), "run_id")
	assert.Equal(t, "", pzlog.RunID(context.Background()))
}
