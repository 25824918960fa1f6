package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/CZERTAINLY/kevhost/internal/log"
	"github.com/stretchr/testify/require"
)

func TestContextAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := log.New(&buf, false)

	ctx := log.ContextAttrs(context.Background(), slog.String("cmd", "lookup"))
	ctx = log.ContextAttrs(ctx, slog.Int("pid", 42))
	logger.InfoContext(ctx, "host fetched", "ip", "192.0.2.1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "host fetched", rec["msg"])
	require.Equal(t, "lookup", rec["cmd"])
	require.EqualValues(t, 42, rec["pid"])
	require.Equal(t, "192.0.2.1", rec["ip"])
}

func TestContextAttrsDoNotLeak(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := log.New(&buf, false)

	parent := log.ContextAttrs(context.Background(), slog.String("a", "1"))
	_ = log.ContextAttrs(parent, slog.String("b", "2"))
	logger.InfoContext(parent, "parent")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "1", rec["a"])
	require.NotContains(t, rec, "b")
}

func TestVerbose(t *testing.T) {
	t.Parallel()
	var quiet, verbose bytes.Buffer
	log.New(&quiet, false).Debug("hidden")
	log.New(&verbose, true).Debug("shown")

	require.Empty(t, quiet.String())
	require.Contains(t, verbose.String(), `"msg":"shown"`)
}

func TestWithAttrsKeepsContext(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := log.New(&buf, false).With("component", "kev")

	ctx := log.ContextAttrs(context.Background(), slog.String("target", "192.0.2.1"))
	logger.InfoContext(ctx, "fetched")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "kev", rec["component"])
	require.Equal(t, "192.0.2.1", rec["target"])
}
