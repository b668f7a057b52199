package log

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2025, 12, 6, 10, 45, 0, 0, time.UTC)

	entry := format(ts, LevelError, CatAPI, "request failed", []any{"status", 502, "path", "/x"})
	require.Equal(t, "2025-12-06T10:45:00 [ERROR] [api] request failed status=502 path=/x\n", entry)

	entry = format(ts, LevelInfo, CatDB, "odd", []any{"orphan"})
	require.True(t, strings.HasSuffix(entry, " orphan=<missing>\n"))
}

func TestInitWriter_RespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelInfo)
	defer Reset()

	Debug(CatTree, "hidden")
	Info(CatTree, "shown", "files", 3)
	ErrorErr(CatCache, "boom", errors.New("bad"))

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[INFO] [tree] shown files=3")
	require.Contains(t, out, "[ERROR] [cache] boom error=bad")
}

func TestSetEnabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	defer Reset()

	SetEnabled(false)
	Info(CatConfig, "muted")
	SetEnabled(true)
	Info(CatConfig, "audible")

	require.NotContains(t, buf.String(), "muted")
	require.Contains(t, buf.String(), "audible")
}

func TestNoLogger_IsNoop(t *testing.T) {
	Reset()
	require.NotPanics(t, func() {
		Info(CatServer, "nothing installed")
		SetMinLevel(LevelWarn)
	})
	require.Nil(t, NewListener(context.Background()))
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	cleanup, err := Init(path)
	require.NoError(t, err)
	defer Reset()

	Warn(CatGit, "detached head", "rev", "abc123")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[WARN] [git] detached head rev=abc123")
}

func TestNewListener_ReceivesEntries(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	defer Reset()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewListener(ctx)
	require.NotNil(t, l)

	Info(CatWatcher, "changed", "path", "diff.json")

	event, ok := l.Next()
	require.True(t, ok)
	require.Contains(t, event.Payload, "changed path=diff.json")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelInfo, ParseLevel("INFO"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelDebug, ParseLevel("whatever"))
}
