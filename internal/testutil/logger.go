// Package testutil builds synthetic Level-2A products and test loggers.
package testutil

import (
	"log/slog"
	"testing"

	"github.com/venicegeo/bf-s2reader/util"
)

// UseTestLogger routes the util logger to t.Log() for the duration of the test.
// Logs only appear on test failure or when running with -v.
func UseTestLogger(t testing.TB) {
	t.Helper()
	prev := util.Logger()
	util.SetLogger(slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	t.Cleanup(func() { util.SetLogger(prev) })
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
