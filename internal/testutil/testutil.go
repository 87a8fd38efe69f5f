// Package testutil holds small helpers shared by tests across packages.
package testutil

import (
	"bytes"
	"log/slog"
	"testing"
)

// Ptr returns a pointer to v. Useful for struct literals with pointer fields:
//
//	testutil.Ptr(true)   // *bool
//	testutil.Ptr(0.5)    // *float64
func Ptr[T any](v T) *T { return &v }

// CaptureLogBuffer redirects the default slog logger to an in-memory buffer and
// restores the original logger in t.Cleanup.
func CaptureLogBuffer(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	originalLogger := slog.Default()
	var logBuf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() {
		slog.SetDefault(originalLogger)
	})
	return &logBuf
}
