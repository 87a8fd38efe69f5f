package main

import (
	"context"
	"log/slog"

	"hotkeyd/internal/sessionlog"
	"hotkeyd/internal/uibridge"
)

// maxLogEntries caps the in-memory session log ring pushed to a freshly
// connected settings window.
const maxLogEntries = 500

// sessionLogSink receives every Info+ record mirrored by the slog tee
// handler. It appends to the ring and forwards the entry to the UI as a log
// frame. Pushing a frame can itself log (for example on a websocket write
// failure); logPushing breaks that same-goroutine recursion so a persistent
// push failure cannot spin.
func (a *App) sessionLogSink(entry sessionlog.Entry) {
	a.logMu.Lock()
	a.logEntries = append(a.logEntries, entry)
	if overflow := len(a.logEntries) - maxLogEntries; overflow > 0 {
		a.logEntries = append(a.logEntries[:0], a.logEntries[overflow:]...)
	}
	a.logMu.Unlock()

	if a.logPushing.CompareAndSwap(false, true) {
		a.pushFrame(uibridge.FrameLog, []sessionlog.Entry{entry})
		a.logPushing.Store(false)
	}
}

// addLogMessage emits a user-facing log line. It goes through slog so the
// record reaches the console handler and, via the tee sink, the ring and
// the UI in one pass.
func (a *App) addLogMessage(level slog.Level, message string) {
	slog.Default().Log(context.Background(), level, message)
}

// recentLogEntries returns up to n of the newest ring entries, oldest first.
func (a *App) recentLogEntries(n int) []sessionlog.Entry {
	a.logMu.Lock()
	defer a.logMu.Unlock()
	if n > len(a.logEntries) {
		n = len(a.logEntries)
	}
	out := make([]sessionlog.Entry, n)
	copy(out, a.logEntries[len(a.logEntries)-n:])
	return out
}

// logEntryCount reports the current ring size.
func (a *App) logEntryCount() int {
	a.logMu.Lock()
	defer a.logMu.Unlock()
	return len(a.logEntries)
}
