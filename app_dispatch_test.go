package main

import (
	"log/slog"
	"strings"
	"testing"

	"hotkeyd/internal/testutil"
)

func TestDispatchExecutesRegistryAction(t *testing.T) {
	a := newTestApp(t)
	rec := registerTestAction(t, a, "noise_gate", true)

	a.dispatch("noise_gate")

	if rec.callCount() != 1 {
		t.Errorf("call count = %d, want 1", rec.callCount())
	}
}

func TestDispatchToggleMainWindowIsCoordinatorLocal(t *testing.T) {
	a := newTestApp(t)
	// The registry carries a stub under this id; dispatch must never reach it.
	rec := registerTestAction(t, a, actionToggleMainWindow, true)

	if a.windowIsVisible() {
		t.Fatal("window unexpectedly visible at start")
	}
	a.dispatch(actionToggleMainWindow)
	if !a.windowIsVisible() {
		t.Error("first toggle did not show the window")
	}
	a.dispatch(actionToggleMainWindow)
	if a.windowIsVisible() {
		t.Error("second toggle did not hide the window")
	}
	if rec.callCount() != 0 {
		t.Errorf("registry stub executed %d times, want 0", rec.callCount())
	}
}

func TestDispatchFailedActionIsLoggedNotRaised(t *testing.T) {
	a := newTestApp(t)
	registerTestAction(t, a, "flaky", false)
	logBuf := testutil.CaptureLogBuffer(t, slog.LevelDebug)

	a.dispatch("flaky")

	if !strings.Contains(logBuf.String(), "Hotkey action failed: flaky") {
		t.Errorf("failure not logged, got: %s", logBuf.String())
	}
}

func TestDispatchUnknownActionFailsSoft(t *testing.T) {
	a := newTestApp(t)

	// Must not panic and must not disturb window state.
	a.dispatch("nonexistent_action")
	if a.windowIsVisible() {
		t.Error("unknown action changed window state")
	}
}

func TestDispatchDuringShutdownIsNoop(t *testing.T) {
	a := newTestApp(t)
	rec := registerTestAction(t, a, "noise_gate", true)

	a.shuttingDown.Store(true)
	a.dispatch("noise_gate")

	if rec.callCount() != 0 {
		t.Errorf("action executed during shutdown %d times", rec.callCount())
	}
}

func TestRunQuickAction(t *testing.T) {
	a := newTestApp(t)
	rec := registerTestAction(t, a, "noise_gate", true)
	registerTestAction(t, a, "flaky", false)

	if !a.RunQuickAction("noise_gate") {
		t.Error("quick action reported failure for succeeding action")
	}
	if rec.callCount() != 1 {
		t.Errorf("call count = %d, want 1", rec.callCount())
	}
	if a.RunQuickAction("flaky") {
		t.Error("quick action reported success for failing action")
	}
	if a.RunQuickAction("nonexistent_action") {
		t.Error("quick action reported success for unknown action")
	}
}

func TestSetWindowVisible(t *testing.T) {
	a := newTestApp(t)

	a.setWindowVisible(true, "test")
	if !a.windowIsVisible() {
		t.Error("window not visible after explicit show")
	}
	// Idempotent: showing an already-visible window stays visible.
	a.setWindowVisible(true, "test")
	if !a.windowIsVisible() {
		t.Error("repeated show flipped visibility")
	}
	a.setWindowVisible(false, "test")
	if a.windowIsVisible() {
		t.Error("window still visible after hide")
	}
}
