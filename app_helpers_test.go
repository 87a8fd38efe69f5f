package main

import (
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"hotkeyd/internal/action"
	"hotkeyd/internal/config"
	"hotkeyd/internal/testutil"
)

// recordingAction is a minimal action.Action that counts executions.
type recordingAction struct {
	name   string
	result bool

	mu    sync.Mutex
	calls int
}

func (r *recordingAction) Name() string { return r.name }

func (r *recordingAction) Description() string { return "test action" }

func (r *recordingAction) Parameters() []action.Parameter { return nil }

func (r *recordingAction) Execute(map[string]any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.result
}

func (r *recordingAction) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// newTestApp builds a coordinator against a throwaway config file. The
// default logger is captured so test output stays quiet; the default config
// (two bindings, neither action registered here) is written on Load.
func newTestApp(t *testing.T) *App {
	t.Helper()
	testutil.CaptureLogBuffer(t, slog.LevelDebug)
	a := NewApp(filepath.Join(t.TempDir(), "config.json"))
	if err := a.store.Load(); err != nil {
		t.Fatalf("store load: %v", err)
	}
	// Keep tests from raising real toasts on Windows.
	if err := a.store.UpdateSetting(config.SettingShowNotifications, false); err != nil {
		t.Fatalf("disable notifications: %v", err)
	}
	t.Cleanup(func() {
		if err := a.hotkeys.StopListener(); err != nil {
			t.Errorf("stop listener: %v", err)
		}
	})
	return a
}

func registerTestAction(t *testing.T, a *App, id string, result bool) *recordingAction {
	t.Helper()
	rec := &recordingAction{name: id, result: result}
	if err := a.registry.Register(id, rec); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	return rec
}

func storedHotkey(a *App, combination string) (action string, enabled, found bool) {
	for _, h := range a.store.Hotkeys() {
		if h.Combination == combination {
			return h.Action, h.Enabled, true
		}
	}
	return "", false, false
}

func isActive(a *App, combination string) bool {
	for _, combo := range a.hotkeys.Active() {
		if combo == combination {
			return true
		}
	}
	return false
}
