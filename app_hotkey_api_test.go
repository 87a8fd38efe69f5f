package main

import (
	"errors"
	"os"
	"testing"

	"hotkeyd/internal/config"
)

func TestAddHotkeyPersistsAndRegisters(t *testing.T) {
	a := newTestApp(t)
	registerTestAction(t, a, "noise_gate", true)

	if err := a.AddHotkey("Ctrl+Alt+N", "noise_gate", true); err != nil {
		t.Fatalf("AddHotkey: %v", err)
	}

	actionID, enabled, found := storedHotkey(a, "ctrl+alt+n")
	if !found {
		t.Fatal("hotkey not stored under canonical combination")
	}
	if actionID != "noise_gate" || !enabled {
		t.Errorf("stored entry = (%q, %v), want (noise_gate, true)", actionID, enabled)
	}
	if !isActive(a, "ctrl+alt+n") {
		t.Error("hotkey not live after add")
	}
}

func TestAddHotkeyReplacesSameCombination(t *testing.T) {
	a := newTestApp(t)
	registerTestAction(t, a, "first", true)
	registerTestAction(t, a, "second", true)

	if err := a.AddHotkey("ctrl+alt+x", "first", true); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := a.AddHotkey("ctrl+alt+x", "second", true); err != nil {
		t.Fatalf("second add: %v", err)
	}

	count := 0
	for _, h := range a.store.Hotkeys() {
		if h.Combination == "ctrl+alt+x" {
			count++
			if h.Action != "second" {
				t.Errorf("action = %q, want second", h.Action)
			}
		}
	}
	if count != 1 {
		t.Fatalf("entries for ctrl+alt+x = %d, want 1", count)
	}
}

func TestAddHotkeyRejectsUnknownAction(t *testing.T) {
	a := newTestApp(t)

	err := a.AddHotkey("ctrl+alt+u", "does_not_exist", true)
	if err == nil {
		t.Fatal("expected error for unknown action")
	}
	if _, _, found := storedHotkey(a, "ctrl+alt+u"); found {
		t.Error("rejected hotkey was persisted")
	}
}

func TestAddHotkeyRejectsInvalidCombination(t *testing.T) {
	a := newTestApp(t)
	registerTestAction(t, a, "noise_gate", true)

	for _, combo := range []string{"", "m", "%%invalid%%", "ctrl+shift"} {
		if err := a.AddHotkey(combo, "noise_gate", true); err == nil {
			t.Errorf("AddHotkey(%q) succeeded, want error", combo)
		}
	}
}

func TestUpdateHotkeyMovesCombination(t *testing.T) {
	a := newTestApp(t)
	registerTestAction(t, a, "noise_gate", true)

	if err := a.AddHotkey("ctrl+alt+a", "noise_gate", true); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := a.UpdateHotkey("ctrl+alt+a", "ctrl+alt+b", "noise_gate", true); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, _, found := storedHotkey(a, "ctrl+alt+a"); found {
		t.Error("old combination still stored")
	}
	if _, _, found := storedHotkey(a, "ctrl+alt+b"); !found {
		t.Error("new combination not stored")
	}
	if isActive(a, "ctrl+alt+a") {
		t.Error("old combination still registered")
	}
	if !isActive(a, "ctrl+alt+b") {
		t.Error("new combination not registered")
	}
}

func TestUpdateHotkeyNotFound(t *testing.T) {
	a := newTestApp(t)
	registerTestAction(t, a, "noise_gate", true)

	err := a.UpdateHotkey("ctrl+alt+z", "ctrl+alt+y", "noise_gate", true)
	if !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("err = %v, want config.ErrNotFound", err)
	}
}

func TestRemoveHotkey(t *testing.T) {
	a := newTestApp(t)
	registerTestAction(t, a, "noise_gate", true)

	if err := a.AddHotkey("ctrl+alt+r", "noise_gate", true); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := a.RemoveHotkey("ctrl+alt+r"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, _, found := storedHotkey(a, "ctrl+alt+r"); found {
		t.Error("entry still stored after remove")
	}
	if isActive(a, "ctrl+alt+r") {
		t.Error("registration still live after remove")
	}

	if err := a.RemoveHotkey("ctrl+alt+r"); !errors.Is(err, config.ErrNotFound) {
		t.Errorf("second remove err = %v, want config.ErrNotFound", err)
	}
}

func TestToggleHotkeyControlsRegistration(t *testing.T) {
	a := newTestApp(t)
	registerTestAction(t, a, "noise_gate", true)

	if err := a.AddHotkey("ctrl+alt+t", "noise_gate", true); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := a.ToggleHotkey("ctrl+alt+t", false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, enabled, _ := storedHotkey(a, "ctrl+alt+t"); enabled {
		t.Error("entry still enabled in store")
	}
	if isActive(a, "ctrl+alt+t") {
		t.Error("disabled hotkey still registered")
	}

	if err := a.ToggleHotkey("ctrl+alt+t", true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !isActive(a, "ctrl+alt+t") {
		t.Error("re-enabled hotkey not registered")
	}
}

func TestUpdateSettingPersists(t *testing.T) {
	a := newTestApp(t)

	if err := a.UpdateSetting(config.SettingShowNotifications, false); err != nil {
		t.Fatalf("UpdateSetting: %v", err)
	}
	if a.store.SettingBool(config.SettingShowNotifications, true) {
		t.Error("setting not persisted")
	}

	if err := a.UpdateSetting("", true); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestReloadConfigRebuildsFromFile(t *testing.T) {
	a := newTestApp(t)
	registerTestAction(t, a, "noise_gate", true)

	raw := []byte(`{
  "hotkeys": [{"hotkey": "ctrl+alt+f", "action": "noise_gate", "enabled": true}],
  "settings": {}
}`)
	if err := os.WriteFile(a.store.Path(), raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	registered := a.ReloadConfig()
	if registered != 1 {
		t.Errorf("registered = %d, want 1", registered)
	}
	if _, _, found := storedHotkey(a, "ctrl+alt+f"); !found {
		t.Error("reloaded entry missing from store")
	}
	if !isActive(a, "ctrl+alt+f") {
		t.Error("reloaded entry not registered")
	}
}

func TestRegistrableBindingsSkipsUnknownActions(t *testing.T) {
	a := newTestApp(t)
	registerTestAction(t, a, "noise_gate", true)

	// The default config carries toggle_main_window and toggle_system_mute,
	// neither registered in this test registry.
	if err := a.store.Add(config.Hotkey{Combination: "ctrl+alt+g", Action: "noise_gate", Enabled: true}); err != nil {
		t.Fatalf("store add: %v", err)
	}

	bindings := a.registrableBindings()
	if len(bindings) != 1 {
		t.Fatalf("registrable bindings = %d, want 1", len(bindings))
	}
	if bindings[0].Combination != "ctrl+alt+g" || bindings[0].ActionID != "noise_gate" {
		t.Errorf("unexpected binding %+v", bindings[0])
	}
}
