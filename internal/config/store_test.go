package config

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := newConfigPathForSaveTest(t, "config.json")
	s := NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return s
}

func readStoreFile(t *testing.T, s *Store) string {
	t.Helper()
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile(%q): %v", s.Path(), err)
	}
	return string(raw)
}

func TestStoreLoadWritesDefaultFile(t *testing.T) {
	s := newTestStore(t)
	if _, err := os.Stat(s.Path()); err != nil {
		t.Fatalf("config file missing after Load: %v", err)
	}
	if got := len(s.Hotkeys()); got != len(DefaultConfig().Hotkeys) {
		t.Errorf("Hotkeys() len = %d, want %d", got, len(DefaultConfig().Hotkeys))
	}
}

func TestStoreLoadCorruptFileKeepsFileIntact(t *testing.T) {
	path := newConfigPathForSaveTest(t, "config.json")
	if err := os.MkdirAll(strings.TrimSuffix(path, "config.json"), 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	corrupt := "{broken"
	if err := os.WriteFile(path, []byte(corrupt), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := NewStore(path)
	if err := s.Load(); err == nil {
		t.Fatal("Load of corrupt file returned nil error")
	}
	if got := readStoreFile(t, s); got != corrupt {
		t.Error("Load overwrote the corrupt file")
	}
	// Defaults are live in memory despite the corrupt file.
	if len(s.Hotkeys()) == 0 {
		t.Error("no hotkeys in memory after corrupt-file fallback")
	}
}

// TestStoreAddEnforcesUniqueness covers the add-twice sequence: the second
// add for the same combination replaces the first entirely.
func TestStoreAddEnforcesUniqueness(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add(Hotkey{Combination: "ctrl+alt+m", Action: "toggle_system_mute", Enabled: true}); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := s.Add(Hotkey{Combination: "ctrl+alt+m", Action: "lock_screen", Enabled: true}); err != nil {
		t.Fatalf("second Add: %v", err)
	}

	count := 0
	var got Hotkey
	for _, h := range s.Hotkeys() {
		if h.Combination == "ctrl+alt+m" {
			count++
			got = h
		}
	}
	if count != 1 {
		t.Fatalf("found %d entries for ctrl+alt+m, want exactly 1", count)
	}
	if got.Action != "lock_screen" {
		t.Errorf("surviving action = %q, want %q", got.Action, "lock_screen")
	}
}

func TestStoreAddNormalizesCase(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add(Hotkey{Combination: "Ctrl+Alt+P", Action: "lock_screen", Enabled: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(Hotkey{Combination: "ctrl+alt+p", Action: "mute_app", Enabled: true}); err != nil {
		t.Fatalf("Add lowercase: %v", err)
	}
	count := 0
	for _, h := range s.Hotkeys() {
		if h.Combination == "ctrl+alt+p" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("found %d entries, want 1 (case-insensitive identity)", count)
	}
}

func TestStoreAddRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add(Hotkey{Combination: "", Action: "lock_screen"}); err == nil {
		t.Error("Add with empty combination succeeded")
	}
	if err := s.Add(Hotkey{Combination: "ctrl+a", Action: ""}); err == nil {
		t.Error("Add with empty action succeeded")
	}
}

// TestStorePersistsEveryMutation verifies each mutating operation reaches
// the file immediately, with no batching.
func TestStorePersistsEveryMutation(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add(Hotkey{Combination: "ctrl+1", Action: "lock_screen", Enabled: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.Contains(readStoreFile(t, s), "ctrl+1") {
		t.Error("Add not persisted")
	}

	if err := s.Update("ctrl+1", Hotkey{Combination: "ctrl+2", Action: "lock_screen", Enabled: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	content := readStoreFile(t, s)
	if strings.Contains(content, "ctrl+1") || !strings.Contains(content, "ctrl+2") {
		t.Error("Update not persisted")
	}

	if err := s.SetEnabled("ctrl+2", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	for _, h := range s.Hotkeys() {
		if h.Combination == "ctrl+2" && h.Enabled {
			t.Error("SetEnabled(false) not applied")
		}
	}

	if err := s.Remove("ctrl+2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if strings.Contains(readStoreFile(t, s), "ctrl+2") {
		t.Error("Remove not persisted")
	}

	if err := s.UpdateSetting("show_notifications", false); err != nil {
		t.Fatalf("UpdateSetting: %v", err)
	}
	if s.SettingBool("show_notifications", true) {
		t.Error("UpdateSetting not applied")
	}
}

func TestStoreUpdateMovesCombination(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add(Hotkey{Combination: "ctrl+a", Action: "lock_screen", Enabled: true}); err != nil {
		t.Fatalf("Add ctrl+a: %v", err)
	}
	if err := s.Add(Hotkey{Combination: "ctrl+b", Action: "mute_app", Enabled: true}); err != nil {
		t.Fatalf("Add ctrl+b: %v", err)
	}

	// Rename ctrl+a onto ctrl+b: the old ctrl+b entry must disappear.
	if err := s.Update("ctrl+a", Hotkey{Combination: "ctrl+b", Action: "lock_screen", Enabled: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	count := 0
	var got Hotkey
	for _, h := range s.Hotkeys() {
		if h.Combination == "ctrl+b" {
			count++
			got = h
		}
	}
	if count != 1 {
		t.Fatalf("found %d entries for ctrl+b, want 1", count)
	}
	if got.Action != "lock_screen" {
		t.Errorf("action = %q, want lock_screen", got.Action)
	}
	for _, h := range s.Hotkeys() {
		if h.Combination == "ctrl+a" {
			t.Error("old combination ctrl+a still present")
		}
	}
}

func TestStoreUpdateNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Update("ctrl+nope", Hotkey{Combination: "ctrl+x", Action: "lock_screen"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}
}

func TestStoreRemoveNotFound(t *testing.T) {
	s := newTestStore(t)
	before := len(s.Hotkeys())
	err := s.Remove("ctrl+nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove error = %v, want ErrNotFound", err)
	}
	if len(s.Hotkeys()) != before {
		t.Error("failed Remove altered the stored list")
	}
}

func TestStoreSetEnabledNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetEnabled("ctrl+nope", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetEnabled error = %v, want ErrNotFound", err)
	}
}

func TestStoreHotkeysFiltersInvalidEntries(t *testing.T) {
	s := newTestStore(t)
	// Write a file containing one invalid entry directly, bypassing Add.
	raw := `{
  "hotkeys": [
    {"hotkey": "ctrl+a", "action": "lock_screen", "enabled": true},
    {"hotkey": "", "action": "lock_screen", "enabled": true},
    {"hotkey": "ctrl+b", "action": "", "enabled": true}
  ],
  "settings": {}
}`
	if err := os.WriteFile(s.Path(), []byte(raw), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	hotkeys := s.Hotkeys()
	if len(hotkeys) != 1 {
		t.Fatalf("Hotkeys() returned %d entries, want 1 valid", len(hotkeys))
	}
	if hotkeys[0].Combination != "ctrl+a" {
		t.Errorf("surviving combination = %q, want ctrl+a", hotkeys[0].Combination)
	}

	// The invalid entries stay in storage; filtering is read-side only.
	snapshot := s.Snapshot()
	if len(snapshot.Hotkeys) != 3 {
		t.Errorf("stored entries = %d, want 3", len(snapshot.Hotkeys))
	}
}

func TestStoreIsSelfWrite(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add(Hotkey{Combination: "ctrl+9", Action: "lock_screen", Enabled: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !s.IsSelfWrite(raw) {
		t.Error("IsSelfWrite = false for the store's own write")
	}
	if s.IsSelfWrite([]byte(`{"hotkeys": []}`)) {
		t.Error("IsSelfWrite = true for foreign content")
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := newTestStore(t)
	snap := s.Snapshot()
	snap.Settings["start_minimized"] = "tampered"
	if v, _ := s.Setting("start_minimized"); v == "tampered" {
		t.Error("Snapshot shares the settings map with the store")
	}
}

func TestStoreSettingHelpers(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpdateSetting("ui_port", 17893.0); err != nil {
		t.Fatalf("UpdateSetting: %v", err)
	}
	if got := s.SettingInt("ui_port", 0); got != 17893 {
		t.Errorf("SettingInt = %d, want 17893", got)
	}
	if got := s.SettingInt("missing", 42); got != 42 {
		t.Errorf("SettingInt default = %d, want 42", got)
	}
	if got := s.SettingBool("start_minimized", false); !got {
		t.Error("SettingBool = false, want default config true")
	}
	if got := s.SettingBool("ui_port", true); !got {
		t.Error("SettingBool on mistyped value should fall back to default")
	}
	if err := s.UpdateSetting("", 1); err == nil {
		t.Error("UpdateSetting with empty key succeeded")
	}
}
