package main

import (
	"fmt"
	"log/slog"

	"hotkeyd/internal/config"
	"hotkeyd/internal/keymap"
)

// AddHotkey validates and persists a new binding, then rebuilds the live
// registration set. The store is the source of truth: when persistence
// succeeds but re-registration partially fails, the entry stays and the
// failure surfaces in the log.
func (a *App) AddHotkey(combination, actionID string, enabled bool) error {
	a.editMu.Lock()
	defer a.editMu.Unlock()

	normalized, err := keymap.Normalize(combination)
	if err != nil {
		return fmt.Errorf("invalid combination %q: %w", combination, err)
	}
	if _, known := a.registry.Get(actionID); !known {
		return fmt.Errorf("unknown action %q", actionID)
	}
	if err := a.store.Add(config.Hotkey{Combination: normalized, Action: actionID, Enabled: enabled}); err != nil {
		return err
	}
	a.resyncHotkeysLocked()
	a.addLogMessage(slog.LevelInfo, fmt.Sprintf("Added hotkey: %s -> %s", normalized, actionID))
	return nil
}

// UpdateHotkey replaces the binding stored under oldCombination, possibly
// changing its combination, action, and enabled flag at once.
func (a *App) UpdateHotkey(oldCombination, combination, actionID string, enabled bool) error {
	a.editMu.Lock()
	defer a.editMu.Unlock()

	normalized, err := keymap.Normalize(combination)
	if err != nil {
		return fmt.Errorf("invalid combination %q: %w", combination, err)
	}
	if _, known := a.registry.Get(actionID); !known {
		return fmt.Errorf("unknown action %q", actionID)
	}
	next := config.Hotkey{Combination: normalized, Action: actionID, Enabled: enabled}
	if err := a.store.Update(oldCombination, next); err != nil {
		return err
	}
	a.resyncHotkeysLocked()
	a.addLogMessage(slog.LevelInfo, fmt.Sprintf("Modified hotkey: %s -> %s", oldCombination, normalized))
	return nil
}

// RemoveHotkey deletes the binding for combination.
func (a *App) RemoveHotkey(combination string) error {
	a.editMu.Lock()
	defer a.editMu.Unlock()

	if err := a.store.Remove(combination); err != nil {
		return err
	}
	a.resyncHotkeysLocked()
	a.addLogMessage(slog.LevelInfo, "Removed hotkey: "+combination)
	return nil
}

// ToggleHotkey enables or disables the binding for combination without
// removing it from configuration.
func (a *App) ToggleHotkey(combination string, enabled bool) error {
	a.editMu.Lock()
	defer a.editMu.Unlock()

	if err := a.store.SetEnabled(combination, enabled); err != nil {
		return err
	}
	a.resyncHotkeysLocked()
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	a.addLogMessage(slog.LevelInfo, fmt.Sprintf("Hotkey %s: %s", state, combination))
	return nil
}

// UpdateSetting merges one settings key and pushes the fresh settings map
// to the UI. Settings take effect on their next read; nothing is restarted.
func (a *App) UpdateSetting(key string, value any) error {
	a.editMu.Lock()
	defer a.editMu.Unlock()

	if err := a.store.UpdateSetting(key, value); err != nil {
		return err
	}
	a.pushSettings()
	slog.Info("[config] setting updated", "key", key)
	return nil
}

// ReloadConfig re-reads the backing file and rebuilds every registration
// from it. Used by the control pipe, the tray menu, and the file watcher.
// Returns the number of live registrations after the rebuild.
func (a *App) ReloadConfig() int {
	a.editMu.Lock()
	defer a.editMu.Unlock()

	if _, err := a.store.Reload(); err != nil {
		slog.Warn("[config] reload kept previous values where the file was unreadable",
			"path", a.store.Path(), "error", err)
	}
	a.resyncHotkeysLocked()
	a.pushSettings()
	return a.hotkeys.Len()
}

// onExternalConfigChange runs on the watcher goroutine after an external
// edit of the config file settles.
func (a *App) onExternalConfigChange() {
	slog.Info("[config] external change detected, reloading", "path", a.store.Path())
	registered := a.ReloadConfig()
	a.addLogMessage(slog.LevelInfo, fmt.Sprintf("Configuration reloaded (%d hotkeys active)", registered))
}

// resyncHotkeysLocked rebuilds the live registration set from the store and
// pushes the result to the UI. The manager never diffs; a full clear and
// re-register is the only consistency mechanism. Callers hold editMu.
func (a *App) resyncHotkeysLocked() {
	registered := a.hotkeys.Reload(a.registrableBindings(), a.dispatch)
	slog.Debug("[hotkey] registrations rebuilt", "registered", registered)
	a.pushHotkeys()
	a.pushStatus()
}
