package main

import (
	"log/slog"

	"hotkeyd/internal/config"
	"hotkeyd/internal/notify"
	"hotkeyd/internal/uibridge"
)

// actionToggleMainWindow is resolved by the coordinator itself, never
// forwarded to the registry: it mutates window state the registry has no
// access to. The registry still carries a stub under this id so the
// settings UI lists it like any other action.
const actionToggleMainWindow = "toggle_main_window"

// dispatch handles one hotkey press. It runs on a per-press goroutine
// spawned by the hotkey manager, concurrently with other presses; every
// effect on the settings UI travels as a frame over the bridge.
func (a *App) dispatch(actionID string) {
	if a.shuttingDown.Load() {
		return
	}
	slog.Debug("[app] hotkey dispatch", "action", actionID)

	if actionID == actionToggleMainWindow {
		a.toggleMainWindow()
		return
	}
	if a.registry.Execute(actionID, nil) {
		a.addLogMessage(slog.LevelInfo, "Hotkey action: "+actionID)
		a.notifyIfEnabled("Hotkey: " + actionID)
		return
	}
	a.addLogMessage(slog.LevelWarn, "Hotkey action failed: "+actionID)
	a.notifyIfEnabled("Action failed: " + actionID)
}

// RunQuickAction executes an action immediately on behalf of the settings
// UI ("run now" buttons). Same routing as dispatch, different log wording
// so the two entry points are distinguishable in the log surface.
func (a *App) RunQuickAction(actionID string) bool {
	if actionID == actionToggleMainWindow {
		a.toggleMainWindow()
		return true
	}
	if a.registry.Execute(actionID, nil) {
		a.addLogMessage(slog.LevelInfo, "Action executed: "+actionID)
		a.notifyIfEnabled("Executed: " + actionID)
		return true
	}
	a.addLogMessage(slog.LevelWarn, "Action failed: "+actionID)
	return false
}

// notifyIfEnabled raises a toast when the show_notifications setting is on.
func (a *App) notifyIfEnabled(body string) {
	if a.store.SettingBool(config.SettingShowNotifications, true) {
		notify.Send("hotkeyd", body)
	}
}

// toggleMainWindow flips the tracked window visibility and tells the UI
// client over the bridge. The UI owns the actual window; this is a
// message-passing boundary, not direct mutation.
func (a *App) toggleMainWindow() {
	a.windowMu.Lock()
	a.windowVisible = !a.windowVisible
	visible := a.windowVisible
	a.windowMu.Unlock()

	slog.Info("[app] toggling main window", "visible", visible)
	a.pushFrame(uibridge.FrameWindow, map[string]any{"visible": visible})
}

// setWindowVisible sets the tracked visibility to an explicit state, used
// by the tray "Open Settings" entry and ipc activation.
func (a *App) setWindowVisible(visible bool, reason string) {
	a.windowMu.Lock()
	changed := a.windowVisible != visible
	a.windowVisible = visible
	a.windowMu.Unlock()

	if changed {
		slog.Info("[app] window visibility changed", "visible", visible, "reason", reason)
	}
	// Push unconditionally: an activate request should surface the window
	// even when the coordinator already believed it visible.
	a.pushFrame(uibridge.FrameWindow, map[string]any{"visible": visible})
}

// windowIsVisible reports the coordinator's view of the settings window.
func (a *App) windowIsVisible() bool {
	a.windowMu.Lock()
	defer a.windowMu.Unlock()
	return a.windowVisible
}
