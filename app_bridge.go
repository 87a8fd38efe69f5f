package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"hotkeyd/internal/keymap"
	"hotkeyd/internal/uibridge"
)

// hotkeyPayload is the edit payload shared by the add/update/remove/toggle
// requests. Enabled is a pointer so "absent" and "false" stay distinct for
// toggle requests.
type hotkeyPayload struct {
	OldCombination string `json:"old_combination,omitempty"`
	Combination    string `json:"combination"`
	Action         string `json:"action,omitempty"`
	Enabled        *bool  `json:"enabled,omitempty"`
}

type settingPayload struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type quickActionPayload struct {
	Action string `json:"action"`
}

// hotkeyView is the UI-facing shape of one binding: the canonical
// combination plus its display tokens, and whether an OS hook is live.
type hotkeyView struct {
	Combination string   `json:"combination"`
	Display     []string `json:"display,omitempty"`
	Action      string   `json:"action"`
	Enabled     bool     `json:"enabled"`
	Registered  bool     `json:"registered"`
}

// handleBridgeRequest consumes one decoded request from the settings UI. It
// runs on the bridge's read goroutine; edit rejections flow back to the UI
// as log frames carrying the validation message.
func (a *App) handleBridgeRequest(req uibridge.Request) {
	switch req.Type {
	case uibridge.OpAddHotkey:
		var p hotkeyPayload
		if !a.decodeBridgePayload(req, &p) {
			return
		}
		enabled := true
		if p.Enabled != nil {
			enabled = *p.Enabled
		}
		if err := a.AddHotkey(p.Combination, p.Action, enabled); err != nil {
			a.reportEditError("add hotkey", err)
		}
	case uibridge.OpUpdateHotkey:
		var p hotkeyPayload
		if !a.decodeBridgePayload(req, &p) {
			return
		}
		enabled := true
		if p.Enabled != nil {
			enabled = *p.Enabled
		}
		if err := a.UpdateHotkey(p.OldCombination, p.Combination, p.Action, enabled); err != nil {
			a.reportEditError("update hotkey", err)
		}
	case uibridge.OpRemoveHotkey:
		var p hotkeyPayload
		if !a.decodeBridgePayload(req, &p) {
			return
		}
		if err := a.RemoveHotkey(p.Combination); err != nil {
			a.reportEditError("remove hotkey", err)
		}
	case uibridge.OpToggleHotkey:
		var p hotkeyPayload
		if !a.decodeBridgePayload(req, &p) {
			return
		}
		enabled := false
		if p.Enabled != nil {
			enabled = *p.Enabled
		}
		if err := a.ToggleHotkey(p.Combination, enabled); err != nil {
			a.reportEditError("toggle hotkey", err)
		}
	case uibridge.OpQuickAction:
		var p quickActionPayload
		if !a.decodeBridgePayload(req, &p) {
			return
		}
		a.RunQuickAction(p.Action)
	case uibridge.OpUpdateSetting:
		var p settingPayload
		if !a.decodeBridgePayload(req, &p) {
			return
		}
		if err := a.UpdateSetting(p.Key, p.Value); err != nil {
			a.reportEditError("update setting", err)
		}
	case uibridge.OpRequestState:
		a.pushFullState()
	default:
		slog.Warn("[ws] unhandled request type", "type", req.Type)
	}
}

func (a *App) decodeBridgePayload(req uibridge.Request, into any) bool {
	if err := json.Unmarshal(req.Data, into); err != nil {
		slog.Warn("[ws] malformed request payload", "type", req.Type, "error", err)
		return false
	}
	return true
}

// reportEditError routes a rejected UI edit back through the log surface.
// Edits are validated before commit; a rejection here means the UI let a
// bad value through or raced an external config change.
func (a *App) reportEditError(op string, err error) {
	a.addLogMessage(slog.LevelError, fmt.Sprintf("Failed to %s: %v", op, err))
}

// pushFullState sends everything a freshly connected settings window needs:
// the action catalog, current bindings, settings, status, window visibility,
// and the recent log backlog.
func (a *App) pushFullState() {
	a.pushActions()
	a.pushHotkeys()
	a.pushSettings()
	a.pushStatus()
	a.pushFrame(uibridge.FrameWindow, map[string]any{"visible": a.windowIsVisible()})
	a.pushFrame(uibridge.FrameLog, a.recentLogEntries(maxLogEntries))
}

// pushActions publishes the registry catalog for the UI's action picker.
func (a *App) pushActions() {
	a.pushFrame(uibridge.FrameActions, a.registry.Describe())
}

// pushHotkeys publishes the stored bindings decorated with display tokens
// and live-registration state. The UI reflects configuration, not the live
// set: an entry whose registration failed still shows, flagged unregistered.
func (a *App) pushHotkeys() {
	live := make(map[string]bool)
	for _, combo := range a.hotkeys.Active() {
		live[combo] = true
	}

	stored := a.store.Hotkeys()
	views := make([]hotkeyView, 0, len(stored))
	for _, h := range stored {
		view := hotkeyView{
			Combination: h.Combination,
			Action:      h.Action,
			Enabled:     h.Enabled,
			Registered:  live[h.Combination],
		}
		if display, err := keymap.InternalToDisplay(h.Combination); err == nil {
			view.Display = display
		}
		views = append(views, view)
	}
	a.pushFrame(uibridge.FrameHotkeys, views)
}

// pushSettings publishes the free-form settings map.
func (a *App) pushSettings() {
	a.pushFrame(uibridge.FrameSettings, a.store.Snapshot().Settings)
}
