// Package uibridge is the websocket bridge between the daemon and the
// settings UI.
//
// # Wire protocol
//
// Every message is a JSON text frame. Outbound frames carry a type tag and a
// type-specific payload:
//
//	{"type": "status", "data": {...}}
//
// with types status, hotkeys, actions, log, window, and settings. Inbound
// requests use the same envelope with types add_hotkey, update_hotkey,
// remove_hotkey, toggle_hotkey, quick_action, update_setting, and
// request_state. One client is active at a time; a new connection replaces
// the previous one so a reloaded settings window takes over cleanly.
package uibridge

import "encoding/json"

// Outbound frame types pushed to the settings UI.
const (
	FrameStatus   = "status"
	FrameHotkeys  = "hotkeys"
	FrameActions  = "actions"
	FrameLog      = "log"
	FrameWindow   = "window"
	FrameSettings = "settings"
)

// Inbound request types accepted from the settings UI.
const (
	OpAddHotkey     = "add_hotkey"
	OpUpdateHotkey  = "update_hotkey"
	OpRemoveHotkey  = "remove_hotkey"
	OpToggleHotkey  = "toggle_hotkey"
	OpQuickAction   = "quick_action"
	OpUpdateSetting = "update_setting"
	OpRequestState  = "request_state"
)

// knownOps is the set of request types the hub forwards to its handler.
var knownOps = map[string]bool{
	OpAddHotkey:     true,
	OpUpdateHotkey:  true,
	OpRemoveHotkey:  true,
	OpToggleHotkey:  true,
	OpQuickAction:   true,
	OpUpdateSetting: true,
	OpRequestState:  true,
}

// frame is the outbound envelope.
type frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Request is one decoded message from the settings UI. Data is left raw; the
// handler decodes it per request type.
type Request struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Handler consumes decoded UI requests. The hub calls it from the
// connection's read goroutine; implementations do their own locking.
type Handler func(req Request)
