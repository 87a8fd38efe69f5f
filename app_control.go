package main

import (
	"fmt"
	"log/slog"
	"time"

	"hotkeyd/internal/ipc"
)

// Execute handles one control-pipe request. App satisfies ipc.Executor;
// requests arrive on pipe-connection goroutines. Second instances send
// activate before exiting, hotkeyctl sends any of the three verbs.
func (a *App) Execute(req ipc.Request) ipc.Response {
	slog.Debug("[ipc] control request", "op", req.Op)
	switch req.Op {
	case ipc.OpActivate:
		a.setWindowVisible(true, "ipc activate")
		return ipc.Response{OK: true}
	case ipc.OpStatus:
		s := a.statusSnapshot()
		data := map[string]any{
			"registered_hotkeys": s.RegisteredHotkeys,
			"stored_hotkeys":     s.StoredHotkeys,
			"actions":            s.Actions,
			"uptime_seconds":     s.UptimeSeconds,
			"system_volume":      s.SystemVolume,
			"system_muted":       s.SystemMuted,
			"active_window":      s.ActiveWindow,
			"config_path":        a.store.Path(),
			"started_at":         a.startedAt.Format(time.RFC3339),
		}
		if a.hub != nil {
			data["ui_url"] = a.hub.URL()
		}
		return ipc.Response{OK: true, Data: data}
	case ipc.OpReload:
		registered := a.ReloadConfig()
		return ipc.Response{OK: true, Data: map[string]any{
			"registered_hotkeys": registered,
		}}
	default:
		return ipc.Response{OK: false, Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}
