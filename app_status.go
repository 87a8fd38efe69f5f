package main

import (
	"context"
	"time"

	"hotkeyd/internal/uibridge"
	"hotkeyd/internal/winsys"
)

// statusInterval is the cadence of pushed status frames while a settings
// window is connected.
const statusInterval = 5 * time.Second

// statusSnapshot is the periodic status frame. Volume/mute/window values
// come from collaborators that return safe defaults on failure, so every
// field always holds a legitimate value.
type statusSnapshot struct {
	SystemVolume      float64 `json:"system_volume"`
	SystemMuted       bool    `json:"system_muted"`
	ActiveWindow      string  `json:"active_window"`
	RegisteredHotkeys int     `json:"registered_hotkeys"`
	StoredHotkeys     int     `json:"stored_hotkeys"`
	Actions           int     `json:"actions"`
	UptimeSeconds     int64   `json:"uptime_seconds"`
}

func (a *App) statusSnapshot() statusSnapshot {
	var uptime int64
	if !a.startedAt.IsZero() {
		uptime = int64(time.Since(a.startedAt).Seconds())
	}
	return statusSnapshot{
		SystemVolume:      a.audio.SystemVolume(),
		SystemMuted:       a.audio.SystemMuted(),
		ActiveWindow:      winsys.ForegroundWindowTitle(),
		RegisteredHotkeys: a.hotkeys.Len(),
		StoredHotkeys:     len(a.store.Hotkeys()),
		Actions:           a.registry.Len(),
		UptimeSeconds:     uptime,
	}
}

func (a *App) pushStatus() {
	a.pushFrame(uibridge.FrameStatus, a.statusSnapshot())
}

// statusLoop pushes a status frame every statusInterval while a settings
// window is connected. With no client the tick is skipped entirely; status
// is recomputed on demand, never cached.
func (a *App) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.hub != nil && a.hub.HasActiveConnection() {
				a.pushStatus()
			}
		}
	}
}
