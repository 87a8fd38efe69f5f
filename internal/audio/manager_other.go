//go:build !windows

package audio

import "log/slog"

// Manager is inert off Windows: reads return safe defaults and writes fail
// with a warning. Keeping the type portable lets the rest of the daemon
// build and test anywhere.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) SystemVolume() float64 {
	return 0
}

func (m *Manager) SetSystemVolume(level float64) bool {
	m.unsupported("set system volume")
	return false
}

func (m *Manager) SystemMuted() bool {
	return false
}

func (m *Manager) ToggleSystemMute() bool {
	m.unsupported("toggle system mute")
	return false
}

func (m *Manager) MuteApp(appName string) bool {
	m.unsupported("mute app")
	return false
}

func (m *Manager) UnmuteApp(appName string) bool {
	m.unsupported("unmute app")
	return false
}

func (m *Manager) ToggleAppMute(appName string) bool {
	m.unsupported("toggle app mute")
	return false
}

func (m *Manager) SetAppVolume(appName string, level float64) bool {
	m.unsupported("set app volume")
	return false
}

func (m *Manager) AppVolume(appName string) float64 {
	return 0
}

func (m *Manager) unsupported(op string) {
	slog.Warn("[audio] operation is not supported on this platform", "op", op)
}
