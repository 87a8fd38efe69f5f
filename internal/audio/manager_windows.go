//go:build windows

package audio

import (
	"log/slog"

	"hotkeyd/internal/procutil"
)

// Manager talks to the default playback endpoint and its audio sessions. It
// is stateless; every call opens and releases its own COM objects, so
// concurrent hotkey callbacks never share an apartment.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// SystemVolume returns the master volume as 0.0..1.0, or 0.0 when the audio
// subsystem is unavailable.
func (m *Manager) SystemVolume() float64 {
	var level float64
	err := m.withEndpoint(func(v *endpointVolume) error {
		var err error
		level, err = v.masterVolume()
		return err
	})
	if err != nil {
		slog.Error("[audio] failed to read system volume", "error", err)
		return 0
	}
	return level
}

// SetSystemVolume sets the master volume, clamping level to 0.0..1.0.
func (m *Manager) SetSystemVolume(level float64) bool {
	level = min(max(level, 0), 1)
	err := m.withEndpoint(func(v *endpointVolume) error {
		return v.setMasterVolume(level)
	})
	if err != nil {
		slog.Error("[audio] failed to set system volume", "level", level, "error", err)
		return false
	}
	slog.Debug("[audio] system volume set", "level", level)
	return true
}

// SystemMuted reports whether the master endpoint is muted, or false when
// the audio subsystem is unavailable.
func (m *Manager) SystemMuted() bool {
	var muted bool
	err := m.withEndpoint(func(v *endpointVolume) error {
		var err error
		muted, err = v.muted()
		return err
	})
	if err != nil {
		slog.Error("[audio] failed to read system mute", "error", err)
		return false
	}
	return muted
}

// ToggleSystemMute flips the master mute state and reports success.
func (m *Manager) ToggleSystemMute() bool {
	var now bool
	err := m.withEndpoint(func(v *endpointVolume) error {
		muted, err := v.muted()
		if err != nil {
			return err
		}
		now = !muted
		return v.setMuted(now)
	})
	if err != nil {
		slog.Error("[audio] failed to toggle system mute", "error", err)
		return false
	}
	slog.Info("[audio] system mute toggled", "muted", now)
	return true
}

// MuteApp mutes every audio session owned by appName.
func (m *Manager) MuteApp(appName string) bool {
	return m.mutateSessions(appName, "mute", func(v *simpleVolume) error {
		return v.setMuted(true)
	})
}

// UnmuteApp unmutes every audio session owned by appName.
func (m *Manager) UnmuteApp(appName string) bool {
	return m.mutateSessions(appName, "unmute", func(v *simpleVolume) error {
		return v.setMuted(false)
	})
}

// ToggleAppMute flips the mute state of every session owned by appName.
func (m *Manager) ToggleAppMute(appName string) bool {
	return m.mutateSessions(appName, "toggle mute", func(v *simpleVolume) error {
		muted, err := v.muted()
		if err != nil {
			return err
		}
		return v.setMuted(!muted)
	})
}

// SetAppVolume sets the session volume for every session owned by appName,
// clamping level to 0.0..1.0.
func (m *Manager) SetAppVolume(appName string, level float64) bool {
	level = min(max(level, 0), 1)
	return m.mutateSessions(appName, "set volume", func(v *simpleVolume) error {
		return v.setVolume(level)
	})
}

// AppVolume returns the session volume for the first session owned by
// appName, or 0.0 when the app has no audio session.
func (m *Manager) AppVolume(appName string) float64 {
	var level float64
	found := false
	err := m.eachSession(func(name string, v *simpleVolume) (bool, error) {
		if !matchesApp(name, appName) {
			return false, nil
		}
		vol, err := v.volume()
		if err != nil {
			return false, err
		}
		level = vol
		found = true
		return true, nil
	})
	if err != nil {
		slog.Error("[audio] failed to read app volume", "app", appName, "error", err)
		return 0
	}
	if !found {
		slog.Debug("[audio] no audio session for app", "app", appName)
		return 0
	}
	return level
}

// mutateSessions applies mutate to every session whose process image matches
// appName and reports whether at least one session was changed. A failure on
// one session does not stop the walk.
func (m *Manager) mutateSessions(appName, op string, mutate func(*simpleVolume) error) bool {
	matched := 0
	var available []string
	err := m.eachSession(func(name string, v *simpleVolume) (bool, error) {
		available = append(available, name)
		if !matchesApp(name, appName) {
			return false, nil
		}
		if err := mutate(v); err != nil {
			slog.Warn("[audio] session update failed", "op", op, "app", appName, "process", name, "error", err)
			return false, nil
		}
		matched++
		return false, nil
	})
	if err != nil {
		slog.Error("[audio] session walk failed", "op", op, "app", appName, "error", err)
		return false
	}
	if matched == 0 {
		slog.Warn("[audio] no audio session for app", "op", op, "app", appName, "available", available)
		return false
	}
	slog.Info("[audio] sessions updated", "op", op, "app", appName, "sessions", matched)
	return true
}

// eachSession visits every process-owned audio session on the default
// playback device as (imageName, volumeControl). Sessions without a
// resolvable owning process are skipped. Returning stop ends the walk early.
func (m *Manager) eachSession(visit func(processName string, v *simpleVolume) (stop bool, err error)) error {
	return withCOM(func() error {
		enum, err := newDeviceEnumerator()
		if err != nil {
			return err
		}
		defer enum.Release()

		device, err := enum.defaultRenderDevice()
		if err != nil {
			return err
		}
		defer device.Release()

		manager, err := device.sessionManager()
		if err != nil {
			return err
		}
		defer manager.Release()

		sessions, err := manager.sessions()
		if err != nil {
			return err
		}
		defer sessions.Release()

		count, err := sessions.count()
		if err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			stop, err := visitSession(sessions, i, visit)
			if err != nil {
				return err
			}
			if stop {
				break
			}
		}
		return nil
	})
}

func visitSession(sessions *sessionEnumerator, index int, visit func(string, *simpleVolume) (bool, error)) (bool, error) {
	ctl, err := sessions.session(index)
	if err != nil {
		slog.Debug("[audio] skipping unreadable session", "index", index, "error", err)
		return false, nil
	}
	defer ctl.Release()

	if ctl.isSystemSounds() {
		return false, nil
	}
	pid, err := ctl.processID()
	if err != nil || pid == 0 {
		return false, nil
	}
	name, err := procutil.ImageBaseName(pid)
	if err != nil {
		slog.Debug("[audio] cannot resolve session process", "pid", pid, "error", err)
		return false, nil
	}

	vol, err := ctl.simpleVolume()
	if err != nil {
		slog.Debug("[audio] session has no volume control", "process", name, "error", err)
		return false, nil
	}
	defer vol.Release()

	return visit(name, vol)
}

func (m *Manager) withEndpoint(fn func(*endpointVolume) error) error {
	return withCOM(func() error {
		enum, err := newDeviceEnumerator()
		if err != nil {
			return err
		}
		defer enum.Release()

		device, err := enum.defaultRenderDevice()
		if err != nil {
			return err
		}
		defer device.Release()

		vol, err := device.endpointVolume()
		if err != nil {
			return err
		}
		defer vol.Release()

		return fn(vol)
	})
}
