// Package actions provides the built-in action set and wires it into an
// action.Registry together with its OS collaborators.
package actions

import (
	"errors"
	"fmt"
	"log/slog"

	"hotkeyd/internal/action"
)

// AudioController is the slice of the audio manager the built-in actions
// drive.
type AudioController interface {
	ToggleSystemMute() bool
	MuteApp(appName string) bool
	UnmuteApp(appName string) bool
	ToggleAppMute(appName string) bool
	SetAppVolume(appName string, level float64) bool
}

// Deps carries the OS collaborators the built-in actions need. Function
// fields keep the seams narrow; tests substitute closures.
type Deps struct {
	Audio             AudioController
	LockWorkstation   func() error
	ForegroundProcess func() (string, error)
}

// RegisterDefaults registers every built-in action in declaration order. A
// failing registration is collected rather than aborting the rest, and the
// joined error is returned for startup logging.
func RegisterDefaults(reg *action.Registry, deps Deps) error {
	builtins := []struct {
		id string
		a  action.Action
	}{
		{"lock_screen", &lockScreenAction{lock: deps.LockWorkstation}},
		{"mute_app", &muteAppAction{audio: deps.Audio}},
		{"open_app", &openAppAction{}},
		{"set_app_volume", &setAppVolumeAction{audio: deps.Audio}},
		{"toggle_active_app_mute", &toggleActiveAppMuteAction{audio: deps.Audio, foreground: deps.ForegroundProcess}},
		{"toggle_main_window", &toggleMainWindowAction{}},
		{"toggle_system_mute", &toggleSystemMuteAction{audio: deps.Audio}},
	}

	var errs []error
	for _, b := range builtins {
		if err := reg.Register(b.id, b.a); err != nil {
			slog.Error("[action] failed to register built-in", "id", b.id, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.id, err))
		}
	}
	return errors.Join(errs...)
}

func f64(v float64) *float64 { return &v }
