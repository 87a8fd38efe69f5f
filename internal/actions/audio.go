package actions

import (
	"log/slog"
	"strings"

	"hotkeyd/internal/action"
)

// muteAppAction mutes, unmutes, or toggles the audio sessions of a named
// application.
type muteAppAction struct {
	audio AudioController
}

func (a *muteAppAction) Name() string { return "Mute Specific App" }

func (a *muteAppAction) Description() string {
	return "Mute or unmute a specific application by name"
}

func (a *muteAppAction) Parameters() []action.Parameter {
	return []action.Parameter{
		{
			Name:        "app_name",
			Type:        action.TypeString,
			Label:       "Application Name",
			Description: "Name of the application to mute (e.g., chrome.exe, spotify.exe)",
			Required:    true,
		},
		{
			Name:        "action",
			Type:        action.TypeChoice,
			Label:       "Action",
			Description: "Whether to mute, unmute, or toggle",
			Required:    true,
			Default:     "toggle",
			Choices:     []string{"mute", "unmute", "toggle"},
		},
	}
}

func (a *muteAppAction) Execute(params map[string]any) bool {
	appName := strings.TrimSpace(action.StringParam(params, "app_name", ""))
	if appName == "" {
		slog.Error("[action] mute app requires an app name")
		return false
	}
	switch action.StringParam(params, "action", "toggle") {
	case "mute":
		return a.audio.MuteApp(appName)
	case "unmute":
		return a.audio.UnmuteApp(appName)
	default:
		return a.audio.ToggleAppMute(appName)
	}
}

// setAppVolumeAction sets the session volume of a named application.
type setAppVolumeAction struct {
	audio AudioController
}

func (a *setAppVolumeAction) Name() string { return "Set App Volume" }

func (a *setAppVolumeAction) Description() string {
	return "Set the volume level for a specific application"
}

func (a *setAppVolumeAction) Parameters() []action.Parameter {
	return []action.Parameter{
		{
			Name:        "app_name",
			Type:        action.TypeString,
			Label:       "Application Name",
			Description: "Name of the application (e.g., chrome.exe, spotify.exe)",
			Required:    true,
		},
		{
			Name:        "volume",
			Type:        action.TypeNumber,
			Label:       "Volume Level",
			Description: "Volume level from 0.0 (silent) to 1.0 (maximum)",
			Required:    true,
			Default:     0.5,
			Min:         f64(0.0),
			Max:         f64(1.0),
		},
	}
}

func (a *setAppVolumeAction) Execute(params map[string]any) bool {
	appName := strings.TrimSpace(action.StringParam(params, "app_name", ""))
	if appName == "" {
		slog.Error("[action] set app volume requires an app name")
		return false
	}
	return a.audio.SetAppVolume(appName, action.NumberParam(params, "volume", 0.5))
}

// toggleActiveAppMuteAction toggles mute for whichever application owns the
// foreground window at the moment the hotkey fires.
type toggleActiveAppMuteAction struct {
	audio      AudioController
	foreground func() (string, error)
}

func (a *toggleActiveAppMuteAction) Name() string { return "Toggle Active App Audio Mute" }

func (a *toggleActiveAppMuteAction) Description() string {
	return "Toggle the audio mute state of the currently active application"
}

func (a *toggleActiveAppMuteAction) Parameters() []action.Parameter { return nil }

func (a *toggleActiveAppMuteAction) Execute(params map[string]any) bool {
	app, err := a.foreground()
	if err != nil {
		slog.Warn("[action] no active application to mute", "error", err)
		return false
	}
	return a.audio.ToggleAppMute(app)
}

// toggleSystemMuteAction flips the master mute state.
type toggleSystemMuteAction struct {
	audio AudioController
}

func (a *toggleSystemMuteAction) Name() string { return "Toggle System Audio Mute" }

func (a *toggleSystemMuteAction) Description() string {
	return "Toggle the system-wide audio mute state"
}

func (a *toggleSystemMuteAction) Parameters() []action.Parameter { return nil }

func (a *toggleSystemMuteAction) Execute(params map[string]any) bool {
	return a.audio.ToggleSystemMute()
}
