package actions

import (
	"errors"
	"reflect"
	"runtime"
	"testing"

	"hotkeyd/internal/action"
)

type fakeAudio struct {
	calls     []string
	lastApp   string
	lastLevel float64
	fail      bool
}

func (f *fakeAudio) ToggleSystemMute() bool {
	f.calls = append(f.calls, "toggle_system")
	return !f.fail
}

func (f *fakeAudio) MuteApp(app string) bool {
	f.calls = append(f.calls, "mute")
	f.lastApp = app
	return !f.fail
}

func (f *fakeAudio) UnmuteApp(app string) bool {
	f.calls = append(f.calls, "unmute")
	f.lastApp = app
	return !f.fail
}

func (f *fakeAudio) ToggleAppMute(app string) bool {
	f.calls = append(f.calls, "toggle")
	f.lastApp = app
	return !f.fail
}

func (f *fakeAudio) SetAppVolume(app string, level float64) bool {
	f.calls = append(f.calls, "set_volume")
	f.lastApp = app
	f.lastLevel = level
	return !f.fail
}

func testDeps(audio *fakeAudio) Deps {
	return Deps{
		Audio:             audio,
		LockWorkstation:   func() error { return nil },
		ForegroundProcess: func() (string, error) { return "chrome.exe", nil },
	}
}

func TestRegisterDefaults(t *testing.T) {
	reg := action.NewRegistry()
	if err := RegisterDefaults(reg, testDeps(&fakeAudio{})); err != nil {
		t.Fatalf("RegisterDefaults returned error: %v", err)
	}
	want := []string{
		"lock_screen",
		"mute_app",
		"open_app",
		"set_app_volume",
		"toggle_active_app_mute",
		"toggle_main_window",
		"toggle_system_mute",
	}
	if got := reg.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}

	// A second pass collides on every id but leaves the first set intact.
	err := RegisterDefaults(reg, testDeps(&fakeAudio{}))
	if !errors.Is(err, action.ErrDuplicateAction) {
		t.Fatalf("second RegisterDefaults error = %v, want ErrDuplicateAction", err)
	}
	if reg.Len() != len(want) {
		t.Errorf("Len after duplicate registration = %d, want %d", reg.Len(), len(want))
	}
}

func TestLockScreen(t *testing.T) {
	a := &lockScreenAction{lock: func() error { return nil }}
	if !a.Execute(nil) {
		t.Error("Execute returned false for a successful lock")
	}

	a = &lockScreenAction{lock: func() error { return errors.New("denied") }}
	if a.Execute(nil) {
		t.Error("Execute returned true for a failed lock")
	}
}

func TestMuteAppModes(t *testing.T) {
	cases := []struct {
		mode string
		want string
	}{
		{"mute", "mute"},
		{"unmute", "unmute"},
		{"toggle", "toggle"},
		{"", "toggle"}, // absent mode falls back to toggle
	}
	for _, tc := range cases {
		t.Run("mode "+tc.mode, func(t *testing.T) {
			audio := &fakeAudio{}
			a := &muteAppAction{audio: audio}
			params := map[string]any{"app_name": "spotify.exe"}
			if tc.mode != "" {
				params["action"] = tc.mode
			}
			if !a.Execute(params) {
				t.Fatal("Execute returned false")
			}
			if !reflect.DeepEqual(audio.calls, []string{tc.want}) {
				t.Errorf("calls = %v, want [%s]", audio.calls, tc.want)
			}
			if audio.lastApp != "spotify.exe" {
				t.Errorf("app = %q, want spotify.exe", audio.lastApp)
			}
		})
	}
}

func TestMuteAppEmptyName(t *testing.T) {
	audio := &fakeAudio{}
	a := &muteAppAction{audio: audio}
	if a.Execute(map[string]any{"app_name": "   "}) {
		t.Error("Execute returned true for a blank app name")
	}
	if len(audio.calls) != 0 {
		t.Errorf("audio was called despite blank app name: %v", audio.calls)
	}
}

func TestSetAppVolume(t *testing.T) {
	audio := &fakeAudio{}
	a := &setAppVolumeAction{audio: audio}
	if !a.Execute(map[string]any{"app_name": "chrome.exe", "volume": 0.25}) {
		t.Fatal("Execute returned false")
	}
	if audio.lastApp != "chrome.exe" || audio.lastLevel != 0.25 {
		t.Errorf("SetAppVolume(%q, %v), want (chrome.exe, 0.25)", audio.lastApp, audio.lastLevel)
	}

	// Missing volume falls back to the declared default.
	audio = &fakeAudio{}
	a = &setAppVolumeAction{audio: audio}
	if !a.Execute(map[string]any{"app_name": "chrome.exe"}) {
		t.Fatal("Execute returned false without volume")
	}
	if audio.lastLevel != 0.5 {
		t.Errorf("default level = %v, want 0.5", audio.lastLevel)
	}
}

func TestToggleActiveAppMute(t *testing.T) {
	audio := &fakeAudio{}
	a := &toggleActiveAppMuteAction{
		audio:      audio,
		foreground: func() (string, error) { return "firefox.exe", nil },
	}
	if !a.Execute(nil) {
		t.Fatal("Execute returned false")
	}
	if audio.lastApp != "firefox.exe" {
		t.Errorf("toggled %q, want firefox.exe", audio.lastApp)
	}

	audio = &fakeAudio{}
	a = &toggleActiveAppMuteAction{
		audio:      audio,
		foreground: func() (string, error) { return "", errors.New("no foreground window") },
	}
	if a.Execute(nil) {
		t.Error("Execute returned true with no foreground process")
	}
	if len(audio.calls) != 0 {
		t.Errorf("audio was called despite missing foreground process: %v", audio.calls)
	}
}

func TestToggleSystemMute(t *testing.T) {
	audio := &fakeAudio{}
	a := &toggleSystemMuteAction{audio: audio}
	if !a.Execute(nil) {
		t.Fatal("Execute returned false")
	}
	if !reflect.DeepEqual(audio.calls, []string{"toggle_system"}) {
		t.Errorf("calls = %v, want [toggle_system]", audio.calls)
	}

	audio = &fakeAudio{fail: true}
	a = &toggleSystemMuteAction{audio: audio}
	if a.Execute(nil) {
		t.Error("Execute returned true when the audio layer failed")
	}
}

func TestToggleMainWindowRefusesDirectExecution(t *testing.T) {
	a := &toggleMainWindowAction{}
	if a.Execute(nil) {
		t.Error("Execute returned true; the coordinator owns this action")
	}
}

func TestOpenApp(t *testing.T) {
	a := &openAppAction{}
	if a.Execute(map[string]any{"target": ""}) {
		t.Error("Execute returned true for an empty target")
	}
	if a.Execute(map[string]any{"target": "no-such-binary-kjzx"}) {
		t.Error("Execute returned true for an unresolvable target")
	}

	target, args := "true", ""
	if runtime.GOOS == "windows" {
		target, args = "cmd.exe", "/c exit"
	}
	if !a.Execute(map[string]any{"target": target, "args": args}) {
		t.Fatal("Execute returned false for a launchable target")
	}
}

func TestMuteAppSchema(t *testing.T) {
	a := &muteAppAction{}
	params := a.Parameters()
	if len(params) != 2 {
		t.Fatalf("Parameters returned %d entries, want 2", len(params))
	}
	mode := params[1]
	if mode.Name != "action" || mode.Type != action.TypeChoice {
		t.Fatalf("second parameter = %+v, want the action choice", mode)
	}
	if mode.Default != "toggle" {
		t.Errorf("default = %v, want toggle", mode.Default)
	}
	if !reflect.DeepEqual(mode.Choices, []string{"mute", "unmute", "toggle"}) {
		t.Errorf("choices = %v", mode.Choices)
	}
}

// TestRegistryDispatch runs a built-in through the registry so parameter
// validation and fail-soft dispatch are exercised together.
func TestRegistryDispatch(t *testing.T) {
	audio := &fakeAudio{}
	reg := action.NewRegistry()
	if err := RegisterDefaults(reg, testDeps(audio)); err != nil {
		t.Fatalf("RegisterDefaults returned error: %v", err)
	}

	if !reg.Execute("mute_app", map[string]any{"app_name": "chrome.exe", "action": "mute"}) {
		t.Fatal("Execute(mute_app) returned false")
	}
	if audio.lastApp != "chrome.exe" {
		t.Errorf("muted %q, want chrome.exe", audio.lastApp)
	}

	// An out-of-set choice is rejected by validation before the action runs.
	before := len(audio.calls)
	if reg.Execute("mute_app", map[string]any{"app_name": "chrome.exe", "action": "silence"}) {
		t.Error("Execute accepted an invalid choice")
	}
	if len(audio.calls) != before {
		t.Error("action ran despite failed validation")
	}
}
