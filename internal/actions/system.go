package actions

import (
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"hotkeyd/internal/action"
	"hotkeyd/internal/procutil"
)

// lockScreenAction locks the interactive session.
type lockScreenAction struct {
	lock func() error
}

func (a *lockScreenAction) Name() string { return "Lock Screen" }

func (a *lockScreenAction) Description() string { return "Lock the Windows screen" }

func (a *lockScreenAction) Parameters() []action.Parameter { return nil }

func (a *lockScreenAction) Execute(params map[string]any) bool {
	if err := a.lock(); err != nil {
		slog.Error("[action] failed to lock screen", "error", err)
		return false
	}
	slog.Info("[action] screen locked")
	return true
}

// openAppAction launches a program or script without waiting for it.
type openAppAction struct{}

func (a *openAppAction) Name() string { return "Open Application" }

func (a *openAppAction) Description() string { return "Launch an application or run a script" }

func (a *openAppAction) Parameters() []action.Parameter {
	return []action.Parameter{
		{
			Name:        "target",
			Type:        action.TypeString,
			Label:       "Application Path",
			Description: "Path or name of the program to launch (e.g., notepad.exe)",
			Required:    true,
		},
		{
			Name:        "args",
			Type:        action.TypeString,
			Label:       "Arguments",
			Description: "Optional command-line arguments",
		},
	}
}

func (a *openAppAction) Execute(params map[string]any) bool {
	target := strings.TrimSpace(action.StringParam(params, "target", ""))
	if target == "" {
		slog.Error("[action] open application requires a target")
		return false
	}

	path := target
	if _, err := os.Stat(path); err != nil {
		resolved, lookErr := exec.LookPath(target)
		if lookErr != nil {
			slog.Error("[action] launch target not found", "target", target)
			return false
		}
		path = resolved
	}

	cmd := exec.Command(path, strings.Fields(action.StringParam(params, "args", ""))...)
	procutil.HideWindow(cmd)
	if err := cmd.Start(); err != nil {
		slog.Error("[action] failed to launch", "target", target, "error", err)
		return false
	}
	pid := cmd.Process.Pid
	// Fire and forget; the child is never waited on.
	_ = cmd.Process.Release()
	slog.Info("[action] application launched", "target", target, "pid", pid)
	return true
}
