package actions

import (
	"log/slog"

	"hotkeyd/internal/action"
)

// toggleMainWindowAction exists so the settings UI can list and bind the
// action. Execution is owned by the application coordinator, which
// intercepts the id before registry dispatch; reaching Execute means that
// interception is miswired.
type toggleMainWindowAction struct{}

func (a *toggleMainWindowAction) Name() string { return "Toggle Main Window" }

func (a *toggleMainWindowAction) Description() string {
	return "Show or hide the hotkeyd settings window"
}

func (a *toggleMainWindowAction) Parameters() []action.Parameter { return nil }

func (a *toggleMainWindowAction) Execute(params map[string]any) bool {
	slog.Warn("[action] toggle_main_window must be dispatched by the application coordinator")
	return false
}
