package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"hotkeyd/internal/action"
	"hotkeyd/internal/audio"
	"hotkeyd/internal/config"
	"hotkeyd/internal/hotkeys"
	"hotkeyd/internal/ipc"
	"hotkeyd/internal/sessionlog"
	"hotkeyd/internal/uibridge"
)

// App is the application coordinator. It owns the configuration store, the
// action registry, and the hotkey manager, and sequences every operation
// that spans more than one of them: a hotkey edit persists to the store,
// rebuilds the live registration set, and pushes the result to the settings
// UI as one unit.
type App struct {
	// Runtime context lifecycle. Set once in startup before any worker runs.
	ctx    context.Context
	cancel context.CancelFunc

	// Core collaborators, constructed in NewApp and never reassigned.
	store    *config.Store
	registry *action.Registry
	hotkeys  *hotkeys.Manager
	audio    *audio.Manager

	// hub and pipeServer are set during startup; either may stay nil when
	// its listener failed to come up (the daemon still runs, the settings
	// UI or hotkeyctl just cannot reach it). All pushes go through
	// pushFrame, which tolerates a nil hub.
	hub        *uibridge.Hub
	pipeServer *ipc.PipeServer

	// editMu serializes config-mutating operations end to end: store write,
	// registration rebuild, and UI push happen under one critical section.
	// The store and the manager are internally locked, but without editMu
	// two concurrent edits could interleave their rebuild phases.
	//
	// Lock ordering (outer -> inner, never reversed):
	//   editMu -> config.Store.mu (via store calls)
	//   editMu -> hotkeys.Manager.mu (via manager calls)
	//
	// Independent locks: windowMu, logMu.
	editMu sync.Mutex

	// windowMu guards windowVisible, the coordinator's view of the settings
	// window. The window itself lives in the UI client; visibility changes
	// travel as window frames over the bridge, never as direct mutation.
	windowMu      sync.Mutex
	windowVisible bool

	// Session log ring fed by the slog tee handler. logMu guards entries;
	// logPushing breaks recursion when pushing a log frame itself produces
	// log records (for example on a websocket write failure).
	logMu      sync.Mutex
	logEntries []sessionlog.Entry
	logPushing atomic.Bool

	// Background worker lifecycle.
	wg           sync.WaitGroup
	startedAt    time.Time
	started      atomic.Bool
	shuttingDown atomic.Bool
}

// NewApp constructs the coordinator and its owned collaborators. Nothing
// touches the OS until startup.
func NewApp(configPath string) *App {
	return &App{
		store:    config.NewStore(configPath),
		registry: action.NewRegistry(),
		hotkeys:  hotkeys.NewManager(),
		audio:    audio.NewManager(),
	}
}

// pushFrame forwards one frame to the settings UI. Safe before the bridge
// exists; frames without a destination are dropped, and every push repeats
// on reconnect through pushFullState.
func (a *App) pushFrame(frameType string, data any) {
	if a.hub == nil {
		return
	}
	a.hub.Push(frameType, data)
}
