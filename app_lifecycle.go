package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hotkeyd/internal/actions"
	"hotkeyd/internal/config"
	"hotkeyd/internal/hotkeys"
	"hotkeyd/internal/ipc"
	"hotkeyd/internal/notify"
	"hotkeyd/internal/uibridge"
	"hotkeyd/internal/winsys"
	"hotkeyd/internal/workerutil"
)

// shutdownWaitTimeout bounds the wait for background workers during
// shutdown. Workers are cooperative; a stuck worker must not block exit.
const shutdownWaitTimeout = 10 * time.Second

// startup brings the daemon up: configuration, actions, hotkey
// registrations, control surfaces, and background workers, in that order.
// A collaborator that fails to start is logged and skipped; only the parts
// that depend on it degrade. Idempotent.
func (a *App) startup(parent context.Context) {
	if !a.started.CompareAndSwap(false, true) {
		return
	}
	a.startedAt = time.Now()
	a.ctx, a.cancel = context.WithCancel(parent)

	if err := a.store.Load(); err != nil {
		slog.Warn("[config] load failed, continuing with defaults",
			"path", a.store.Path(), "error", err)
	}
	for _, warning := range config.ConsumeDefaultPathWarnings() {
		slog.Warn("[config] " + warning)
	}

	if err := actions.RegisterDefaults(a.registry, actions.Deps{
		Audio:             a.audio,
		LockWorkstation:   winsys.LockWorkstation,
		ForegroundProcess: winsys.ForegroundProcess,
	}); err != nil {
		slog.Error("[action] some built-in actions failed to register", "error", err)
	}

	if err := a.hotkeys.StartListener(); err != nil {
		slog.Error("[hotkey] listener failed to start; hotkeys are inactive", "error", err)
	}
	a.hotkeys.RegisterFromBindings(a.registrableBindings(), a.dispatch)

	hub := uibridge.NewHub(uibridge.HubOptions{
		Addr:      a.uiListenAddr(),
		Handler:   a.handleBridgeRequest,
		OnConnect: a.pushFullState,
	})
	if err := hub.Start(a.ctx); err != nil {
		slog.Error("[ws] settings bridge failed to start", "error", err)
	} else {
		a.hub = hub
		slog.Info("[ws] settings bridge listening", "url", hub.URL())
	}

	pipeServer := ipc.NewPipeServer(ipc.DefaultPipeName(), a)
	if err := pipeServer.Start(); err != nil {
		slog.Error("[ipc] control pipe failed to start", "error", err)
	} else {
		a.pipeServer = pipeServer
	}

	workerOpts := workerutil.RecoveryOptions{IsShutdown: a.shuttingDown.Load}
	workerutil.RunWithPanicRecovery(a.ctx, "config-watcher", &a.wg, func(ctx context.Context) {
		if err := a.store.Watch(ctx, a.onExternalConfigChange); err != nil {
			slog.Warn("[config] file watcher stopped", "error", err)
		}
	}, workerOpts)
	workerutil.RunWithPanicRecovery(a.ctx, "status-ticker", &a.wg, a.statusLoop, workerOpts)

	if !a.store.SettingBool(config.SettingStartMinimized, true) {
		a.setWindowVisible(true, "startup")
	}
	if a.store.SettingBool(config.SettingShowNotifications, true) {
		notify.Send("hotkeyd", "Application started")
	}
	slog.Info("[app] startup complete",
		"config", a.store.Path(),
		"actions", a.registry.Len(),
		"hotkeys", a.hotkeys.Len(),
	)
}

// shutdown is unconditional teardown: stop workers, release every OS hook,
// close the control surfaces. Idempotent and safe to call from the tray and
// hotkey goroutines; nothing here touches UI state directly.
func (a *App) shutdown() {
	if !a.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	if !a.started.Load() {
		return
	}
	slog.Info("[app] shutting down")

	a.cancel()
	if err := a.hotkeys.StopListener(); err != nil {
		slog.Warn("[hotkey] listener stop reported errors", "error", err)
	}
	if a.pipeServer != nil {
		if err := a.pipeServer.Stop(); err != nil {
			slog.Warn("[ipc] control pipe stop reported errors", "error", err)
		}
	}
	if a.hub != nil {
		if err := a.hub.Stop(); err != nil {
			slog.Warn("[ws] settings bridge stop reported errors", "error", err)
		}
	}
	a.waitForWorkers(shutdownWaitTimeout)
	slog.Info("[app] shutdown complete")
}

// waitForWorkers blocks until every background worker exits or the timeout
// elapses. Stragglers are abandoned with a log line; the process is exiting.
func (a *App) waitForWorkers(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		slog.Warn("[app] background workers did not stop in time", "timeout", timeout)
	}
}

// uiListenAddr resolves the settings-bridge listen address from the ui_port
// setting. Port 0 lets the OS choose.
func (a *App) uiListenAddr() string {
	port := a.store.SettingInt(config.SettingUIPort, 0)
	if port < 0 || port > 65535 {
		slog.Warn("[config] ui_port out of range, using an OS-assigned port", "ui_port", port)
		port = 0
	}
	return fmt.Sprintf("127.0.0.1:%d", port)
}

// registrableBindings converts stored hotkey entries into registration
// requests, skipping entries whose action id is not in the registry. Unknown
// ids are tolerated in the file (the action set can shrink between versions)
// but never get an OS hook.
func (a *App) registrableBindings() []hotkeys.Binding {
	stored := a.store.Hotkeys()
	out := make([]hotkeys.Binding, 0, len(stored))
	for _, h := range stored {
		if _, known := a.registry.Get(h.Action); !known {
			slog.Warn("[hotkey] skipping binding with unknown action",
				"combination", h.Combination, "action", h.Action)
			continue
		}
		out = append(out, hotkeys.Binding{
			Combination: h.Combination,
			ActionID:    h.Action,
			Enabled:     h.Enabled,
		})
	}
	return out
}
