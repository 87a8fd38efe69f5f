package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/systray"

	"hotkeyd/internal/config"
	"hotkeyd/internal/ipc"
	"hotkeyd/internal/sessionlog"
	"hotkeyd/internal/singleinstance"
)

func main() {
	app := NewApp(config.DefaultPath())
	setupLogging(app)

	// Single-instance check before anything acquires OS resources. A second
	// launch hands off to the running daemon by asking it to show its
	// settings window, matching what users expect from double-starting a
	// tray application.
	lock, err := singleinstance.TryLock(singleinstance.DefaultMutexName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		slog.Info("[app] another instance is already running, activating it")
		if sendErr := ipc.SendActivate(ipc.DefaultPipeName()); sendErr != nil {
			slog.Warn("[app] failed to activate the running instance", "error", sendErr)
		}
		return
	}
	if err != nil {
		// Mutex creation failed for an unexpected reason. Run unguarded
		// rather than refusing to start.
		slog.Warn("[app] single-instance guard unavailable, continuing", "error", err)
	}
	if lock != nil {
		defer func() {
			if releaseErr := lock.Release(); releaseErr != nil {
				slog.Warn("[app] mutex release failed", "error", releaseErr)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		slog.Info("[app] shutdown signal received")
		systray.Quit()
	}()

	// systray.Run blocks on the main thread until Quit; trayExit performs
	// the shutdown sequence.
	systray.Run(app.trayReady, app.trayExit)
}

// setupLogging installs the default logger: a text handler on stderr with
// Info+ records teed into the coordinator's session log ring, which feeds
// the settings UI log view.
func setupLogging(app *App) {
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(sessionlog.NewTeeHandler(base, slog.LevelInfo, app.sessionLogSink)))
}
