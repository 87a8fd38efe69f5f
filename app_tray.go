package main

import (
	"context"
	_ "embed"
	"log/slog"

	"fyne.io/systray"
)

//go:embed assets/tray.ico
var trayIcon []byte

// trayReady runs once the tray icon is live. systray owns the main thread
// at this point, so the rest of startup happens here, before the menu loop
// starts consuming clicks.
func (a *App) trayReady() {
	systray.SetIcon(trayIcon)
	systray.SetTitle("hotkeyd")
	systray.SetTooltip("hotkeyd — global hotkey actions")

	openItem := systray.AddMenuItem("Open Settings", "Show the settings window")
	reloadItem := systray.AddMenuItem("Reload Config", "Re-read the configuration file")
	systray.AddSeparator()
	quitItem := systray.AddMenuItem("Quit", "Stop hotkeyd and release all hotkeys")

	a.startup(context.Background())

	go a.trayLoop(openItem, reloadItem, quitItem)
}

// trayLoop consumes tray menu clicks. Clicks arrive on this goroutine, not
// the UI thread; everything they trigger already goes through the bridge or
// the coordinator's own locking.
func (a *App) trayLoop(open, reload, quit *systray.MenuItem) {
	for {
		select {
		case <-open.ClickedCh:
			slog.Info("[tray] open settings clicked")
			a.setWindowVisible(true, "tray open")
		case <-reload.ClickedCh:
			slog.Info("[tray] reload config clicked")
			registered := a.ReloadConfig()
			slog.Info("[tray] config reloaded", "registered", registered)
		case <-quit.ClickedCh:
			slog.Info("[tray] quit clicked")
			systray.Quit()
			return
		}
	}
}

// trayExit runs when the tray loop ends, whatever requested it (menu quit,
// signal handler, OS session end).
func (a *App) trayExit() {
	a.shutdown()
}
