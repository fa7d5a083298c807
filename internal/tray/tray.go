// Package tray puts the session engine in the system tray with start, pause,
// resume and stop controls.
package tray

import (
	"context"
	"log/slog"

	"fyne.io/systray"

	"github.com/duckai/ducktrack/internal/session"
)

// Tray owns the menu items and keeps them in sync with the session state.
type Tray struct {
	manager *session.Manager
	cancel  context.CancelFunc

	startItem  *systray.MenuItem
	pauseItem  *systray.MenuItem
	resumeItem *systray.MenuItem
	stopItem   *systray.MenuItem
	quitItem   *systray.MenuItem
}

// Run blocks in the systray event loop until Quit is chosen or ctx is
// cancelled. It must be called from the main goroutine.
func Run(ctx context.Context, manager *session.Manager) {
	ctx, cancel := context.WithCancel(ctx)
	t := &Tray{manager: manager, cancel: cancel}
	systray.Run(func() { t.onReady(ctx) }, t.onExit)
}

func (t *Tray) onReady(ctx context.Context) {
	systray.SetTitle("DuckTrack")
	systray.SetTooltip("DuckTrack session recorder")

	t.startItem = systray.AddMenuItem("Start Recording", "Begin a new session")
	t.pauseItem = systray.AddMenuItem("Pause Recording", "Pause the screen recorder")
	t.resumeItem = systray.AddMenuItem("Resume Recording", "Resume the screen recorder")
	t.stopItem = systray.AddMenuItem("Stop Recording", "Finish the session")
	systray.AddSeparator()
	t.quitItem = systray.AddMenuItem("Quit", "Stop any session and exit")

	t.applyState(session.StateIdle)
	go t.loop(ctx)
}

func (t *Tray) onExit() {
	t.cancel()
}

func (t *Tray) loop(ctx context.Context) {
	for {
		select {
		case <-t.startItem.ClickedCh:
			if _, err := t.manager.Start(); err != nil {
				slog.Error("Start failed", "error", err)
				continue
			}
			t.applyState(session.StateRecording)

		case <-t.pauseItem.ClickedCh:
			if err := t.manager.Pause(); err != nil {
				slog.Error("Pause failed", "error", err)
				continue
			}
			t.applyState(session.StatePaused)

		case <-t.resumeItem.ClickedCh:
			if err := t.manager.Resume(); err != nil {
				slog.Error("Resume failed", "error", err)
				continue
			}
			t.applyState(session.StateRecording)

		case <-t.stopItem.ClickedCh:
			if err := t.manager.Stop(); err != nil {
				slog.Error("Stop failed", "error", err)
				continue
			}
			t.applyState(session.StateIdle)

		case <-t.quitItem.ClickedCh:
			t.shutdown()
			return

		case <-ctx.Done():
			t.shutdown()
			return
		}
	}
}

func (t *Tray) shutdown() {
	if err := t.manager.Stop(); err != nil {
		slog.Debug("No session to stop on quit", "reason", err)
	}
	systray.Quit()
}

// applyState enables exactly the items valid in the given state.
func (t *Tray) applyState(state session.State) {
	setEnabled := func(item *systray.MenuItem, enabled bool) {
		if enabled {
			item.Enable()
		} else {
			item.Disable()
		}
	}
	setEnabled(t.startItem, state == session.StateIdle || state == session.StateStopped)
	setEnabled(t.pauseItem, state == session.StateRecording)
	setEnabled(t.resumeItem, state == session.StatePaused)
	setEnabled(t.stopItem, state == session.StateRecording || state == session.StatePaused)
}
