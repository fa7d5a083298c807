package obs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// commonPaths lists the usual OBS install locations per platform.
var commonPaths = map[string][]string{
	"windows": {
		`C:\Program Files\obs-studio\bin\64bit\obs64.exe`,
		`C:\Program Files (x86)\obs-studio\bin\32bit\obs32.exe`,
	},
	"darwin": {
		"/Applications/OBS.app/Contents/MacOS/OBS",
		"/opt/homebrew/bin/obs",
	},
	"linux": {
		"/usr/bin/obs",
		"/usr/local/bin/obs",
	},
}

// FindBinary locates the OBS executable, falling back to PATH lookup.
func FindBinary() string {
	for _, path := range commonPaths[runtime.GOOS] {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if path, err := exec.LookPath("obs"); err == nil {
		return path
	}
	return "obs"
}

// IsRunning reports whether an OBS process already exists on the host.
func IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	switch runtime.GOOS {
	case "windows":
		out, err := exec.CommandContext(ctx, "tasklist").Output()
		return err == nil && strings.Contains(strings.ToLower(string(out)), "obs")
	default:
		err := exec.CommandContext(ctx, "pgrep", "-i", "obs").Run()
		return err == nil
	}
}

// Launch starts OBS in the background and gives it a moment to initialize.
// The caller owns the returned process.
func Launch() (*os.Process, error) {
	path := FindBinary()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		// "open" handles macOS permission plumbing better than direct exec.
		cmd = exec.Command("open", "-a", "OBS")
	default:
		cmd = exec.Command(path, "--minimize-to-tray")
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch obs: %w", err)
	}

	slog.Info("OBS launched", "path", path)
	time.Sleep(2 * time.Second)
	return cmd.Process, nil
}

// Terminate asks a previously launched OBS process to exit, escalating to a
// kill if it ignores the request.
func Terminate(process *os.Process) {
	if process == nil {
		return
	}

	if runtime.GOOS == "darwin" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := exec.CommandContext(ctx, "osascript", "-e", `tell application "OBS" to quit`).Run(); err == nil {
			return
		}
	}

	if err := process.Signal(os.Interrupt); err != nil {
		slog.Debug("Interrupt failed, killing OBS process", "error", err)
		process.Kill()
		return
	}

	done := make(chan struct{})
	go func() {
		process.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		slog.Warn("OBS did not exit within timeout, force killing")
		process.Kill()
	}
}
