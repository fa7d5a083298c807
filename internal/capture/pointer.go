package capture

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const pointerQueryTimeout = 2 * time.Second

// queryPointer asks the host for the pointer position through an external
// tool. It is deliberately crude: the fallback backend only needs a plausible
// position a couple of times per second.
func queryPointer() (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pointerQueryTimeout)
	defer cancel()

	switch runtime.GOOS {
	case "darwin":
		return queryPointerDarwin(ctx)
	case "linux":
		return queryPointerLinux(ctx)
	default:
		return 0, 0, fmt.Errorf("pointer sampling unsupported on %s", runtime.GOOS)
	}
}

func queryPointerDarwin(ctx context.Context) (int, int, error) {
	script := `tell application "System Events" to get the position of the mouse`
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		return 0, 0, fmt.Errorf("osascript pointer query: %w", err)
	}
	parts := strings.Split(strings.TrimSpace(string(out)), ", ")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected osascript output: %q", strings.TrimSpace(string(out)))
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse pointer x: %w", err)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parse pointer y: %w", err)
	}
	return x, y, nil
}

func queryPointerLinux(ctx context.Context) (int, int, error) {
	out, err := exec.CommandContext(ctx, "xdotool", "getmouselocation", "--shell").Output()
	if err != nil {
		return 0, 0, fmt.Errorf("xdotool pointer query: %w", err)
	}
	x, y := -1, -1
	for _, line := range strings.Split(string(out), "\n") {
		if value, ok := strings.CutPrefix(line, "X="); ok {
			x, _ = strconv.Atoi(strings.TrimSpace(value))
		}
		if value, ok := strings.CutPrefix(line, "Y="); ok {
			y, _ = strconv.Atoi(strings.TrimSpace(value))
		}
	}
	if x < 0 || y < 0 {
		return 0, 0, fmt.Errorf("unexpected xdotool output")
	}
	return x, y, nil
}
