package metadata

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Environment overrides for headless hosts and tests.
const (
	envScreenWidth  = "DUCKTRACK_SCREEN_WIDTH"
	envScreenHeight = "DUCKTRACK_SCREEN_HEIGHT"
)

var xrandrCurrent = regexp.MustCompile(`current (\d+) x (\d+)`)

// displayGeometry reports the primary display size in logical pixels.
func displayGeometry() (int, int, error) {
	if width, height, ok := geometryFromEnv(); ok {
		return width, height, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	switch runtime.GOOS {
	case "linux":
		out, err := exec.CommandContext(ctx, "xrandr", "--current").Output()
		if err != nil {
			return 0, 0, fmt.Errorf("xrandr: %w", err)
		}
		match := xrandrCurrent.FindStringSubmatch(string(out))
		if match == nil {
			return 0, 0, fmt.Errorf("no current mode in xrandr output")
		}
		width, _ := strconv.Atoi(match[1])
		height, _ := strconv.Atoi(match[2])
		return width, height, nil

	case "darwin":
		script := `tell application "Finder" to get bounds of window of desktop`
		out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
		if err != nil {
			return 0, 0, fmt.Errorf("osascript: %w", err)
		}
		parts := strings.Split(strings.TrimSpace(string(out)), ", ")
		if len(parts) != 4 {
			return 0, 0, fmt.Errorf("unexpected desktop bounds: %q", strings.TrimSpace(string(out)))
		}
		width, _ := strconv.Atoi(parts[2])
		height, _ := strconv.Atoi(parts[3])
		return width, height, nil

	default:
		return 0, 0, fmt.Errorf("display probe unsupported on %s", runtime.GOOS)
	}
}

func geometryFromEnv() (int, int, bool) {
	widthValue, widthOK := os.LookupEnv(envScreenWidth)
	heightValue, heightOK := os.LookupEnv(envScreenHeight)
	if !widthOK || !heightOK {
		return 0, 0, false
	}
	width, err := strconv.Atoi(strings.TrimSpace(widthValue))
	if err != nil || width <= 0 {
		return 0, 0, false
	}
	height, err := strconv.Atoi(strings.TrimSpace(heightValue))
	if err != nil || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}
