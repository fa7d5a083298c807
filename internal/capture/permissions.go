package capture

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// envInputMonitoring lets operators (and tests) pre-answer the input
// monitoring permission question without touching system settings.
const envInputMonitoring = "DUCKTRACK_INPUT_MONITORING"

// lookupEnv is swapped in tests.
var lookupEnv = os.LookupEnv

// probeInputMonitoring reports whether OS-level input monitoring looks
// usable. A *CapabilityError means the permission is known to be denied; nil
// means unknown-or-granted, leaving the final word to the smoke test.
func probeInputMonitoring() error {
	if value, ok := lookupEnv(envInputMonitoring); ok {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "granted", "allow", "allowed", "yes", "true":
			return nil
		case "denied", "no", "false", "blocked":
			return &CapabilityError{Op: "input monitoring permission denied via " + envInputMonitoring}
		}
		return nil
	}

	if runtime.GOOS == "darwin" {
		// Accessibility trust cannot be read without prompting; probe the
		// same side channel the fallback uses. A denied query is a reliable
		// negative signal, a successful one is a reliable positive.
		if _, _, err := queryPointer(); err != nil {
			return &CapabilityError{Op: "accessibility probe", Err: fmt.Errorf("pointer side channel failed: %w", err)}
		}
	}
	return nil
}
