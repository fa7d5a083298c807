// Package capture provides the input capture backends: a native listener over
// the OS input hook and a polling fallback for hosts where the hook is denied
// or broken. Selection between them happens once per session via Select.
package capture

import (
	"errors"
	"fmt"

	"github.com/duckai/ducktrack/internal/events"
)

// Method records which backend variant is active for a session. It is chosen
// once at selection time and persisted as the first diagnostic event.
type Method string

const (
	MethodNative                Method = "native"
	MethodFallbackPermissions   Method = "fallback-permissions"
	MethodFallbackCompatibility Method = "fallback-compatibility"
	MethodNone                  Method = "none"
)

// EmitFunc delivers a raw event to the session's sink. Implementations must
// never block the caller.
type EmitFunc func(events.Event)

// Backend is a source of raw input events.
type Backend interface {
	// Start begins delivery. A *CapabilityError means the platform denies the
	// underlying facility and a lower-fidelity backend should be used instead.
	Start() error

	// Stop halts delivery and joins the backend's goroutines. Safe to call
	// on a backend that never started.
	Stop()
}

// CapabilityError reports that the OS denies a capture subscription or that
// the underlying facility is unusable. It triggers backend fallback and is
// never fatal to a session.
type CapabilityError struct {
	Op  string
	Err error
}

func (e *CapabilityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("capture capability unavailable: %s", e.Op)
	}
	return fmt.Sprintf("capture capability unavailable: %s: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// IsCapability reports whether err is a capability denial.
func IsCapability(err error) bool {
	var capErr *CapabilityError
	return errors.As(err, &capErr)
}
