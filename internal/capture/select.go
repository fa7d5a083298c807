package capture

import (
	"log/slog"
	"time"

	"github.com/duckai/ducktrack/internal/events"
)

// Selection is the outcome of the one-shot backend selection policy.
type Selection struct {
	Backend Backend
	Method  Method
}

// selectorHooks exist so tests can drive the policy without the real OS
// facilities. Production code uses defaultHooks.
type selectorHooks struct {
	permission  func() error
	smokeTest   func() error
	newNative   func(EmitFunc) Backend
	newFallback func(EmitFunc) Backend
	grace       time.Duration
}

const smokeTestGrace = 100 * time.Millisecond

func defaultHooks() selectorHooks {
	h := selectorHooks{
		permission: probeInputMonitoring,
		newNative:  func(emit EmitFunc) Backend { return NewNative(emit) },
		newFallback: func(emit EmitFunc) Backend {
			return NewFallback(emit, FallbackOptions{})
		},
		grace: smokeTestGrace,
	}
	h.smokeTest = func() error { return smokeTestNative(h) }
	return h
}

// smokeTestNative starts a throwaway native backend, gives it a short grace
// interval, and stops it. Only a capability error rejects the variant.
func smokeTestNative(h selectorHooks) error {
	probe := h.newNative(func(events.Event) {})
	if err := probe.Start(); err != nil {
		return err
	}
	time.Sleep(h.grace)
	probe.Stop()
	return nil
}

// Select runs the deterministic selection policy once per session: prefer the
// native listener; fall back on a denied permission or a failed smoke test;
// and prefer a screen-only session (method "none") over no session when even
// the fallback cannot be built.
func Select(emit EmitFunc) Selection {
	return selectWithHooks(emit, defaultHooks())
}

func selectWithHooks(emit EmitFunc, h selectorHooks) Selection {
	if err := h.permission(); err != nil {
		if IsCapability(err) {
			slog.Warn("Input monitoring permission missing, using fallback monitor", "error", err)
			return fallbackSelection(emit, h, MethodFallbackPermissions)
		}
		slog.Warn("Permission probe failed, continuing with native attempt", "error", err)
	}

	if err := h.smokeTest(); err != nil {
		if IsCapability(err) {
			slog.Warn("Native listener smoke test failed, using fallback monitor", "error", err)
			return fallbackSelection(emit, h, MethodFallbackCompatibility)
		}
		slog.Error("Native listener unusable, recording screen only", "error", err)
		return Selection{Method: MethodNone}
	}

	slog.Info("Input capture method selected", "method", MethodNative)
	return Selection{Backend: h.newNative(emit), Method: MethodNative}
}

func fallbackSelection(emit EmitFunc, h selectorHooks, method Method) Selection {
	backend := h.newFallback(emit)
	if backend == nil {
		slog.Error("Fallback monitor unavailable, recording screen only")
		return Selection{Method: MethodNone}
	}
	slog.Info("Input capture method selected", "method", method)
	return Selection{Backend: backend, Method: method}
}
