package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/duckai/ducktrack/internal/events"
)

type stubBackend struct {
	startErr error
	started  bool
	stopped  bool
}

func (b *stubBackend) Start() error {
	if b.startErr != nil {
		return b.startErr
	}
	b.started = true
	return nil
}

func (b *stubBackend) Stop() { b.stopped = true }

func TestSelectionPolicy(t *testing.T) {
	capErr := &CapabilityError{Op: "test denial"}
	plainErr := errors.New("listener exploded")

	tests := []struct {
		name          string
		permissionErr error
		smokeErr      error
		fallbackNil   bool
		expected      Method
		wantBackend   bool
	}{
		{
			name:        "all healthy selects native",
			expected:    MethodNative,
			wantBackend: true,
		},
		{
			name:          "permission denied selects permissions fallback",
			permissionErr: capErr,
			expected:      MethodFallbackPermissions,
			wantBackend:   true,
		},
		{
			name:        "smoke capability failure selects compatibility fallback",
			smokeErr:    capErr,
			expected:    MethodFallbackCompatibility,
			wantBackend: true,
		},
		{
			name:     "smoke hard failure selects none",
			smokeErr: plainErr,
			expected: MethodNone,
		},
		{
			name:          "permission probe error without denial still tries native",
			permissionErr: plainErr,
			expected:      MethodNative,
			wantBackend:   true,
		},
		{
			name:          "denied permission with no fallback selects none",
			permissionErr: capErr,
			fallbackNil:   true,
			expected:      MethodNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hooks := selectorHooks{
				permission: func() error { return tt.permissionErr },
				smokeTest:  func() error { return tt.smokeErr },
				newNative:  func(EmitFunc) Backend { return &stubBackend{} },
				newFallback: func(EmitFunc) Backend {
					if tt.fallbackNil {
						return nil
					}
					return &stubBackend{}
				},
				grace: time.Millisecond,
			}

			selection := selectWithHooks(func(events.Event) {}, hooks)
			if selection.Method != tt.expected {
				t.Errorf("Expected method %s, got: %s", tt.expected, selection.Method)
			}
			if tt.wantBackend && selection.Backend == nil {
				t.Error("Expected a backend, got nil")
			}
			if !tt.wantBackend && selection.Backend != nil {
				t.Errorf("Expected no backend, got: %T", selection.Backend)
			}
		})
	}
}

func TestSmokeTestStopsProbeBackend(t *testing.T) {
	probe := &stubBackend{}
	hooks := selectorHooks{
		newNative: func(EmitFunc) Backend { return probe },
		grace:     time.Millisecond,
	}
	if err := smokeTestNative(hooks); err != nil {
		t.Fatalf("smokeTestNative failed: %v", err)
	}
	if !probe.started || !probe.stopped {
		t.Errorf("Expected probe started and stopped, got: started=%v stopped=%v", probe.started, probe.stopped)
	}
}

func TestSmokeTestPropagatesStartError(t *testing.T) {
	capErr := &CapabilityError{Op: "hook denied"}
	hooks := selectorHooks{
		newNative: func(EmitFunc) Backend { return &stubBackend{startErr: capErr} },
		grace:     time.Millisecond,
	}
	err := smokeTestNative(hooks)
	if !IsCapability(err) {
		t.Errorf("Expected capability error, got: %v", err)
	}
}
