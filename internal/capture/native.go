package capture

import (
	"log/slog"
	"sync"

	"github.com/duckai/ducktrack/internal/events"
)

// hookKind classifies translated hook events.
type hookKind int

const (
	hookMove hookKind = iota
	hookDown
	hookUp
	hookWheel
	hookKeyDown
	hookKeyUp
)

// hookEvent is the backend-neutral form of one OS hook notification.
type hookEvent struct {
	Kind     hookKind
	X, Y     int
	Button   string
	Rotation int
	Key      string
}

// hookStream abstracts the global OS input hook so the smoke test and the
// unit tests can run without touching the real one.
type hookStream interface {
	Start() (<-chan hookEvent, error)
	Stop()
}

// NativeBackend subscribes to OS-level pointer and keyboard notifications.
type NativeBackend struct {
	stream hookStream
	emit   EmitFunc

	mu       sync.Mutex
	started  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewNative creates the native listener backend.
func NewNative(emit EmitFunc) *NativeBackend {
	return newNativeWithStream(emit, newSystemHook())
}

func newNativeWithStream(emit EmitFunc, stream hookStream) *NativeBackend {
	return &NativeBackend{stream: stream, emit: emit}
}

// Start subscribes to the hook and begins translating its notifications.
func (b *NativeBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil
	}

	ch, err := b.stream.Start()
	if err != nil {
		return &CapabilityError{Op: "start input hook", Err: err}
	}

	b.started = true
	b.stopChan = make(chan struct{})
	b.doneChan = make(chan struct{})

	go b.listen(ch)

	slog.Info("Native input listeners started")
	return nil
}

// Stop unsubscribes and joins the listener goroutine.
func (b *NativeBackend) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	close(b.stopChan)
	b.mu.Unlock()

	b.stream.Stop()
	<-b.doneChan
	slog.Info("Native input listeners stopped")
}

func (b *NativeBackend) listen(ch <-chan hookEvent) {
	defer close(b.doneChan)
	for {
		select {
		case raw, ok := <-ch:
			if !ok {
				return
			}
			b.deliver(raw)
		case <-b.stopChan:
			return
		}
	}
}

// deliver translates one raw notification. Any per-event failure is logged
// and discarded; it never stops the listener or the session.
func (b *NativeBackend) deliver(raw hookEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Error capturing input event", "panic", r)
		}
	}()

	switch raw.Kind {
	case hookMove:
		b.emit(events.NewMove(raw.X, raw.Y))
	case hookDown:
		b.emit(events.NewClick(raw.X, raw.Y, raw.Button, true))
	case hookUp:
		b.emit(events.NewClick(raw.X, raw.Y, raw.Button, false))
	case hookWheel:
		b.emit(events.NewScroll(raw.X, raw.Y, 0, raw.Rotation))
	case hookKeyDown:
		b.emit(events.NewKeyPress(raw.Key))
	case hookKeyUp:
		b.emit(events.NewKeyRelease(raw.Key))
	}
}
