package capture

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// systemHook adapts the process-global gohook subscription to the hookStream
// interface. Only one instance may be active at a time, which matches the
// one-backend-per-session contract.
type systemHook struct {
	mu      sync.Mutex
	out     chan hookEvent
	stopped bool
}

func newSystemHook() *systemHook {
	return &systemHook{}
}

func (h *systemHook) Start() (<-chan hookEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	raw := hook.Start()
	h.out = make(chan hookEvent, 64)
	go h.translate(raw)
	return h.out, nil
}

func (h *systemHook) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	hook.End()
}

func (h *systemHook) translate(raw chan hook.Event) {
	defer close(h.out)
	for ev := range raw {
		var translated hookEvent
		switch ev.Kind {
		case hook.MouseMove, hook.MouseDrag:
			translated = hookEvent{Kind: hookMove, X: int(ev.X), Y: int(ev.Y)}
		case hook.MouseDown:
			translated = hookEvent{Kind: hookDown, X: int(ev.X), Y: int(ev.Y), Button: buttonName(ev.Button)}
		case hook.MouseUp:
			translated = hookEvent{Kind: hookUp, X: int(ev.X), Y: int(ev.Y), Button: buttonName(ev.Button)}
		case hook.MouseWheel:
			translated = hookEvent{Kind: hookWheel, X: int(ev.X), Y: int(ev.Y), Rotation: int(ev.Rotation)}
		case hook.KeyDown:
			translated = hookEvent{Kind: hookKeyDown, Key: keyName(ev)}
		case hook.KeyUp:
			translated = hookEvent{Kind: hookKeyUp, Key: keyName(ev)}
		default:
			continue
		}

		select {
		case h.out <- translated:
		default:
			// Hook delivery must never block the OS callback thread.
		}
	}
}

func buttonName(button uint16) string {
	switch button {
	case 1:
		return "left"
	case 2:
		return "right"
	case 3:
		return "middle"
	default:
		return "unknown"
	}
}

func keyName(ev hook.Event) string {
	if ev.Keychar != 0 && ev.Keychar != 65535 {
		return string(ev.Keychar)
	}
	return hook.RawcodetoKeychar(ev.Rawcode)
}
