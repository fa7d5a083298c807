package capture

import (
	"log/slog"
	"sync"
	"time"

	"github.com/duckai/ducktrack/internal/events"
)

// PositionFunc samples the current pointer position through an OS side
// channel. It should return an error when the host denies the query.
type PositionFunc func() (x, y int, err error)

// FallbackOptions tune the polling backend. Zero values select the defaults.
type FallbackOptions struct {
	PollInterval     time.Duration
	SentinelInterval time.Duration
	MaxSampleRetries int
	Sample           PositionFunc
}

const (
	defaultPollInterval     = 500 * time.Millisecond
	defaultSentinelInterval = 2 * time.Second
	defaultMaxSampleRetries = 3
)

// FallbackBackend is the lower-fidelity backend used when the native hook is
// unavailable: it samples the pointer position on a fixed period and emits a
// liveness sentinel regardless of sampling success.
type FallbackBackend struct {
	emit             EmitFunc
	sample           PositionFunc
	pollInterval     time.Duration
	sentinelInterval time.Duration
	maxRetries       int

	mu       sync.Mutex
	started  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewFallback creates the polling fallback backend.
func NewFallback(emit EmitFunc, opts FallbackOptions) *FallbackBackend {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.SentinelInterval <= 0 {
		opts.SentinelInterval = defaultSentinelInterval
	}
	if opts.MaxSampleRetries <= 0 {
		opts.MaxSampleRetries = defaultMaxSampleRetries
	}
	if opts.Sample == nil {
		opts.Sample = queryPointer
	}
	return &FallbackBackend{
		emit:             emit,
		sample:           opts.Sample,
		pollInterval:     opts.PollInterval,
		sentinelInterval: opts.SentinelInterval,
		maxRetries:       opts.MaxSampleRetries,
	}
}

// Start launches the polling loop.
func (b *FallbackBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil
	}
	b.started = true
	b.stopChan = make(chan struct{})
	b.doneChan = make(chan struct{})

	go b.run()

	slog.Info("Fallback input monitor started")
	return nil
}

// Stop halts the polling loop and joins it.
func (b *FallbackBackend) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	close(b.stopChan)
	b.mu.Unlock()

	<-b.doneChan
	slog.Info("Fallback input monitor stopped")
}

func (b *FallbackBackend) run() {
	defer close(b.doneChan)

	b.emit(events.NewLifecycle(events.ActionFallbackStarted))

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	failures := 0
	gaveUp := false
	lastSentinel := time.Now()

	for {
		select {
		case <-b.stopChan:
			return

		case <-ticker.C:
			if !gaveUp {
				x, y, err := b.sample()
				switch {
				case err != nil:
					failures++
					slog.Warn("Pointer position sampling failed", "error", err, "failures", failures)
					if failures >= b.maxRetries {
						gaveUp = true
						slog.Warn("Giving up on pointer sampling after repeated failures")
					}
				case x > 0 || y > 0:
					// Origin positions are treated as implausible and skipped.
					failures = 0
					b.emit(events.NewMove(x, y))
				default:
					failures = 0
				}
			}

			if time.Since(lastSentinel) > b.sentinelInterval {
				b.emit(events.NewSentinel())
				lastSentinel = time.Now()
			}
		}
	}
}
