package capture

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/duckai/ducktrack/internal/events"
)

type eventCollector struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *eventCollector) emit(event events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *eventCollector) snapshot() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Event(nil), c.events...)
}

func (c *eventCollector) count(action events.Action) int {
	n := 0
	for _, event := range c.snapshot() {
		if event.Action == action {
			n++
		}
	}
	return n
}

func TestFallbackEmitsMovesAndSentinels(t *testing.T) {
	collector := &eventCollector{}
	position := 0
	backend := NewFallback(collector.emit, FallbackOptions{
		PollInterval:     5 * time.Millisecond,
		SentinelInterval: 25 * time.Millisecond,
		Sample: func() (int, int, error) {
			position++
			return 100 + position, 200, nil
		},
	})

	if err := backend.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(120 * time.Millisecond)
	backend.Stop()

	if collector.count(events.ActionFallbackStarted) != 1 {
		t.Errorf("Expected one fallback start marker, got: %d", collector.count(events.ActionFallbackStarted))
	}
	if collector.count(events.ActionMove) == 0 {
		t.Error("Expected move events from pointer sampling")
	}
	if collector.count(events.ActionSentinel) == 0 {
		t.Error("Expected sentinels within the liveness window")
	}
}

func TestFallbackGivesUpAfterRepeatedFailures(t *testing.T) {
	collector := &eventCollector{}
	var mu sync.Mutex
	samples := 0
	backend := NewFallback(collector.emit, FallbackOptions{
		PollInterval:     5 * time.Millisecond,
		SentinelInterval: 20 * time.Millisecond,
		MaxSampleRetries: 3,
		Sample: func() (int, int, error) {
			mu.Lock()
			samples++
			mu.Unlock()
			return 0, 0, errors.New("xdotool missing")
		},
	})

	if err := backend.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(120 * time.Millisecond)
	backend.Stop()

	mu.Lock()
	sampled := samples
	mu.Unlock()
	if sampled != 3 {
		t.Errorf("Expected sampling to stop after 3 failures, got: %d samples", sampled)
	}
	// Sentinels must continue after giving up on sampling.
	if collector.count(events.ActionSentinel) == 0 {
		t.Error("Expected sentinels to continue after give-up")
	}
	if collector.count(events.ActionMove) != 0 {
		t.Errorf("Expected no moves from failed sampling, got: %d", collector.count(events.ActionMove))
	}
}

func TestFallbackSkipsOriginPositions(t *testing.T) {
	collector := &eventCollector{}
	backend := NewFallback(collector.emit, FallbackOptions{
		PollInterval:     5 * time.Millisecond,
		SentinelInterval: time.Hour,
		Sample: func() (int, int, error) {
			return 0, 0, nil
		},
	})

	if err := backend.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	backend.Stop()

	if moves := collector.count(events.ActionMove); moves != 0 {
		t.Errorf("Expected origin positions skipped, got %d moves", moves)
	}
}

func TestFallbackStopIsIdempotent(t *testing.T) {
	backend := NewFallback(func(events.Event) {}, FallbackOptions{
		PollInterval: 5 * time.Millisecond,
		Sample:       func() (int, int, error) { return 1, 1, nil },
	})
	backend.Stop() // never started
	if err := backend.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := backend.Start(); err != nil {
		t.Errorf("Expected second Start to be a no-op, got: %v", err)
	}
	backend.Stop()
	backend.Stop()
}
