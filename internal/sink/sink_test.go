package sink

import (
	"fmt"
	"testing"
	"time"

	"github.com/duckai/ducktrack/internal/events"
)

func openTestLog(t *testing.T) (*events.Log, string) {
	t.Helper()
	dir := t.TempDir()
	log, err := events.OpenLog(dir)
	if err != nil {
		t.Fatalf("OpenLog failed: %v", err)
	}
	return log, dir
}

func TestWriterPreservesSubmissionOrder(t *testing.T) {
	log, dir := openTestLog(t)
	sink := New(log, Options{QueueSize: 128})
	sink.Start()

	for i := 0; i < 50; i++ {
		if !sink.Submit(events.NewKeyPress(fmt.Sprintf("k%03d", i))) {
			t.Fatalf("Submit %d rejected unexpectedly", i)
		}
	}
	sink.Close()
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	parsed, err := events.ReadLog(dir)
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	var names []string
	for _, event := range parsed {
		if event.Action == events.ActionPress {
			names = append(names, event.Name)
		}
	}
	if len(names) != 50 {
		t.Fatalf("Expected 50 key events, got: %d", len(names))
	}
	for i, name := range names {
		if expected := fmt.Sprintf("k%03d", i); name != expected {
			t.Fatalf("Event %d out of order: expected %s, got: %s", i, expected, name)
		}
	}
	if sink.Written() != 50 {
		t.Errorf("Expected 50 written, got: %d", sink.Written())
	}
}

func TestOverflowDropsWithoutReordering(t *testing.T) {
	log, dir := openTestLog(t)
	// Writer not started: the queue fills and overflow must be rejected at
	// submission, never by displacing queued events.
	sink := New(log, Options{QueueSize: 8})

	accepted := 0
	for i := 0; i < 20; i++ {
		if sink.Submit(events.NewKeyPress(fmt.Sprintf("k%03d", i))) {
			accepted++
		}
	}
	if accepted != 8 {
		t.Fatalf("Expected 8 accepted submissions, got: %d", accepted)
	}
	if sink.Dropped() != 12 {
		t.Errorf("Expected 12 dropped, got: %d", sink.Dropped())
	}

	sink.Start()
	sink.Close()
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	parsed, err := events.ReadLog(dir)
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	if len(parsed) != 8 {
		t.Fatalf("Expected 8 logged events, got: %d", len(parsed))
	}
	for i, event := range parsed {
		if expected := fmt.Sprintf("k%03d", i); event.Name != expected {
			t.Errorf("Event %d: expected %s, got: %s", i, expected, event.Name)
		}
	}
}

func TestSentinelKeepsIdleLogAlive(t *testing.T) {
	log, dir := openTestLog(t)
	sink := New(log, Options{
		QueueSize:        16,
		DrainTimeout:     10 * time.Millisecond,
		SentinelInterval: 30 * time.Millisecond,
	})
	sink.Start()

	// No real input: sentinels must still appear within the liveness window.
	time.Sleep(150 * time.Millisecond)
	sink.Close()
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	parsed, err := events.ReadLog(dir)
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	sentinels := 0
	for _, event := range parsed {
		if event.Action == events.ActionSentinel {
			sentinels++
			if event.Wall == 0 {
				t.Error("Expected sentinel to carry wall-clock time")
			}
		}
	}
	if sentinels == 0 {
		t.Error("Expected at least one sentinel on an idle queue")
	}
}

func TestDirectSentinelBypassesQueue(t *testing.T) {
	log, dir := openTestLog(t)
	sink := New(log, Options{
		QueueSize:              16,
		DrainTimeout:           10 * time.Millisecond,
		SentinelInterval:       time.Hour,
		DirectSentinelInterval: 30 * time.Millisecond,
	})
	sink.Start()

	time.Sleep(150 * time.Millisecond)
	sink.Close()
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	parsed, err := events.ReadLog(dir)
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	direct := 0
	for _, event := range parsed {
		if event.Action == events.ActionDirectSentinel {
			direct++
		}
	}
	if direct == 0 {
		t.Error("Expected a direct sentinel when nothing reaches the file")
	}
}

func TestCloseDrainsResidueAndStopsIntake(t *testing.T) {
	log, dir := openTestLog(t)
	sink := New(log, Options{QueueSize: 16})

	for i := 0; i < 5; i++ {
		sink.Submit(events.NewMove(i, i))
	}
	sink.Start()
	sink.Close()
	sink.Close() // idempotent

	if sink.Submit(events.NewMove(99, 99)) {
		t.Error("Expected Submit after Close to be rejected")
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	parsed, err := events.ReadLog(dir)
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	moves := 0
	for _, event := range parsed {
		if event.Action == events.ActionMove {
			moves++
		}
	}
	if moves != 5 {
		t.Errorf("Expected 5 moves drained on close, got: %d", moves)
	}
}
