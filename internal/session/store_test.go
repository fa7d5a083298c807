package session

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/duckai/ducktrack/internal/events"
)

func TestAllocateCreatesUniqueDirectories(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	firstID, firstPath, err := store.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	secondID, _, err := store.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if firstID == secondID {
		t.Errorf("Expected unique session IDs, got: %s twice", firstID)
	}
	if !strings.HasPrefix(firstID, "recording-") {
		t.Errorf("Expected recording- prefix, got: %s", firstID)
	}
	if filepath.Dir(firstPath) != store.Root() {
		t.Errorf("Expected session under root, got: %s", firstPath)
	}
}

func TestListReportsCompleteness(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	_, completePath, err := store.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	log, err := events.OpenLog(completePath)
	if err != nil {
		t.Fatalf("OpenLog failed: %v", err)
	}
	log.Append(events.NewLifecycle(events.ActionRecordingStarted))
	log.Append(events.NewMove(1, 2))
	log.Append(events.NewLifecycle(events.ActionRecordingEnded))
	log.Close()

	incompleteID, incompletePath, err := store.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	log2, err := events.OpenLog(incompletePath)
	if err != nil {
		t.Fatalf("OpenLog failed: %v", err)
	}
	log2.Append(events.NewLifecycle(events.ActionRecordingStarted))
	log2.Close()

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(entries))
	}

	byID := map[string]Entry{}
	for _, entry := range entries {
		byID[entry.ID] = entry
	}
	if entry := byID[incompleteID]; entry.Complete {
		t.Error("Expected session without recording_ended to be incomplete")
	}
	completeSeen := false
	for _, entry := range entries {
		if entry.ID != incompleteID {
			completeSeen = true
			if !entry.Complete || entry.Events != 3 {
				t.Errorf("Expected complete entry with 3 events, got: %+v", entry)
			}
		}
	}
	if !completeSeen {
		t.Error("Expected the complete session to be listed")
	}
}

func TestRenameValidation(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	id, _, err := store.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if err := store.Rename(id, "my/escape"); err == nil {
		t.Error("Expected path separators to be rejected")
	}
	if err := store.Rename(id, ""); err == nil {
		t.Error("Expected empty name to be rejected")
	}
	if err := store.Rename(id, "recording-demo-session"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	other, _, err := store.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if err := store.Rename(other, "recording-demo-session"); err == nil {
		t.Error("Expected rename onto an existing session to fail")
	}
}

func TestLatestPointerRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	latest, err := store.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest != "" {
		t.Errorf("Expected empty pointer in a fresh store, got: %s", latest)
	}

	if err := store.SetLatest("recording-2026-01-01_10-00-00-abcd1234"); err != nil {
		t.Fatalf("SetLatest failed: %v", err)
	}
	latest, err = store.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest != "recording-2026-01-01_10-00-00-abcd1234" {
		t.Errorf("Expected pointer round trip, got: %s", latest)
	}
}
