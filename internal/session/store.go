package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/duckai/ducktrack/internal/events"
)

// pointerFile tracks the most recent session inside the recordings root.
const pointerFile = "conf.yaml"

// Store allocates and enumerates session directories under a recordings root.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create recordings directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the recordings root directory.
func (s *Store) Root() string { return s.root }

// Allocate creates a fresh session directory. The name embeds the wall-clock
// start and a short random suffix so concurrent engines never collide.
func (s *Store) Allocate() (id, path string, err error) {
	stamp := time.Now().Format("2006-01-02_15-04-05")
	suffix := strings.Split(uuid.NewString(), "-")[0]
	id = fmt.Sprintf("recording-%s-%s", stamp, suffix)
	path = filepath.Join(s.root, id)

	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", "", fmt.Errorf("create session directory: %w", err)
	}
	return id, path, nil
}

// Entry describes one stored session.
type Entry struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
	Events   int       `json:"events"`
	Complete bool      `json:"complete"`
}

// List enumerates stored sessions, newest first. A session counts as
// complete when its log ends with the recording_ended marker.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read recordings directory: %w", err)
	}

	var entries []Entry
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() || !strings.HasPrefix(dirEntry.Name(), "recording-") {
			continue
		}
		path := filepath.Join(s.root, dirEntry.Name())
		entry := Entry{ID: dirEntry.Name(), Path: path}
		if info, err := dirEntry.Info(); err == nil {
			entry.Modified = info.ModTime()
		}
		if logged, err := events.ReadLog(path); err == nil {
			entry.Events = len(logged)
			if len(logged) > 0 {
				entry.Complete = logged[len(logged)-1].Action == events.ActionRecordingEnded
			}
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Modified.After(entries[j].Modified)
	})
	return entries, nil
}

// Rename gives a stored session a human-chosen name. The target must not
// already exist.
func (s *Store) Rename(oldID, newID string) error {
	if strings.ContainsAny(newID, `/\`) || newID == "" {
		return fmt.Errorf("invalid session name: %q", newID)
	}
	oldPath := filepath.Join(s.root, oldID)
	newPath := filepath.Join(s.root, newID)
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("session %q already exists", newID)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	return nil
}

type pointerDoc struct {
	LastSession string `yaml:"last_session"`
	LastUpdated string `yaml:"last_updated"`
}

// SetLatest records the most recent session in the root's pointer file so
// tooling can find it without scanning.
func (s *Store) SetLatest(id string) error {
	doc := pointerDoc{
		LastSession: id,
		LastUpdated: time.Now().Format(time.RFC3339),
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal session pointer: %w", err)
	}
	path := filepath.Join(s.root, pointerFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session pointer: %w", err)
	}
	return nil
}

// Latest returns the session recorded by SetLatest, or empty when none.
func (s *Store) Latest() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, pointerFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read session pointer: %w", err)
	}
	var doc pointerDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse session pointer: %w", err)
	}
	return doc.LastSession, nil
}
