// Package metadata collects per-session facts (host, display geometry,
// timing correlation with the external recorder) and persists them next to
// the event log.
package metadata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/duckai/ducktrack/internal/events"
)

// FileName is the metadata document inside a session directory.
const FileName = "metadata.json"

// Manager implements the metadata collaborator consumed by the session
// engine: collection starts before recording, ends at stop, and receives the
// recorder's state-change timings for correlation.
type Manager struct {
	dir              string
	naturalScrolling bool
	displayProbe     func() (int, int, error)

	mu   sync.Mutex
	meta map[string]any
}

// New creates a manager writing into the session directory.
func New(dir string, naturalScrolling bool) *Manager {
	return &Manager{
		dir:              dir,
		naturalScrolling: naturalScrolling,
		displayProbe:     displayGeometry,
		meta:             make(map[string]any),
	}
}

// BeginCollect gathers the facts that must be known before recording starts,
// notably the display geometry the recorder configuration derives from.
func (m *Manager) BeginCollect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.meta["system"] = runtime.GOOS
	m.meta["arch"] = runtime.GOARCH
	m.meta["natural_scrolling"] = m.naturalScrolling
	m.meta["start_time"] = time.Now().Format(time.RFC3339Nano)
	m.meta["start_time_perf"] = events.Now()

	if hostname, err := os.Hostname(); err == nil {
		m.meta["hostname"] = hostname
	}

	width, height, err := m.displayProbe()
	if err != nil {
		slog.Warn("Display geometry probe failed, using defaults", "error", err)
		width, height = 1920, 1080
	}
	m.meta["screen_width"] = width
	m.meta["screen_height"] = height
}

// EndCollect records the end-of-session timing facts.
func (m *Manager) EndCollect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.meta["end_time"] = time.Now().Format(time.RFC3339Nano)
	m.meta["end_time_perf"] = events.Now()
}

// AddRecorderTimings stores the external recorder's state-change timestamps
// for correlating video frames with logged input events.
func (m *Manager) AddRecorderTimings(timings map[string][]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make(map[string][]float64, len(timings))
	for state, stamps := range timings {
		copied[state] = append([]float64(nil), stamps...)
	}
	m.meta["obs_record_state_timings"] = copied
}

// Set stores one additional fact.
func (m *Manager) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[key] = value
}

// Metadata returns a copy of the collected facts.
func (m *Manager) Metadata() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]any, len(m.meta))
	for key, value := range m.meta {
		out[key] = value
	}
	return out
}

// Persist writes metadata.json into the session directory.
func (m *Manager) Persist() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	path := filepath.Join(m.dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
