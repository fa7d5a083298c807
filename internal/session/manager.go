package session

import (
	"fmt"
	"sync"

	"github.com/duckai/ducktrack/internal/capture"
)

// Manager enforces the single-active-session rule and routes lifecycle
// commands to the current session.
type Manager struct {
	opts  Options
	store *Store

	mu     sync.Mutex
	active *Session
}

// NewManager creates a manager over the recordings root named in opts. The
// factory fields of opts must be populated by the caller; the config package
// provides the production wiring.
func NewManager(opts Options) (*Manager, error) {
	if opts.ConnectRecorder == nil || opts.NewCollaborator == nil || opts.SelectBackend == nil {
		return nil, fmt.Errorf("session manager requires recorder, collaborator and backend factories")
	}
	store, err := NewStore(opts.RecordingsDir)
	if err != nil {
		return nil, err
	}
	return &Manager{opts: opts, store: store}, nil
}

// Store exposes the session store for listing and renaming.
func (m *Manager) Store() *Store { return m.store }

// Start begins a new session. Exactly one session may be live at a time; a
// second start while recording or paused is rejected.
func (m *Manager) Start() (*Session, error) {
	m.mu.Lock()
	if m.active != nil {
		state := m.active.State()
		if state == StateRecording || state == StatePaused {
			m.mu.Unlock()
			return nil, fmt.Errorf("a session is already %s", state)
		}
	}

	id, path, err := m.store.Allocate()
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	session := newSession(id, path, m.opts)
	m.active = session
	m.mu.Unlock()

	if err := session.start(); err != nil {
		// Failed starts still go through full teardown so the partial
		// session directory is sealed and resources are released.
		session.Stop()
		return nil, err
	}
	if err := m.store.SetLatest(id); err != nil {
		return session, nil
	}
	return session, nil
}

// Pause pauses the active session.
func (m *Manager) Pause() error {
	session, err := m.current()
	if err != nil {
		return err
	}
	return session.Pause()
}

// Resume resumes the active session.
func (m *Manager) Resume() error {
	session, err := m.current()
	if err != nil {
		return err
	}
	return session.Resume()
}

// Stop stops the active session.
func (m *Manager) Stop() error {
	session, err := m.current()
	if err != nil {
		return err
	}
	return session.Stop()
}

// Status reports the state of the active (or most recent) session. With no
// session yet, the state is idle.
func (m *Manager) Status() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Info{State: StateIdle, Method: capture.MethodNone}
	}
	return m.active.Info()
}

func (m *Manager) current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, fmt.Errorf("no active session")
	}
	return m.active, nil
}
