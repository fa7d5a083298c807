// Package session owns the recording lifecycle: it selects a capture
// backend, drives the external recorder, and guarantees the durable event
// log opens with recording_started and closes with recording_ended on every
// exit path.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/duckai/ducktrack/internal/capture"
	"github.com/duckai/ducktrack/internal/events"
	"github.com/duckai/ducktrack/internal/sink"
)

// State is the lifecycle state of a session.
type State string

const (
	StateIdle      State = "IDLE"
	StateRecording State = "RECORDING"
	StatePaused    State = "PAUSED"
	StateStopped   State = "STOPPED"
)

// RecorderClient is the consumed remote-control surface of the external
// screen recorder.
type RecorderClient interface {
	Configure(recordingPath string, meta map[string]any) error
	StartRecord() error
	StopRecord() error
	PauseRecord() error
	ResumeRecord() error
	StateTimings() map[string][]float64
	Close() error
}

// Collaborator supplies session metadata before recording starts and
// persists it, enriched with recorder timings, after recording stops.
type Collaborator interface {
	BeginCollect()
	EndCollect()
	AddRecorderTimings(timings map[string][]float64)
	Set(key string, value any)
	Metadata() map[string]any
	Persist() error
}

// Options wire a session's collaborators. The factories default to the real
// implementations; tests replace them.
type Options struct {
	RecordingsDir    string
	NaturalScrolling bool
	StopGrace        time.Duration
	Sink             sink.Options

	ConnectRecorder func() (RecorderClient, error)
	NewCollaborator func(dir string) Collaborator
	SelectBackend   func(emit capture.EmitFunc) capture.Selection
	WatchVideo      bool
}

const defaultStopGrace = 500 * time.Millisecond

// Info is a point-in-time snapshot of a session for status reporting.
type Info struct {
	ID             string         `json:"id"`
	Path           string         `json:"path"`
	CreatedAt      time.Time      `json:"created_at"`
	State          State          `json:"state"`
	Method         capture.Method `json:"capture_method"`
	EventsRecorded uint64         `json:"events_recorded"`
	EventsDropped  uint64         `json:"events_dropped"`
}

// Session is one bounded recording. It is created by a Manager on start and
// never reused; stop is terminal.
type Session struct {
	id        string
	path      string
	createdAt time.Time
	opts      Options

	mu     sync.Mutex
	state  State
	method capture.Method

	accepting atomic.Bool

	log      *events.Log
	sink     *sink.Sink
	backend  capture.Backend
	recorder RecorderClient
	meta     Collaborator
	watcher  *videoWatcher

	stopped chan struct{}
}

func newSession(id, path string, opts Options) *Session {
	if opts.StopGrace <= 0 {
		opts.StopGrace = defaultStopGrace
	}
	return &Session{
		id:        id,
		path:      path,
		createdAt: time.Now(),
		opts:      opts,
		state:     StateIdle,
		method:    capture.MethodNone,
		stopped:   make(chan struct{}),
	}
}

// start establishes a minimally functional session or fails. On failure the
// caller is expected to invoke Stop, which is safe on the half-initialized
// remains.
func (s *Session) start() error {
	recorder, err := s.opts.ConnectRecorder()
	if err != nil {
		return fmt.Errorf("recorder unreachable: %w", err)
	}
	s.recorder = recorder

	log, err := events.OpenLog(s.path)
	if err != nil {
		return err
	}
	s.log = log
	s.sink = sink.New(log, s.opts.Sink)

	// The started marker goes in before anything can race it; the sink is
	// the only writer from here on.
	if err := log.Append(events.NewLifecycle(events.ActionRecordingStarted)); err != nil {
		return err
	}

	s.accepting.Store(true)
	selection := s.opts.SelectBackend(s.emit)
	s.backend = selection.Backend
	s.method = selection.Method

	if err := log.Append(events.NewCaptureMethod(string(s.method))); err != nil {
		slog.Error("Failed to record capture method", "error", err)
	}

	s.meta = s.opts.NewCollaborator(s.path)
	s.meta.BeginCollect()
	s.meta.Set("capture_method", string(s.method))

	if err := recorder.Configure(s.path, s.meta.Metadata()); err != nil {
		// Partial configuration is tolerated; the recorder keeps whatever
		// settings it already had.
		slog.Warn("Recorder configuration incomplete", "error", err)
	}
	if err := recorder.StartRecord(); err != nil {
		return fmt.Errorf("start screen capture: %w", err)
	}

	s.sink.Start()

	if s.backend != nil {
		if err := s.backend.Start(); err != nil {
			slog.Error("Capture backend failed to start, recording screen only", "error", err)
			s.backend = nil
			s.method = capture.MethodNone
			s.sink.Submit(events.NewLifecycle(events.ActionListenersUnavailable))
		} else {
			s.sink.Submit(events.NewLifecycle(events.ActionListenersStarted))
		}
	} else {
		s.sink.Submit(events.NewLifecycle(events.ActionListenersUnavailable))
	}

	if s.opts.WatchVideo {
		if watcher, err := watchVideo(s.path); err != nil {
			slog.Warn("Video file watcher unavailable", "error", err)
		} else {
			s.watcher = watcher
		}
	}

	s.mu.Lock()
	s.state = StateRecording
	s.mu.Unlock()

	slog.Info("Recording started", "session", s.id, "path", s.path, "method", s.method)
	return nil
}

// emit is the capture backends' path into the sink. Input keeps being logged
// while paused so the full interaction context is preserved; only the screen
// recorder pauses.
func (s *Session) emit(event events.Event) {
	if !s.accepting.Load() {
		return
	}
	s.sink.Submit(event)
}

// Pause pauses the external recorder and logs the transition. Valid only
// while recording.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.state != StateRecording {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("can only pause while recording, current: %s", state)
	}
	s.state = StatePaused
	s.mu.Unlock()

	if err := s.recorder.PauseRecord(); err != nil {
		slog.Error("Recorder pause failed", "error", err)
	}
	s.sink.Submit(events.Event{TimeStamp: events.Now(), Action: events.ActionPause})

	slog.Info("Recording paused", "session", s.id)
	return nil
}

// Resume is the mirror of Pause. Valid only while paused.
func (s *Session) Resume() error {
	s.mu.Lock()
	if s.state != StatePaused {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("can only resume while paused, current: %s", state)
	}
	s.state = StateRecording
	s.mu.Unlock()

	if err := s.recorder.ResumeRecord(); err != nil {
		slog.Error("Recorder resume failed", "error", err)
	}
	s.sink.Submit(events.Event{TimeStamp: events.Now(), Action: events.ActionResume})

	slog.Info("Recording resumed", "session", s.id)
	return nil
}

// Stop tears the session down in a fixed order. Every step recovers locally:
// a recording must always reach a consistent, closed-on-disk state even when
// individual subsystems misbehave. Safe on sessions that failed mid-start.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopped
	s.mu.Unlock()

	slog.Info("Stopping recording", "session", s.id)

	// (1) Stop accepting producer events, (2) let in-flight events drain.
	s.accepting.Store(false)
	time.Sleep(s.opts.StopGrace)

	// (3) Quiesce the capture backend.
	s.step("stop capture backend", func() error {
		if s.backend != nil {
			s.backend.Stop()
		}
		return nil
	})

	// (4) Finalize metadata collection.
	s.step("finalize metadata", func() error {
		if s.meta != nil {
			s.meta.EndCollect()
		}
		return nil
	})

	// (5) Stop the external recorder and hand its state timings over.
	s.step("stop external recorder", func() error {
		if s.recorder == nil {
			return nil
		}
		err := s.recorder.StopRecord()
		if s.meta != nil {
			s.meta.AddRecorderTimings(s.recorder.StateTimings())
		}
		if closeErr := s.recorder.Close(); closeErr != nil {
			slog.Debug("Recorder disconnect failed", "error", closeErr)
		}
		return err
	})

	// (6) Drain the sink, seal and close the log.
	s.step("close event log", func() error {
		if s.sink != nil {
			s.sink.Close()
		}
		if s.log == nil {
			return nil
		}
		if err := s.log.Append(events.NewLifecycle(events.ActionRecordingEnded)); err != nil {
			slog.Error("Failed to write final event", "error", err)
		}
		return s.log.Close()
	})

	// (7) Persist final metadata, including the video file the recorder
	// dropped into the session directory.
	s.step("persist metadata", func() error {
		if s.watcher != nil {
			if file := s.watcher.File(); file != "" && s.meta != nil {
				s.meta.Set("video_file", file)
			}
			s.watcher.Close()
		}
		if s.meta == nil {
			return nil
		}
		return s.meta.Persist()
	})

	// (8) Signal observers.
	close(s.stopped)

	slog.Info("Recording stopped", "session", s.id, "path", s.path)
	return nil
}

// step runs one teardown action, logging instead of propagating failure.
func (s *Session) step(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Teardown step panicked", "step", name, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		slog.Error("Teardown step failed", "step", name, "error", err)
	}
}

// Stopped is closed once teardown completes.
func (s *Session) Stopped() <-chan struct{} {
	return s.stopped
}

// Info snapshots the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	state := s.state
	method := s.method
	s.mu.Unlock()

	info := Info{
		ID:        s.id,
		Path:      s.path,
		CreatedAt: s.createdAt,
		State:     state,
		Method:    method,
	}
	if s.sink != nil {
		info.EventsRecorded = s.sink.Written()
		info.EventsDropped = s.sink.Dropped()
	}
	return info
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Path returns the session's storage directory.
func (s *Session) Path() string { return s.path }

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }
