// Package sink owns the hand-off between capture backends and the durable
// event log: a bounded queue with best-effort submission and a single writer
// that drains it in FIFO order, interleaving liveness sentinels so the log is
// provably non-empty even when no real input arrives.
package sink

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/duckai/ducktrack/internal/events"
)

// Options tune the sink's queue and liveness windows. Zero values select the
// defaults; tests shrink the windows.
type Options struct {
	QueueSize              int
	DrainTimeout           time.Duration
	SentinelInterval       time.Duration
	DirectSentinelInterval time.Duration
}

const (
	defaultQueueSize              = 1024
	defaultDrainTimeout           = 500 * time.Millisecond
	defaultSentinelInterval       = 2 * time.Second
	defaultDirectSentinelInterval = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = defaultDrainTimeout
	}
	if o.SentinelInterval <= 0 {
		o.SentinelInterval = defaultSentinelInterval
	}
	if o.DirectSentinelInterval <= 0 {
		o.DirectSentinelInterval = defaultDirectSentinelInterval
	}
	return o
}

// Sink drains submitted events to the durable log.
type Sink struct {
	log  *events.Log
	opts Options

	queue     chan events.Event
	accepting atomic.Bool
	started   atomic.Bool
	dropped   atomic.Uint64
	written   atomic.Uint64

	stopChan chan struct{}
	doneChan chan struct{}
}

// New creates a sink writing to log. Call Start to begin draining.
func New(log *events.Log, opts Options) *Sink {
	opts = opts.withDefaults()
	s := &Sink{
		log:      log,
		opts:     opts,
		queue:    make(chan events.Event, opts.QueueSize),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	s.accepting.Store(true)
	return s
}

// Submit enqueues an event without blocking. On a full queue or a closed sink
// the event is dropped, counted, and logged; the producer is never stalled.
func (s *Sink) Submit(event events.Event) bool {
	if !s.accepting.Load() {
		s.dropped.Add(1)
		return false
	}
	select {
	case s.queue <- event:
		return true
	default:
		s.dropped.Add(1)
		slog.Warn("Event queue full, dropping event", "action", event.Action)
		return false
	}
}

// Start launches the writer loop. Subsequent calls are no-ops.
func (s *Sink) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.writerLoop()
}

// Written reports the number of events the writer appended to the log.
func (s *Sink) Written() uint64 { return s.written.Load() }

// Dropped reports the number of events rejected at submission.
func (s *Sink) Dropped() uint64 { return s.dropped.Load() }

// Close stops intake, drains whatever is already queued, and joins the
// writer. Safe to call before Start and more than once.
func (s *Sink) Close() {
	if !s.accepting.CompareAndSwap(true, false) {
		return
	}
	close(s.stopChan)
	if s.started.Load() {
		<-s.doneChan
		return
	}
	// Writer never ran; drain synchronously so queued events still land.
	s.drainResidue()
}

func (s *Sink) writerLoop() {
	defer close(s.doneChan)

	timer := time.NewTimer(s.opts.DrainTimeout)
	defer timer.Stop()

	lastSentinel := time.Now()

	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.opts.DrainTimeout)

		select {
		case event := <-s.queue:
			s.write(event)

		case <-timer.C:
			// Queue idle: keep the log provably alive.
			if time.Since(lastSentinel) > s.opts.SentinelInterval {
				s.enqueueSentinel()
				lastSentinel = time.Now()
			}

		case <-s.stopChan:
			s.drainResidue()
			return
		}

		// Backstop for a wedged queue path: if nothing reached the file for
		// the longer window, bypass the queue entirely.
		if time.Since(s.log.LastWrite()) > s.opts.DirectSentinelInterval {
			slog.Info("Direct sentinel: ensuring event log has content")
			s.write(events.NewDirectSentinel())
		}
	}
}

// drainResidue empties the queue FIFO after intake has stopped.
func (s *Sink) drainResidue() {
	for {
		select {
		case event := <-s.queue:
			s.write(event)
		default:
			return
		}
	}
}

func (s *Sink) enqueueSentinel() {
	select {
	case s.queue <- events.NewSentinel():
	default:
	}
}

func (s *Sink) write(event events.Event) {
	if err := s.log.Append(event); err != nil {
		// Transient IO failure: the session continues, the gap is logged.
		slog.Error("Failed to append event", "action", event.Action, "error", err)
		return
	}
	s.written.Add(1)
}
