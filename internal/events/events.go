package events

import (
	"time"
)

// Action identifies the kind of a recorded event
type Action string

const (
	ActionMove    Action = "move"
	ActionClick   Action = "click"
	ActionScroll  Action = "scroll"
	ActionPress   Action = "press"
	ActionRelease Action = "release"

	ActionPause  Action = "pause"
	ActionResume Action = "resume"

	ActionSentinel       Action = "sentinel"
	ActionDirectSentinel Action = "direct_sentinel"

	ActionRecordingStarted   Action = "recording_started"
	ActionRecordingEnded     Action = "recording_ended"
	ActionInputCaptureMethod Action = "input_capture_method"

	ActionListenersStarted     Action = "input_listeners_started"
	ActionListenersUnavailable Action = "input_listeners_unavailable"
	ActionFallbackStarted      Action = "fallback_monitor_started"
	ActionHeartbeat            Action = "heartbeat"
)

// Event is a single immutable, timestamped record. TimeStamp is a monotonic
// number of seconds since process start; kind-specific fields are omitted
// when empty so each line in the log stays self-describing.
type Event struct {
	TimeStamp float64 `json:"time_stamp"`
	Action    Action  `json:"action"`

	X       *int    `json:"x,omitempty"`
	Y       *int    `json:"y,omitempty"`
	DX      *int    `json:"dx,omitempty"`
	DY      *int    `json:"dy,omitempty"`
	Button  string  `json:"button,omitempty"`
	Pressed *bool   `json:"pressed,omitempty"`
	Name    string  `json:"name,omitempty"`
	Method  string  `json:"method,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	Message string  `json:"message,omitempty"`
	Wall    float64 `json:"timestamp,omitempty"`
}

var processEpoch = time.Now()

// Now returns the monotonic timestamp used for all events in this process.
func Now() float64 {
	return time.Since(processEpoch).Seconds()
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// NewMove creates a pointer motion event.
func NewMove(x, y int) Event {
	return Event{TimeStamp: Now(), Action: ActionMove, X: intPtr(x), Y: intPtr(y)}
}

// NewClick creates a button press/release event.
func NewClick(x, y int, button string, pressed bool) Event {
	return Event{TimeStamp: Now(), Action: ActionClick, X: intPtr(x), Y: intPtr(y), Button: button, Pressed: boolPtr(pressed)}
}

// NewScroll creates a scroll event with wheel deltas.
func NewScroll(x, y, dx, dy int) Event {
	return Event{TimeStamp: Now(), Action: ActionScroll, X: intPtr(x), Y: intPtr(y), DX: intPtr(dx), DY: intPtr(dy)}
}

// NewKeyPress creates a key press event.
func NewKeyPress(name string) Event {
	return Event{TimeStamp: Now(), Action: ActionPress, Name: name}
}

// NewKeyRelease creates a key release event.
func NewKeyRelease(name string) Event {
	return Event{TimeStamp: Now(), Action: ActionRelease, Name: name}
}

// NewSentinel creates a liveness event. Sentinels additionally carry the
// wall-clock time so a stalled pipeline can be dated after the fact.
func NewSentinel() Event {
	return Event{TimeStamp: Now(), Action: ActionSentinel, Wall: float64(time.Now().UnixNano()) / 1e9}
}

// NewDirectSentinel creates the sentinel variant written straight to the log
// when the queue path has been silent for too long.
func NewDirectSentinel() Event {
	return Event{TimeStamp: Now(), Action: ActionDirectSentinel, Wall: float64(time.Now().UnixNano()) / 1e9}
}

// NewLifecycle creates a lifecycle or diagnostic marker.
func NewLifecycle(action Action) Event {
	return Event{TimeStamp: Now(), Action: action}
}

// NewCaptureMethod records which input capture method is active for the session.
func NewCaptureMethod(method string) Event {
	return Event{TimeStamp: Now(), Action: ActionInputCaptureMethod, Method: method}
}
