package connection

import "time"

// State is the lifecycle state of the broker connection.
type State int

// Connection states.
const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
	Stopped
)

// String returns the lowercase state name used in logs and the API.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EventKind classifies a lifecycle Event.
type EventKind string

// Event kinds.
const (
	// EventTransition is emitted on every state change.
	EventTransition EventKind = "transition"

	// EventSubscribeFailed is emitted once per topic that could not be subscribed.
	EventSubscribeFailed EventKind = "subscribe_failed"

	// EventReconnectAttempt is emitted before each reconnect attempt.
	EventReconnectAttempt EventKind = "reconnect_attempt"
)

// Event describes something that happened to the connection.
type Event struct {
	Kind      EventKind
	From      State
	To        State
	Topic     string
	Attempt   int
	Err       error
	Timestamp time.Time
}

// Observer receives lifecycle events.
//
// ObserveConnection may be called from the broker dispatch goroutine and from
// the reconnect goroutine; it must not block or call back into the Manager.
type Observer interface {
	ObserveConnection(e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(e Event)

// ObserveConnection calls f(e).
func (f ObserverFunc) ObserveConnection(e Event) {
	f(e)
}

// Status is a point-in-time view of the manager for health reporting.
type Status struct {
	State      State     `json:"state"`
	Since      time.Time `json:"since"`
	Reconnects uint64    `json:"reconnects"`
	LastError  string    `json:"last_error,omitempty"`
}
