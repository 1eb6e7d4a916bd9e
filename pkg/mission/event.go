package mission

import (
	"time"

	"github.com/teslashibe/go-atlas/pkg/planner"
)

// EventKind distinguishes transitions from operator notices.
type EventKind string

const (
	EventTransition EventKind = "transition"
	EventNotice     EventKind = "notice"
	EventShutdown   EventKind = "shutdown"
)

// Event is published to observers on every transition and notice.
type Event struct {
	Kind      EventKind       `json:"kind"`
	MissionID string          `json:"mission_id,omitempty"`
	From      State           `json:"from"`
	To        State           `json:"to"`
	Signal    string          `json:"signal,omitempty"`
	Intent    *planner.Intent `json:"intent,omitempty"`
	Message   string          `json:"message,omitempty"`
	At        time.Time       `json:"at"`
}

// Observer receives mission events. OnEvent runs on the mission goroutine
// and must not block.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// Status is a point-in-time view of the machine for dashboards.
type Status struct {
	State     State           `json:"state"`
	MissionID string          `json:"mission_id,omitempty"`
	Command   string          `json:"command,omitempty"`
	Intent    *planner.Intent `json:"intent,omitempty"`
	TrailLen  int             `json:"trail_len"`
	Camera    string          `json:"camera_holder,omitempty"`
	Started   time.Time       `json:"started,omitzero"`
	Ticks     uint64          `json:"ticks"`
}
