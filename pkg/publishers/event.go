package publishers

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies the payload of an Event.
type Kind string

const (
	KindISSPosition Kind = "iss_position"
	KindAstros      Kind = "astros"
	KindPassTimes   Kind = "pass_times"
)

func (k Kind) valid() bool {
	switch k {
	case KindISSPosition, KindAstros, KindPassTimes:
		return true
	}
	return false
}

// Event represents the payload published downstream.
type Event struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Source      string    `json:"source"`
	LocationID  string    `json:"location_id,omitempty"`
	Payload     any       `json:"payload"`
	CollectedAt time.Time `json:"collected_at"`
}

// NewEvent constructs an Event with a random id, stamped with the current UTC time.
func NewEvent(kind Kind, source string, payload any) Event {
	return Event{
		ID:          uuid.NewString(),
		Kind:        kind,
		Source:      source,
		Payload:     payload,
		CollectedAt: time.Now().UTC(),
	}
}

// WithLocation returns a copy of the event tagged with a location id.
func (e Event) WithLocation(id string) Event {
	e.LocationID = id
	return e
}

// attributes are the message attributes attached by queue/topic sinks.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{"kind": string(e.Kind)}
	if e.ID != "" {
		attrs["event_id"] = e.ID
	}
	if e.LocationID != "" {
		attrs["location_id"] = e.LocationID
	}
	return attrs
}
