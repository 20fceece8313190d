package events

import "time"

// Event is the contract every published domain event satisfies.
// Types are uppercase codes such as "DOCUMENT_ANALYZED" or "USER_LOGIN"
// and double as NATS subject suffixes (events.DOCUMENT_ANALYZED).
type Event interface {
	// EventType returns the unique code for this event.
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the ad-hoc implementation services publish inline.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
