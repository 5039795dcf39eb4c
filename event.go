package herdline

import "time"

const (
	EventActionCreated = "created"
	EventActionUpdated = "updated"
)

// Event is the change notification fanned out over the signal channel
// whenever a report of some kind is written.
type Event struct {
	Kind      Kind      `json:"kind"`
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}
