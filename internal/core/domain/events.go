package domain

import "time"

// EventType identifies a workflow transition event
type EventType string

const (
	EventRequestSubmitted EventType = "RequestSubmitted"
	EventRequestVerified  EventType = "RequestVerified"
	EventRequestApproved  EventType = "RequestApproved"
	EventRequestActivated EventType = "RequestActivated"
	EventRequestReturned  EventType = "RequestReturned"
	EventRequestExtended  EventType = "RequestExtended"
	EventRequestCanceled  EventType = "RequestCanceled"
	EventRequestOverdue   EventType = "RequestOverdue"
)

// Event is emitted once per applied transition for downstream audit and
// alerting. Delivery is fire-and-forget: a failed notification never rolls
// back the transition that produced it.
type Event struct {
	Type       EventType `json:"type"`
	RequestID  uint      `json:"request_id"`
	RequestNo  string    `json:"request_no"`
	Kind       Kind      `json:"kind"`
	Status     Status    `json:"status"`
	Actor      string    `json:"actor"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
