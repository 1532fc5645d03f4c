package events

import (
	"time"

	"github.com/spec-kit/hotel-requests/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated           EventType = "request_created"
	EventRequestClaimed           EventType = "request_claimed"
	EventRequestStatusChanged     EventType = "request_status_changed"
	EventRequestReassigned        EventType = "request_reassigned"
	EventRequestPriorityEscalated EventType = "request_priority_escalated"
	EventRequestNoteUpdated       EventType = "request_note_updated"
)

// AllEventTypes lists every lifecycle event type.
func AllEventTypes() []EventType {
	return []EventType{
		EventRequestCreated,
		EventRequestClaimed,
		EventRequestStatusChanged,
		EventRequestReassigned,
		EventRequestPriorityEscalated,
		EventRequestNoteUpdated,
	}
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted after an accepted mutation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Version   int64       `json:"version"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Category     domain.Category `json:"category"`
	Priority     domain.Priority `json:"priority"`
	RoomNumber   string          `json:"room_number"`
	ScheduledFor *time.Time      `json:"scheduled_for,omitempty"`
}

// RequestClaimedPayload payload.
type RequestClaimedPayload struct {
	AssigneeID       string     `json:"assignee_id"`
	EstimatedReadyAt *time.Time `json:"estimated_ready_at,omitempty"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// RequestReassignedPayload payload.
type RequestReassignedPayload struct {
	OldAssigneeID string `json:"old_assignee_id"`
	NewAssigneeID string `json:"new_assignee_id"`
}

// RequestPriorityEscalatedPayload payload.
type RequestPriorityEscalatedPayload struct {
	OldPriority domain.Priority `json:"old_priority"`
	NewPriority domain.Priority `json:"new_priority"`
}

// RequestNoteUpdatedPayload payload.
type RequestNoteUpdatedPayload struct {
	OldNote string `json:"old_note"`
	NewNote string `json:"new_note"`
}
