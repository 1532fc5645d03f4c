package domain

import "time"

// ChangeType captures what changed in a history entry.
type ChangeType string

const (
	ChangeTypeCreated  ChangeType = "CREATED"
	ChangeTypeStatus   ChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee ChangeType = "ASSIGNEE_CHANGE"
	ChangeTypePriority ChangeType = "PRIORITY_CHANGE"
	ChangeTypeNote     ChangeType = "NOTE_CHANGE"
)

// RequestHistory is an immutable audit trail entry.
type RequestHistory struct {
	ID         string
	RequestID  string
	ActorID    string
	ActorRole  Role
	ChangeType ChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	Version    int64
	CreatedAt  time.Time
}
