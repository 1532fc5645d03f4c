package domain

import "time"

// RequestStatus enumerates lifecycle states for service requests.
type RequestStatus string

const (
	StatusPending    RequestStatus = "PENDING"
	StatusInProgress RequestStatus = "IN_PROGRESS"
	StatusCompleted  RequestStatus = "COMPLETED"
	StatusCancelled  RequestStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var allowedTransitions = map[RequestStatus][]RequestStatus{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether the state machine has an edge from current to next.
func CanTransition(current, next RequestStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Priority enumerates request urgency. Order is LOW < MEDIUM < HIGH.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

var priorityRank = map[Priority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank returns the ordinal of p, zero when unknown.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// Above reports whether p is strictly more urgent than other.
func (p Priority) Above(other Priority) bool {
	return p.Rank() > other.Rank()
}

// Category is the fixed set of hotel services a guest can request.
type Category string

const (
	CategoryRoomCleaning   Category = "ROOM_CLEANING"
	CategoryLaundry        Category = "LAUNDRY"
	CategoryInRoomDining   Category = "IN_ROOM_DINING"
	CategoryTransportation Category = "TRANSPORTATION"
	CategoryWakeUpCall     Category = "WAKE_UP_CALL"
	CategoryMaintenance    Category = "MAINTENANCE"
)

var categoryLabels = map[Category]string{
	CategoryRoomCleaning:   "Room Cleaning",
	CategoryLaundry:        "Laundry",
	CategoryInRoomDining:   "In-room Dining",
	CategoryTransportation: "Transportation",
	CategoryWakeUpCall:     "Wake-up Call",
	CategoryMaintenance:    "Maintenance",
}

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryRoomCleaning,
		CategoryLaundry,
		CategoryInRoomDining,
		CategoryTransportation,
		CategoryWakeUpCall,
		CategoryMaintenance,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label is the human readable category name.
func (c Category) Label() string {
	return categoryLabels[c]
}

// MaxNoteLength bounds the guest note.
const MaxNoteLength = 500

// ServiceRequest is the aggregate for guest service requests.
type ServiceRequest struct {
	ID               string
	RequesterID      string
	RoomNumber       string
	Category         Category
	Note             string
	Priority         Priority
	Status           RequestStatus
	AssigneeID       string
	ScheduledFor     *time.Time
	EstimatedReadyAt *time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

// Clone returns a deep copy so callers never share pointer fields with a store.
func (r *ServiceRequest) Clone() *ServiceRequest {
	if r == nil {
		return nil
	}
	out := *r
	out.ScheduledFor = cloneTime(r.ScheduledFor)
	out.EstimatedReadyAt = cloneTime(r.EstimatedReadyAt)
	out.CompletedAt = cloneTime(r.CompletedAt)
	return &out
}

// Assigned reports whether a staff member holds the request.
func (r *ServiceRequest) Assigned() bool {
	return r.AssigneeID != ""
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
