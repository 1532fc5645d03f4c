package dto

import (
	"time"

	"github.com/spec-kit/hotel-requests/internal/domain"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	Category     domain.Category `json:"category" validate:"required"`
	Note         string          `json:"note"`
	Priority     domain.Priority `json:"priority"`
	ScheduledFor *time.Time      `json:"scheduled_for"`
}

// ClaimRequestRequest payload.
type ClaimRequestRequest struct {
	ExpectedVersion int64 `json:"expected_version" validate:"required,gte=1"`
	ETAMinutes      int   `json:"eta_minutes" validate:"gte=0,lte=1440"`
}

// StatusUpdateRequest payload.
type StatusUpdateRequest struct {
	ExpectedVersion int64                `json:"expected_version" validate:"required,gte=1"`
	Status          domain.RequestStatus `json:"status" validate:"required"`
}

// ReassignRequest payload.
type ReassignRequest struct {
	ExpectedVersion int64  `json:"expected_version" validate:"required,gte=1"`
	AssigneeID      string `json:"assignee_id" validate:"required"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	ExpectedVersion int64           `json:"expected_version" validate:"required,gte=1"`
	Priority        domain.Priority `json:"priority" validate:"required"`
}

// CancelRequest payload.
type CancelRequest struct {
	ExpectedVersion int64 `json:"expected_version" validate:"required,gte=1"`
}

// UpdateNoteRequest payload. The note length is checked after trimming by the service.
type UpdateNoteRequest struct {
	ExpectedVersion int64  `json:"expected_version" validate:"required,gte=1"`
	Note            string `json:"note"`
}

// RequestResponse is the wire form of a service request.
type RequestResponse struct {
	ID               string               `json:"id"`
	RequesterID      string               `json:"requester_id"`
	RoomNumber       string               `json:"room_number"`
	Category         domain.Category      `json:"category"`
	CategoryLabel    string               `json:"category_label"`
	Note             string               `json:"note"`
	Priority         domain.Priority      `json:"priority"`
	Status           domain.RequestStatus `json:"status"`
	AssigneeID       *string              `json:"assignee_id"`
	ScheduledFor     *time.Time           `json:"scheduled_for"`
	EstimatedReadyAt *time.Time           `json:"estimated_ready_at"`
	Version          int64                `json:"version"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	CompletedAt      *time.Time           `json:"completed_at"`
}

// NewRequestResponse maps the aggregate to its response.
func NewRequestResponse(req *domain.ServiceRequest) RequestResponse {
	resp := RequestResponse{
		ID:               req.ID,
		RequesterID:      req.RequesterID,
		RoomNumber:       req.RoomNumber,
		Category:         req.Category,
		CategoryLabel:    req.Category.Label(),
		Note:             req.Note,
		Priority:         req.Priority,
		Status:           req.Status,
		ScheduledFor:     req.ScheduledFor,
		EstimatedReadyAt: req.EstimatedReadyAt,
		Version:          req.Version,
		CreatedAt:        req.CreatedAt,
		UpdatedAt:        req.UpdatedAt,
		CompletedAt:      req.CompletedAt,
	}
	if req.Assigned() {
		assignee := req.AssigneeID
		resp.AssigneeID = &assignee
	}
	return resp
}

// NewRequestList maps a listing.
func NewRequestList(requests []domain.ServiceRequest) []RequestResponse {
	items := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, NewRequestResponse(&requests[i]))
	}
	return items
}

// HistoryResponse is one audit trail entry.
type HistoryResponse struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actor_id"`
	ActorRole  domain.Role       `json:"actor_role"`
	ChangeType domain.ChangeType `json:"change_type"`
	OldValue   map[string]any    `json:"old_value"`
	NewValue   map[string]any    `json:"new_value"`
	Version    int64             `json:"version"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewHistoryList maps audit entries.
func NewHistoryList(entries []domain.RequestHistory) []HistoryResponse {
	items := make([]HistoryResponse, 0, len(entries))
	for _, h := range entries {
		items = append(items, HistoryResponse{
			ID:         h.ID,
			ActorID:    h.ActorID,
			ActorRole:  h.ActorRole,
			ChangeType: h.ChangeType,
			OldValue:   h.OldValue,
			NewValue:   h.NewValue,
			Version:    h.Version,
			CreatedAt:  h.CreatedAt,
		})
	}
	return items
}
