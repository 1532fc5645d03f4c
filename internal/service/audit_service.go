package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/hotel-requests/internal/domain"
	"github.com/spec-kit/hotel-requests/internal/events"
	"github.com/spec-kit/hotel-requests/internal/repository"
	apperrors "github.com/spec-kit/hotel-requests/pkg/util/errorutil"
)

// AuditService turns lifecycle events into request history rows and serves
// them back to principals who can see the request.
type AuditService struct {
	history    repository.RequestHistoryRepository
	visibility *VisibilityService
}

// NewAuditService constructs the service.
func NewAuditService(history repository.RequestHistoryRepository, visibility *VisibilityService) *AuditService {
	return &AuditService{history: history, visibility: visibility}
}

// Register subscribes the audit writer to every lifecycle event.
func (s *AuditService) Register(d events.Dispatcher) {
	events.SubscribeAll(d, s.Record)
}

// Record writes the history row for one event.
func (s *AuditService) Record(ctx context.Context, event events.Event) error {
	entry, err := historyFromEvent(event)
	if err != nil {
		return err
	}
	return s.history.Create(ctx, entry)
}

// ListHistory returns the audit trail of a request visible to p, oldest first.
func (s *AuditService) ListHistory(ctx context.Context, p *domain.Principal, requestID string) ([]domain.RequestHistory, error) {
	if _, err := s.visibility.GetVisible(ctx, p, requestID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if entries == nil {
		entries = []domain.RequestHistory{}
	}
	return entries, nil
}

func historyFromEvent(event events.Event) (*domain.RequestHistory, error) {
	entry := &domain.RequestHistory{
		RequestID: event.RequestID,
		ActorID:   event.Actor.ID,
		ActorRole: event.Actor.Role,
		Version:   event.Version,
		CreatedAt: event.Timestamp,
	}

	switch payload := event.Payload.(type) {
	case events.RequestCreatedPayload:
		entry.ChangeType = domain.ChangeTypeCreated
		entry.NewValue = map[string]any{
			"status":      domain.StatusPending,
			"category":    payload.Category,
			"priority":    payload.Priority,
			"room_number": payload.RoomNumber,
		}
	case events.RequestClaimedPayload:
		entry.ChangeType = domain.ChangeTypeStatus
		entry.OldValue = map[string]any{"status": domain.StatusPending}
		entry.NewValue = map[string]any{"status": domain.StatusInProgress, "assignee_id": payload.AssigneeID}
		if payload.EstimatedReadyAt != nil {
			entry.NewValue["estimated_ready_at"] = payload.EstimatedReadyAt
		}
	case events.RequestStatusChangedPayload:
		entry.ChangeType = domain.ChangeTypeStatus
		entry.OldValue = map[string]any{"status": payload.OldStatus}
		entry.NewValue = map[string]any{"status": payload.NewStatus}
	case events.RequestReassignedPayload:
		entry.ChangeType = domain.ChangeTypeAssignee
		entry.OldValue = map[string]any{"assignee_id": payload.OldAssigneeID}
		entry.NewValue = map[string]any{"assignee_id": payload.NewAssigneeID}
	case events.RequestPriorityEscalatedPayload:
		entry.ChangeType = domain.ChangeTypePriority
		entry.OldValue = map[string]any{"priority": payload.OldPriority}
		entry.NewValue = map[string]any{"priority": payload.NewPriority}
	case events.RequestNoteUpdatedPayload:
		entry.ChangeType = domain.ChangeTypeNote
		entry.OldValue = map[string]any{"note": payload.OldNote}
		entry.NewValue = map[string]any{"note": payload.NewNote}
	default:
		return nil, fmt.Errorf("no history mapping for event %s", event.Type)
	}
	return entry, nil
}
