package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hotel-requests/internal/domain"
	"github.com/spec-kit/hotel-requests/internal/events"
	"github.com/spec-kit/hotel-requests/internal/observability"
	"github.com/spec-kit/hotel-requests/internal/repository"
	apperrors "github.com/spec-kit/hotel-requests/pkg/util/errorutil"
)

// MaxETAMinutes bounds the estimate a staff member may give when claiming.
const MaxETAMinutes = 24 * 60

const claimedByOtherMessage = "request was already claimed by another staff member"

// Operation names used in metrics labels and IllegalTransition details.
const (
	opCreate   = "create"
	opClaim    = "claim"
	opComplete = "complete"
	opCancel   = "cancel"
	opReopen   = "reopen"
	opReassign = "reassign"
	opEscalate = "escalate"
	opEdit     = "edit"
)

// LifecycleService enforces the service request state machine. Every mutation
// is a single compare-and-swap against the version the caller last read.
type LifecycleService struct {
	requests   repository.RequestStore
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	now        func() time.Time
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	RequestStore repository.RequestStore
	StaffRepo    repository.StaffRepository
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Clock        func() time.Time
}

// CreateRequestInput describes a new guest request.
type CreateRequestInput struct {
	Category     domain.Category
	Note         string
	Priority     domain.Priority
	ScheduledFor *time.Time
}

// ClaimOptions carries optional claim parameters.
type ClaimOptions struct {
	// ETAMinutes sets EstimatedReadyAt relative to the claim time when positive.
	ETAMinutes int
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &LifecycleService{
		requests:   deps.RequestStore,
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		now:        clock,
	}
}

// CreateRequest opens a PENDING request for the calling guest. The guest's room
// number is copied onto the request.
func (s *LifecycleService) CreateRequest(ctx context.Context, p *domain.Principal, input CreateRequestInput) (*domain.ServiceRequest, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !p.IsGuest() {
		return nil, apperrors.NewForbidden("only guests can create requests")
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	note, err := normalizeNote(input.Note)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.RoomNumber) == "" {
		return nil, apperrors.NewValidationError("guest has no room on record", map[string]any{"guest_id": p.ID})
	}

	req := &domain.ServiceRequest{
		RequesterID: p.ID,
		RoomNumber:  p.RoomNumber,
		Category:    input.Category,
		Note:        note,
		Priority:    priority,
		Status:      domain.StatusPending,
	}
	if input.ScheduledFor != nil && !input.ScheduledFor.IsZero() {
		scheduled := input.ScheduledFor.UTC()
		req.ScheduledFor = &scheduled
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, mapStoreError(err, "")
	}

	s.metrics.RecordTransition(opCreate, string(req.Status))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: req.ID,
		Version:   req.Version,
		Actor:     actorFor(p),
		Payload: events.RequestCreatedPayload{
			Category:     req.Category,
			Priority:     req.Priority,
			RoomNumber:   req.RoomNumber,
			ScheduledFor: req.ScheduledFor,
		},
	})
	return req, nil
}

// ClaimRequest moves a PENDING request to IN_PROGRESS and assigns it to the
// calling staff member. Of several concurrent claims exactly one succeeds; the
// others receive a VersionConflict naming the current holder.
func (s *LifecycleService) ClaimRequest(ctx context.Context, p *domain.Principal, id string, expectedVersion int64, opts ClaimOptions) (*domain.ServiceRequest, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if p.IsGuest() {
		return nil, apperrors.NewForbidden("only staff can claim requests")
	}
	if opts.ETAMinutes < 0 || opts.ETAMinutes > MaxETAMinutes {
		return nil, apperrors.NewValidationError("eta_minutes out of range",
			map[string]any{"eta_minutes": opts.ETAMinutes, "max": MaxETAMinutes})
	}

	guard := func(r *domain.ServiceRequest) error {
		if !p.IsStaff() {
			return apperrors.NewIllegalStatusTransition(string(r.Status), opClaim, string(domain.StatusInProgress))
		}
		if r.Status != domain.StatusPending || r.Assigned() {
			return apperrors.NewIllegalStatusTransition(string(r.Status), opClaim, string(domain.StatusInProgress))
		}
		return nil
	}

	var eta *time.Time
	_, updated, err := s.swap(ctx, p, opClaim, id, expectedVersion, guard, func(r *domain.ServiceRequest) {
		r.Status = domain.StatusInProgress
		r.AssigneeID = p.ID
		r.EstimatedReadyAt = nil
		if opts.ETAMinutes > 0 {
			ready := s.now().UTC().Add(time.Duration(opts.ETAMinutes) * time.Minute)
			r.EstimatedReadyAt = &ready
			eta = &ready
		}
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestClaimed,
		RequestID: updated.ID,
		Version:   updated.Version,
		Actor:     actorFor(p),
		Payload: events.RequestClaimedPayload{
			AssigneeID:       updated.AssigneeID,
			EstimatedReadyAt: eta,
		},
	})
	return updated, nil
}

// AdvanceStatus moves a request to target. IN_PROGRESS is a claim, CANCELLED a
// cancellation; COMPLETED is allowed for the assignee or an admin.
func (s *LifecycleService) AdvanceStatus(ctx context.Context, p *domain.Principal, id string, expectedVersion int64, target domain.RequestStatus) (*domain.ServiceRequest, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !target.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": target})
	}

	switch target {
	case domain.StatusInProgress:
		return s.ClaimRequest(ctx, p, id, expectedVersion, ClaimOptions{})
	case domain.StatusCancelled:
		return s.CancelRequest(ctx, p, id, expectedVersion)
	case domain.StatusCompleted:
		return s.completeRequest(ctx, p, id, expectedVersion)
	default:
		if p.IsGuest() {
			return nil, apperrors.NewForbidden("guests cannot change request status")
		}
		current, err := s.load(ctx, p, opReopen, id, expectedVersion)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.NewIllegalStatusTransition(string(current.Status), opReopen, string(target))
	}
}

func (s *LifecycleService) completeRequest(ctx context.Context, p *domain.Principal, id string, expectedVersion int64) (*domain.ServiceRequest, error) {
	if p.IsGuest() {
		return nil, apperrors.NewForbidden("guests cannot complete requests")
	}

	guard := func(r *domain.ServiceRequest) error {
		if r.Status != domain.StatusInProgress {
			return apperrors.NewIllegalStatusTransition(string(r.Status), opComplete, string(domain.StatusCompleted))
		}
		if p.IsStaff() && r.AssigneeID != p.ID {
			return apperrors.NewForbidden("only the assigned staff member can complete this request")
		}
		return nil
	}

	before, updated, err := s.swap(ctx, p, opComplete, id, expectedVersion, guard, func(r *domain.ServiceRequest) {
		completedAt := s.now().UTC()
		r.Status = domain.StatusCompleted
		r.CompletedAt = &completedAt
		r.EstimatedReadyAt = nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChanged(ctx, p, before.Status, updated)
	return updated, nil
}

// CancelRequest cancels a request. Guests may cancel their own PENDING
// requests; admins may cancel any request that is not terminal.
func (s *LifecycleService) CancelRequest(ctx context.Context, p *domain.Principal, id string, expectedVersion int64) (*domain.ServiceRequest, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if p.IsStaff() {
		return nil, apperrors.NewForbidden("staff cannot cancel requests")
	}

	guard := func(r *domain.ServiceRequest) error {
		if p.IsGuest() {
			if r.RequesterID != p.ID {
				return apperrors.NewNotFound("request", map[string]any{"request_id": r.ID})
			}
			if r.Status != domain.StatusPending {
				return apperrors.NewIllegalStatusTransition(string(r.Status), opCancel, string(domain.StatusCancelled))
			}
			return nil
		}
		if !domain.CanTransition(r.Status, domain.StatusCancelled) {
			return apperrors.NewIllegalStatusTransition(string(r.Status), opCancel, string(domain.StatusCancelled))
		}
		return nil
	}

	before, updated, err := s.swap(ctx, p, opCancel, id, expectedVersion, guard, func(r *domain.ServiceRequest) {
		r.Status = domain.StatusCancelled
		r.EstimatedReadyAt = nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChanged(ctx, p, before.Status, updated)
	return updated, nil
}

// Reassign hands an IN_PROGRESS request to another active roster member.
func (s *LifecycleService) Reassign(ctx context.Context, p *domain.Principal, id string, expectedVersion int64, newAssigneeID string) (*domain.ServiceRequest, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !p.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can reassign requests")
	}
	newAssigneeID = strings.TrimSpace(newAssigneeID)
	if newAssigneeID == "" {
		return nil, apperrors.NewValidationError("assignee_id is required", nil)
	}

	guard := func(r *domain.ServiceRequest) error {
		if r.Status != domain.StatusInProgress {
			return apperrors.NewIllegalTransition(string(r.Status), opReassign)
		}
		if r.AssigneeID == newAssigneeID {
			return apperrors.NewValidationError("request is already assigned to this staff member",
				map[string]any{"assignee_id": newAssigneeID})
		}
		return nil
	}

	roster := func(ctx context.Context, _ *domain.ServiceRequest) error {
		return s.requireActiveStaff(ctx, newAssigneeID)
	}

	before, updated, err := s.swapChecked(ctx, p, opReassign, id, expectedVersion, guard, roster, func(r *domain.ServiceRequest) {
		r.AssigneeID = newAssigneeID
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestReassigned,
		RequestID: updated.ID,
		Version:   updated.Version,
		Actor:     actorFor(p),
		Payload: events.RequestReassignedPayload{
			OldAssigneeID: before.AssigneeID,
			NewAssigneeID: updated.AssigneeID,
		},
	})
	return updated, nil
}

// Escalate raises the priority of a request that is still open.
func (s *LifecycleService) Escalate(ctx context.Context, p *domain.Principal, id string, expectedVersion int64, newPriority domain.Priority) (*domain.ServiceRequest, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !p.IsOperator() {
		return nil, apperrors.NewForbidden("only staff can escalate requests")
	}
	if !newPriority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": newPriority})
	}

	guard := func(r *domain.ServiceRequest) error {
		if r.Status.Terminal() {
			return apperrors.NewIllegalTransition(string(r.Status), opEscalate)
		}
		if !newPriority.Above(r.Priority) {
			return apperrors.NewValidationError("priority can only be raised",
				map[string]any{"current_priority": r.Priority, "requested_priority": newPriority})
		}
		return nil
	}

	before, updated, err := s.swap(ctx, p, opEscalate, id, expectedVersion, guard, func(r *domain.ServiceRequest) {
		r.Priority = newPriority
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestPriorityEscalated,
		RequestID: updated.ID,
		Version:   updated.Version,
		Actor:     actorFor(p),
		Payload: events.RequestPriorityEscalatedPayload{
			OldPriority: before.Priority,
			NewPriority: updated.Priority,
		},
	})
	return updated, nil
}

// UpdateNote replaces the note on the caller's own PENDING request.
func (s *LifecycleService) UpdateNote(ctx context.Context, p *domain.Principal, id string, expectedVersion int64, note string) (*domain.ServiceRequest, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !p.IsGuest() {
		return nil, apperrors.NewForbidden("only the requesting guest can edit the note")
	}
	note, err := normalizeNote(note)
	if err != nil {
		return nil, err
	}

	guard := func(r *domain.ServiceRequest) error {
		if r.RequesterID != p.ID {
			return apperrors.NewNotFound("request", map[string]any{"request_id": r.ID})
		}
		if r.Status != domain.StatusPending {
			return apperrors.NewIllegalTransition(string(r.Status), opEdit)
		}
		return nil
	}

	before, updated, err := s.swap(ctx, p, opEdit, id, expectedVersion, guard, func(r *domain.ServiceRequest) {
		r.Note = note
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestNoteUpdated,
		RequestID: updated.ID,
		Version:   updated.Version,
		Actor:     actorFor(p),
		Payload: events.RequestNoteUpdatedPayload{
			OldNote: before.Note,
			NewNote: updated.Note,
		},
	})
	return updated, nil
}

// swap runs the fetch, version check, guard and compare-and-swap sequence
// shared by every mutation. guard runs again inside the swap against the row
// being replaced.
func (s *LifecycleService) swap(
	ctx context.Context,
	p *domain.Principal,
	operation, id string,
	expectedVersion int64,
	guard func(*domain.ServiceRequest) error,
	apply func(*domain.ServiceRequest),
) (*domain.ServiceRequest, *domain.ServiceRequest, error) {
	return s.swapChecked(ctx, p, operation, id, expectedVersion, guard, nil, apply)
}

// swapChecked is swap with a precheck that runs once, after the guard and
// before the compare-and-swap, for lookups that must stay outside the store.
func (s *LifecycleService) swapChecked(
	ctx context.Context,
	p *domain.Principal,
	operation, id string,
	expectedVersion int64,
	guard func(*domain.ServiceRequest) error,
	precheck func(context.Context, *domain.ServiceRequest) error,
	apply func(*domain.ServiceRequest),
) (*domain.ServiceRequest, *domain.ServiceRequest, error) {
	current, err := s.load(ctx, p, operation, id, expectedVersion)
	if err != nil {
		return nil, nil, err
	}
	if err := guard(current); err != nil {
		return nil, nil, err
	}
	if precheck != nil {
		if err := precheck(ctx, current); err != nil {
			return nil, nil, err
		}
	}

	updated, err := s.requests.CompareAndSwap(ctx, id, expectedVersion, func(r *domain.ServiceRequest) error {
		if err := guard(r); err != nil {
			return err
		}
		apply(r)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.metrics.RecordConflict(operation)
			return nil, nil, s.conflictAfterSwap(ctx, p, operation, id, expectedVersion)
		}
		return nil, nil, mapStoreError(err, id)
	}

	s.metrics.RecordTransition(operation, string(updated.Status))
	return current, updated, nil
}

// load fetches the row and rejects a stale expected version. Rows p cannot
// see are reported as missing before the version is compared.
func (s *LifecycleService) load(ctx context.Context, p *domain.Principal, operation, id string, expectedVersion int64) (*domain.ServiceRequest, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("request id is required", nil)
	}
	if expectedVersion < 1 {
		return nil, apperrors.NewValidationError("expected_version must be positive",
			map[string]any{"expected_version": expectedVersion})
	}

	current, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	if !CanView(p, current) {
		return nil, apperrors.NewNotFound("request", map[string]any{"request_id": id})
	}
	if current.Version != expectedVersion {
		s.metrics.RecordConflict(operation)
		return nil, versionConflict(operation, current, expectedVersion)
	}
	return current, nil
}

func (s *LifecycleService) conflictAfterSwap(ctx context.Context, p *domain.Principal, operation, id string, expectedVersion int64) error {
	latest, err := s.requests.Get(ctx, id)
	if err != nil || !CanView(p, latest) {
		return apperrors.NewVersionConflict("", map[string]any{"request_id": id, "expected_version": expectedVersion})
	}
	return versionConflict(operation, latest, expectedVersion)
}

func versionConflict(operation string, current *domain.ServiceRequest, expectedVersion int64) error {
	details := map[string]any{
		"request_id":       current.ID,
		"expected_version": expectedVersion,
		"current_version":  current.Version,
		"current_status":   current.Status,
	}
	if current.Assigned() {
		details["assignee_id"] = current.AssigneeID
	}
	message := ""
	if operation == opClaim && current.Assigned() {
		message = claimedByOtherMessage
	}
	return apperrors.NewVersionConflict(message, details)
}

func (s *LifecycleService) requireActiveStaff(ctx context.Context, staffID string) error {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("assignee is not on the staff roster",
				map[string]any{"assignee_id": staffID})
		}
		return apperrors.NewStoreUnavailable(err)
	}
	if !member.Active {
		return apperrors.NewValidationError("assignee is not an active staff member",
			map[string]any{"assignee_id": staffID})
	}
	return nil
}

func (s *LifecycleService) publishStatusChanged(ctx context.Context, p *domain.Principal, oldStatus domain.RequestStatus, updated *domain.ServiceRequest) {
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestStatusChanged,
		RequestID: updated.ID,
		Version:   updated.Version,
		Actor:     actorFor(p),
		Payload: events.RequestStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: updated.Status,
		},
	})
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(p *domain.Principal) events.Actor {
	return events.Actor{ID: p.ID, Role: p.Role}
}

func normalizeNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > domain.MaxNoteLength {
		return "", apperrors.NewValidationError("note is too long",
			map[string]any{"max_length": domain.MaxNoteLength})
	}
	return note, nil
}

// mapStoreError translates store errors into the service error taxonomy.
// Domain errors raised by a mutation guard pass through untouched.
func mapStoreError(err error, id string) error {
	var domainErr *apperrors.DomainError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &domainErr):
		return domainErr
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewVersionConflict("", map[string]any{"request_id": id})
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("request", map[string]any{"request_id": id})
	default:
		return apperrors.NewStoreUnavailable(err)
	}
}
