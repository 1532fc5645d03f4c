package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/hotel-requests/internal/domain"
	"github.com/spec-kit/hotel-requests/internal/events"
	"github.com/spec-kit/hotel-requests/internal/repository"
	apperrors "github.com/spec-kit/hotel-requests/pkg/util/errorutil"
)

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func TestCreateRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	scheduled := time.Date(2025, 7, 31, 7, 30, 0, 0, time.UTC)

	req, err := h.lifecycle.CreateRequest(ctx, guestG1, CreateRequestInput{
		Category:     domain.CategoryRoomCleaning,
		Note:         "  extra towels  ",
		ScheduledFor: &scheduled,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Equal(t, domain.PriorityMedium, req.Priority)
	assert.EqualValues(t, 1, req.Version)
	assert.Equal(t, "210", req.RoomNumber)
	assert.Equal(t, "extra towels", req.Note)
	assert.Empty(t, req.AssigneeID)
	require.NotNil(t, req.ScheduledFor)
	assert.True(t, scheduled.Equal(*req.ScheduledFor))
	assert.Equal(t, []events.EventType{events.EventRequestCreated}, h.recorded.types())
}

func TestCreateRequestRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	roomless := &domain.Principal{ID: "g3", Role: domain.RoleGuest}

	tests := []struct {
		name  string
		p     *domain.Principal
		input CreateRequestInput
		code  string
	}{
		{name: "no principal", p: nil, input: CreateRequestInput{Category: domain.CategoryLaundry}, code: apperrors.CodeUnauthorized},
		{name: "staff cannot create", p: staffS1, input: CreateRequestInput{Category: domain.CategoryLaundry}, code: apperrors.CodeForbidden},
		{name: "admin cannot create", p: adminA1, input: CreateRequestInput{Category: domain.CategoryLaundry}, code: apperrors.CodeForbidden},
		{name: "unknown category", p: guestG1, input: CreateRequestInput{Category: "SPA"}, code: apperrors.CodeValidation},
		{name: "unknown priority", p: guestG1, input: CreateRequestInput{Category: domain.CategoryLaundry, Priority: "URGENT"}, code: apperrors.CodeValidation},
		{name: "note too long", p: guestG1, input: CreateRequestInput{Category: domain.CategoryLaundry, Note: strings.Repeat("x", domain.MaxNoteLength+1)}, code: apperrors.CodeValidation},
		{name: "guest without room", p: roomless, input: CreateRequestInput{Category: domain.CategoryLaundry}, code: apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.lifecycle.CreateRequest(ctx, tt.p, tt.input)
			requireCode(t, err, tt.code)
		})
	}

	all, err := h.store.List(ctx, domain.RequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestClaimRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.create(t, guestG1, domain.CategoryInRoomDining, domain.PriorityMedium)

	claimed, err := h.lifecycle.ClaimRequest(ctx, staffS1, req.ID, 1, ClaimOptions{ETAMinutes: 20})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, claimed.Status)
	assert.Equal(t, "s1", claimed.AssigneeID)
	assert.EqualValues(t, 2, claimed.Version)
	require.NotNil(t, claimed.EstimatedReadyAt)
	assert.True(t, h.clock.Now().Add(20*time.Minute).Equal(*claimed.EstimatedReadyAt))

	completed, err := h.lifecycle.AdvanceStatus(ctx, staffS1, req.ID, 2, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Nil(t, completed.EstimatedReadyAt)
	require.NotNil(t, completed.CompletedAt)
}

func TestClaimRequestRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pending := h.create(t, guestG1, domain.CategoryLaundry, domain.PriorityLow)
	inProgress := h.claimed(t, staffS1)

	tests := []struct {
		name    string
		p       *domain.Principal
		id      string
		version int64
		opts    ClaimOptions
		code    string
	}{
		{name: "guest", p: guestG1, id: pending.ID, version: 1, code: apperrors.CodeForbidden},
		{name: "admin", p: adminA1, id: pending.ID, version: 1, code: apperrors.CodeIllegalTransition},
		{name: "negative eta", p: staffS1, id: pending.ID, version: 1, opts: ClaimOptions{ETAMinutes: -1}, code: apperrors.CodeValidation},
		{name: "eta too far", p: staffS1, id: pending.ID, version: 1, opts: ClaimOptions{ETAMinutes: MaxETAMinutes + 1}, code: apperrors.CodeValidation},
		{name: "missing", p: staffS1, id: "nope", version: 1, code: apperrors.CodeNotFound},
		{name: "zero version", p: staffS1, id: pending.ID, version: 0, code: apperrors.CodeValidation},
		{name: "stale version", p: staffS1, id: pending.ID, version: 7, code: apperrors.CodeVersionConflict},
		{name: "already in progress", p: staffS2, id: inProgress.ID, version: inProgress.Version, code: apperrors.CodeIllegalTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.lifecycle.ClaimRequest(ctx, tt.p, tt.id, tt.version, tt.opts)
			requireCode(t, err, tt.code)
		})
	}

	stored, err := h.store.Get(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.EqualValues(t, 1, stored.Version)
}

func TestIllegalTransitionDetails(t *testing.T) {
	h := newHarness(t)
	pending := h.create(t, guestG1, domain.CategoryLaundry, domain.PriorityLow)
	working := h.claimed(t, staffS1)

	tests := []struct {
		name      string
		p         *domain.Principal
		req       *domain.ServiceRequest
		target    domain.RequestStatus
		current   domain.RequestStatus
		requested string
	}{
		{name: "complete pending", p: adminA1, req: pending, target: domain.StatusCompleted, current: domain.StatusPending, requested: "complete"},
		{name: "claim in progress", p: staffS2, req: working, target: domain.StatusInProgress, current: domain.StatusInProgress, requested: "claim"},
		{name: "guest cancel in progress", p: guestG1, req: working, target: domain.StatusCancelled, current: domain.StatusInProgress, requested: "cancel"},
		{name: "reopen in progress", p: adminA1, req: working, target: domain.StatusPending, current: domain.StatusInProgress, requested: "reopen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.lifecycle.AdvanceStatus(context.Background(), tt.p, tt.req.ID, tt.req.Version, tt.target)
			requireCode(t, err, apperrors.CodeIllegalTransition)

			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, string(tt.current), domainErr.Details["current_status"])
			assert.Equal(t, string(tt.target), domainErr.Details["requested_status"])
			assert.Equal(t, tt.requested, domainErr.Details["requested"])
		})
	}
}

func TestStaleClaimNamesCurrentHolder(t *testing.T) {
	h := newHarness(t)
	req := h.claimed(t, staffS1)

	_, err := h.lifecycle.ClaimRequest(context.Background(), staffS2, req.ID, 1, ClaimOptions{})
	requireCode(t, err, apperrors.CodeVersionConflict)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "request was already claimed by another staff member", domainErr.Message)
	assert.Equal(t, "s1", domainErr.Details["assignee_id"])
	assert.Equal(t, domain.StatusInProgress, domainErr.Details["current_status"])
	assert.True(t, apperrors.IsRetryable(err))
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.create(t, guestG1, domain.CategoryRoomCleaning, domain.PriorityMedium)

	const workers = 16
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		mu        sync.Mutex
		winners   []string
		conflicts int
		others    []error
	)
	for i := 0; i < workers; i++ {
		staff := &domain.Principal{ID: "s1", Role: domain.RoleStaff}
		if i%2 == 1 {
			staff = &domain.Principal{ID: "s2", Role: domain.RoleStaff}
		}
		wg.Add(1)
		go func(p *domain.Principal) {
			defer wg.Done()
			<-start
			got, err := h.lifecycle.ClaimRequest(ctx, p, req.ID, 1, ClaimOptions{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, got.AssigneeID)
			case apperrors.HasCode(err, apperrors.CodeVersionConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(staff)
	}
	close(start)
	wg.Wait()

	require.Empty(t, others)
	require.Len(t, winners, 1)
	assert.Equal(t, workers-1, conflicts)

	stored, err := h.store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, stored.Status)
	assert.Equal(t, winners[0], stored.AssigneeID)
	assert.EqualValues(t, 2, stored.Version)
}

func TestScenarioClaimRaceThenCompleteThenEscalate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req, err := h.lifecycle.CreateRequest(ctx, guestG1, CreateRequestInput{
		Category: domain.CategoryRoomCleaning,
		Priority: domain.PriorityMedium,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.EqualValues(t, 1, req.Version)

	type result struct {
		req *domain.ServiceRequest
		err error
	}
	results := make(chan result, 2)
	for _, staff := range []*domain.Principal{staffS1, staffS2} {
		go func(p *domain.Principal) {
			got, err := h.lifecycle.ClaimRequest(ctx, p, req.ID, 1, ClaimOptions{})
			results <- result{got, err}
		}(staff)
	}

	var winner *domain.ServiceRequest
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err == nil {
			require.Nil(t, winner, "two claims succeeded")
			winner = r.req
			continue
		}
		requireCode(t, r.err, apperrors.CodeVersionConflict)
	}
	require.NotNil(t, winner)
	assert.Equal(t, domain.StatusInProgress, winner.Status)
	assert.Contains(t, []string{"s1", "s2"}, winner.AssigneeID)
	assert.EqualValues(t, 2, winner.Version)

	assignee := staffS1
	if winner.AssigneeID == "s2" {
		assignee = staffS2
	}
	completed, err := h.lifecycle.AdvanceStatus(ctx, assignee, req.ID, 2, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)
	assert.EqualValues(t, 3, completed.Version)

	_, err = h.lifecycle.Escalate(ctx, assignee, req.ID, 3, domain.PriorityHigh)
	requireCode(t, err, apperrors.CodeIllegalTransition)
}

func TestScenarioReassignMovesCompletionRight(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.claimed(t, staffS1)

	reassigned, err := h.lifecycle.Reassign(ctx, adminA1, req.ID, req.Version, "s2")
	require.NoError(t, err)
	assert.Equal(t, "s2", reassigned.AssigneeID)
	assert.Equal(t, domain.StatusInProgress, reassigned.Status)

	_, err = h.lifecycle.AdvanceStatus(ctx, staffS1, req.ID, reassigned.Version, domain.StatusCompleted)
	requireCode(t, err, apperrors.CodeForbidden)

	completed, err := h.lifecycle.AdvanceStatus(ctx, staffS2, req.ID, reassigned.Version, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)
}

func TestAdvanceStatusCompletedRequiresInProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	pending := h.create(t, guestG1, domain.CategoryLaundry, domain.PriorityLow)
	_, err := h.lifecycle.AdvanceStatus(ctx, staffS1, pending.ID, 1, domain.StatusCompleted)
	requireCode(t, err, apperrors.CodeIllegalTransition)

	cancelled, err := h.lifecycle.CancelRequest(ctx, guestG1, pending.ID, 1)
	require.NoError(t, err)
	_, err = h.lifecycle.AdvanceStatus(ctx, adminA1, pending.ID, cancelled.Version, domain.StatusCompleted)
	requireCode(t, err, apperrors.CodeIllegalTransition)

	done := h.claimed(t, staffS1)
	done, err = h.lifecycle.AdvanceStatus(ctx, staffS1, done.ID, done.Version, domain.StatusCompleted)
	require.NoError(t, err)
	_, err = h.lifecycle.AdvanceStatus(ctx, staffS1, done.ID, done.Version, domain.StatusCompleted)
	requireCode(t, err, apperrors.CodeIllegalTransition)
}

func TestAdvanceStatusOther(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.create(t, guestG1, domain.CategoryLaundry, domain.PriorityLow)

	claimed, err := h.lifecycle.AdvanceStatus(ctx, staffS2, req.ID, 1, domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, "s2", claimed.AssigneeID)

	_, err = h.lifecycle.AdvanceStatus(ctx, adminA1, req.ID, claimed.Version, domain.StatusPending)
	requireCode(t, err, apperrors.CodeIllegalTransition)

	_, err = h.lifecycle.AdvanceStatus(ctx, guestG1, req.ID, claimed.Version, domain.StatusPending)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = h.lifecycle.AdvanceStatus(ctx, guestG1, req.ID, claimed.Version, domain.StatusCompleted)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = h.lifecycle.AdvanceStatus(ctx, adminA1, req.ID, claimed.Version, "DONE")
	requireCode(t, err, apperrors.CodeValidation)

	completed, err := h.lifecycle.AdvanceStatus(ctx, adminA1, req.ID, claimed.Version, domain.StatusCompleted)
	require.NoError(t, err, "admin may complete without being the assignee")
	assert.Equal(t, "s2", completed.AssigneeID)
}

func TestCancelRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	own := h.create(t, guestG1, domain.CategoryLaundry, domain.PriorityLow)
	_, err := h.lifecycle.CancelRequest(ctx, guestG2, own.ID, 1)
	requireCode(t, err, apperrors.CodeNotFound)
	_, err = h.lifecycle.CancelRequest(ctx, staffS1, own.ID, 1)
	requireCode(t, err, apperrors.CodeForbidden)

	cancelled, err := h.lifecycle.AdvanceStatus(ctx, guestG1, own.ID, 1, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	_, err = h.lifecycle.CancelRequest(ctx, adminA1, own.ID, cancelled.Version)
	requireCode(t, err, apperrors.CodeIllegalTransition)

	working := h.claimed(t, staffS1)
	_, err = h.lifecycle.CancelRequest(ctx, guestG1, working.ID, working.Version)
	requireCode(t, err, apperrors.CodeIllegalTransition)

	byAdmin, err := h.lifecycle.CancelRequest(ctx, adminA1, working.ID, working.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, byAdmin.Status)
	assert.Equal(t, "s1", byAdmin.AssigneeID)
}

func TestReassignRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	working := h.claimed(t, staffS1)
	pending := h.create(t, guestG1, domain.CategoryLaundry, domain.PriorityLow)

	tests := []struct {
		name     string
		p        *domain.Principal
		id       string
		version  int64
		assignee string
		code     string
	}{
		{name: "staff", p: staffS2, id: working.ID, version: working.Version, assignee: "s2", code: apperrors.CodeForbidden},
		{name: "guest", p: guestG1, id: working.ID, version: working.Version, assignee: "s2", code: apperrors.CodeForbidden},
		{name: "empty assignee", p: adminA1, id: working.ID, version: working.Version, assignee: " ", code: apperrors.CodeValidation},
		{name: "same assignee", p: adminA1, id: working.ID, version: working.Version, assignee: "s1", code: apperrors.CodeValidation},
		{name: "unknown staff", p: adminA1, id: working.ID, version: working.Version, assignee: "ghost", code: apperrors.CodeValidation},
		{name: "inactive staff", p: adminA1, id: working.ID, version: working.Version, assignee: "s9", code: apperrors.CodeValidation},
		{name: "pending request", p: adminA1, id: pending.ID, version: pending.Version, assignee: "s2", code: apperrors.CodeIllegalTransition},
		{name: "stale version", p: adminA1, id: working.ID, version: 1, assignee: "s2", code: apperrors.CodeVersionConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.lifecycle.Reassign(ctx, tt.p, tt.id, tt.version, tt.assignee)
			requireCode(t, err, tt.code)
		})
	}

	toAdmin, err := h.lifecycle.Reassign(ctx, adminA1, working.ID, working.Version, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", toAdmin.AssigneeID)
}

func TestEscalateOnlyRaisesPriority(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.create(t, guestG1, domain.CategoryMaintenance, domain.PriorityLow)

	_, err := h.lifecycle.Escalate(ctx, guestG1, req.ID, 1, domain.PriorityHigh)
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = h.lifecycle.Escalate(ctx, staffS1, req.ID, 1, "CRITICAL")
	requireCode(t, err, apperrors.CodeValidation)
	_, err = h.lifecycle.Escalate(ctx, staffS1, req.ID, 1, domain.PriorityLow)
	requireCode(t, err, apperrors.CodeValidation)

	seen := []domain.Priority{req.Priority}
	up, err := h.lifecycle.Escalate(ctx, staffS1, req.ID, 1, domain.PriorityMedium)
	require.NoError(t, err)
	seen = append(seen, up.Priority)

	_, err = h.lifecycle.Escalate(ctx, adminA1, req.ID, up.Version, domain.PriorityLow)
	requireCode(t, err, apperrors.CodeValidation)

	up, err = h.lifecycle.Escalate(ctx, adminA1, req.ID, up.Version, domain.PriorityHigh)
	require.NoError(t, err)
	seen = append(seen, up.Priority)

	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i].Rank(), seen[i-1].Rank())
	}
	assert.EqualValues(t, 3, up.Version)
}

func TestUpdateNote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.create(t, guestG1, domain.CategoryWakeUpCall, domain.PriorityMedium)

	_, err := h.lifecycle.UpdateNote(ctx, guestG2, req.ID, 1, "hijack")
	requireCode(t, err, apperrors.CodeNotFound)
	_, err = h.lifecycle.UpdateNote(ctx, staffS1, req.ID, 1, "staff note")
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = h.lifecycle.UpdateNote(ctx, guestG1, req.ID, 1, strings.Repeat("é", domain.MaxNoteLength+1))
	requireCode(t, err, apperrors.CodeValidation)

	updated, err := h.lifecycle.UpdateNote(ctx, guestG1, req.ID, 1, strings.Repeat("é", domain.MaxNoteLength))
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated.Version)

	claimed, err := h.lifecycle.ClaimRequest(ctx, staffS1, req.ID, 2, ClaimOptions{})
	require.NoError(t, err)
	_, err = h.lifecycle.UpdateNote(ctx, guestG1, req.ID, claimed.Version, "too late")
	requireCode(t, err, apperrors.CodeIllegalTransition)
}

func TestOtherGuestsRequestIsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	working := h.claimed(t, staffS1)
	pending := h.create(t, guestG1, domain.CategoryWakeUpCall, domain.PriorityLow)

	tests := []struct {
		name    string
		call    func(id string, version int64) error
		req     *domain.ServiceRequest
		version int64
	}{
		{name: "cancel stale version", req: working, version: 1, call: func(id string, v int64) error {
			_, err := h.lifecycle.CancelRequest(ctx, guestG2, id, v)
			return err
		}},
		{name: "cancel current version", req: working, version: working.Version, call: func(id string, v int64) error {
			_, err := h.lifecycle.CancelRequest(ctx, guestG2, id, v)
			return err
		}},
		{name: "note stale version", req: working, version: 1, call: func(id string, v int64) error {
			_, err := h.lifecycle.UpdateNote(ctx, guestG2, id, v, "mine now")
			return err
		}},
		{name: "note current version", req: pending, version: pending.Version, call: func(id string, v int64) error {
			_, err := h.lifecycle.UpdateNote(ctx, guestG2, id, v, "mine now")
			return err
		}},
		{name: "advance status stale version", req: working, version: 1, call: func(id string, v int64) error {
			_, err := h.lifecycle.AdvanceStatus(ctx, guestG2, id, v, domain.StatusCancelled)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(tt.req.ID, tt.version)
			requireCode(t, err, apperrors.CodeNotFound)

			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, tt.req.ID, domainErr.Details["request_id"])
			assert.NotContains(t, domainErr.Details, "current_status")
			assert.NotContains(t, domainErr.Details, "current_version")
			assert.NotContains(t, domainErr.Details, "assignee_id")
		})
	}

	_, err := h.visibility.GetVisible(ctx, guestG2, working.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	stored, err := h.store.Get(ctx, pending.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Note)
	assert.EqualValues(t, 1, stored.Version)
}

type countingStore struct {
	repository.RequestStore
	gets atomic.Int64
}

func (c *countingStore) Get(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	c.gets.Add(1)
	return c.RequestStore.Get(ctx, id)
}

func TestReassignFetchesRowOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	store := &countingStore{RequestStore: h.store}
	svc := NewLifecycleService(LifecycleDependencies{RequestStore: store, StaffRepo: h.staff, Clock: h.clock.Now})

	working := h.claimed(t, staffS1)
	_, err := svc.Reassign(ctx, adminA1, working.ID, working.Version, "s9")
	requireCode(t, err, apperrors.CodeValidation)
	assert.EqualValues(t, 1, store.gets.Load())

	store.gets.Store(0)
	moved, err := svc.Reassign(ctx, adminA1, working.ID, working.Version, "s2")
	require.NoError(t, err)
	assert.Equal(t, "s2", moved.AssigneeID)
	assert.EqualValues(t, 1, store.gets.Load())
}

func TestMutationsPublishEventsAndHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req := h.create(t, guestG1, domain.CategoryTransportation, domain.PriorityLow)
	req, err := h.lifecycle.UpdateNote(ctx, guestG1, req.ID, req.Version, "airport at 6")
	require.NoError(t, err)
	req, err = h.lifecycle.ClaimRequest(ctx, staffS1, req.ID, req.Version, ClaimOptions{ETAMinutes: 10})
	require.NoError(t, err)
	req, err = h.lifecycle.Escalate(ctx, staffS1, req.ID, req.Version, domain.PriorityHigh)
	require.NoError(t, err)
	req, err = h.lifecycle.Reassign(ctx, adminA1, req.ID, req.Version, "s2")
	require.NoError(t, err)
	req, err = h.lifecycle.AdvanceStatus(ctx, staffS2, req.ID, req.Version, domain.StatusCompleted)
	require.NoError(t, err)
	assert.EqualValues(t, 6, req.Version)

	assert.Equal(t, []events.EventType{
		events.EventRequestCreated,
		events.EventRequestNoteUpdated,
		events.EventRequestClaimed,
		events.EventRequestPriorityEscalated,
		events.EventRequestReassigned,
		events.EventRequestStatusChanged,
	}, h.recorded.types())

	entries, err := h.audit.ListHistory(ctx, adminA1, req.ID)
	require.NoError(t, err)
	require.Len(t, entries, 6)
	for i, entry := range entries {
		assert.EqualValues(t, i+1, entry.Version)
	}
	assert.Equal(t, domain.ChangeTypeCreated, entries[0].ChangeType)
	assert.Equal(t, domain.ChangeTypeAssignee, entries[4].ChangeType)
	assert.Equal(t, domain.RoleStaff, entries[5].ActorRole)
}

func TestRejectedMutationsPublishNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.create(t, guestG1, domain.CategoryLaundry, domain.PriorityLow)

	_, _ = h.lifecycle.AdvanceStatus(ctx, staffS1, req.ID, 1, domain.StatusCompleted)
	_, _ = h.lifecycle.ClaimRequest(ctx, staffS1, req.ID, 9, ClaimOptions{})
	_, _ = h.lifecycle.Escalate(ctx, staffS1, req.ID, 1, domain.PriorityLow)

	assert.Equal(t, []events.EventType{events.EventRequestCreated}, h.recorded.types())
}

type unavailableStore struct {
	repository.RequestStore
}

func (unavailableStore) Get(context.Context, string) (*domain.ServiceRequest, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func (unavailableStore) Create(context.Context, *domain.ServiceRequest) error {
	return context.DeadlineExceeded
}

func TestStoreFailuresSurfaceAsUnavailable(t *testing.T) {
	svc := NewLifecycleService(LifecycleDependencies{RequestStore: unavailableStore{}})
	ctx := context.Background()

	_, err := svc.ClaimRequest(ctx, staffS1, "r1", 1, ClaimOptions{})
	requireCode(t, err, apperrors.CodeStoreUnavailable)
	assert.True(t, apperrors.IsRetryable(err))

	_, err = svc.CreateRequest(ctx, guestG1, CreateRequestInput{Category: domain.CategoryLaundry})
	requireCode(t, err, apperrors.CodeStoreUnavailable)
}

func TestCancelledContextLeavesRowUntouched(t *testing.T) {
	h := newHarness(t)
	req := h.create(t, guestG1, domain.CategoryLaundry, domain.PriorityLow)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.lifecycle.ClaimRequest(ctx, staffS1, req.ID, 1, ClaimOptions{})
	requireCode(t, err, apperrors.CodeStoreUnavailable)

	stored, err := h.store.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.EqualValues(t, 1, stored.Version)
}
