package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/hotel-requests/internal/domain"
	"github.com/spec-kit/hotel-requests/internal/events"
	"github.com/spec-kit/hotel-requests/internal/observability"
	"github.com/spec-kit/hotel-requests/internal/repository"
)

var (
	guestG1 = &domain.Principal{ID: "g1", Role: domain.RoleGuest, DisplayName: "John Doe", RoomNumber: "210"}
	guestG2 = &domain.Principal{ID: "g2", Role: domain.RoleGuest, DisplayName: "Mary Major", RoomNumber: "305"}
	staffS1 = &domain.Principal{ID: "s1", Role: domain.RoleStaff, DisplayName: "Jane Smith"}
	staffS2 = &domain.Principal{ID: "s2", Role: domain.RoleStaff, DisplayName: "Sam Lee"}
	adminA1 = &domain.Principal{ID: "a1", Role: domain.RoleAdmin, DisplayName: "Ana Admin"}
)

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	store      *repository.MemoryRequestStore
	staff      *repository.MemoryStaffRepository
	history    *repository.MemoryRequestHistoryRepository
	lifecycle  *LifecycleService
	visibility *VisibilityService
	audit      *AuditService
	recorded   *recordedEvents
	clock      *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 7, 30, 9, 0, 0, 0, time.UTC)}
	store := repository.NewMemoryRequestStore().WithClock(clock.Now)
	staff := repository.NewMemoryStaffRepository(
		domain.StaffMember{ID: "s1", Name: "Jane Smith", Role: domain.StaffRoleStaff, Active: true},
		domain.StaffMember{ID: "s2", Name: "Sam Lee", Role: domain.StaffRoleStaff, Active: true},
		domain.StaffMember{ID: "a1", Name: "Ana Admin", Role: domain.StaffRoleAdmin, Active: true},
		domain.StaffMember{ID: "s9", Name: "Former", Role: domain.StaffRoleStaff, Active: false},
	)
	history := repository.NewMemoryRequestHistoryRepository()
	dispatcher := events.NewInMemoryDispatcher(nil)
	recorded := &recordedEvents{}
	events.SubscribeAll(dispatcher, recorded.handle)

	visibility := NewVisibilityService(store)
	audit := NewAuditService(history, visibility)
	audit.Register(dispatcher)

	return &harness{
		store:   store,
		staff:   staff,
		history: history,
		lifecycle: NewLifecycleService(LifecycleDependencies{
			RequestStore: store,
			StaffRepo:    staff,
			Dispatcher:   dispatcher,
			Metrics:      observability.NewMetrics(),
			Clock:        clock.Now,
		}),
		visibility: visibility,
		audit:      audit,
		recorded:   recorded,
		clock:      clock,
	}
}

func (h *harness) create(t *testing.T, guest *domain.Principal, category domain.Category, priority domain.Priority) *domain.ServiceRequest {
	t.Helper()
	req, err := h.lifecycle.CreateRequest(context.Background(), guest, CreateRequestInput{Category: category, Priority: priority})
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	return req
}

func (h *harness) claimed(t *testing.T, staff *domain.Principal) *domain.ServiceRequest {
	t.Helper()
	req := h.create(t, guestG1, domain.CategoryLaundry, domain.PriorityLow)
	req, err := h.lifecycle.ClaimRequest(context.Background(), staff, req.ID, req.Version, ClaimOptions{})
	require.NoError(t, err)
	return req
}
