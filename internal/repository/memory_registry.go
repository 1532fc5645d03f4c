package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hotel-requests/internal/domain"
)

// MemoryStaffRepository is an in-process staff roster.
type MemoryStaffRepository struct {
	mu   sync.RWMutex
	rows map[string]domain.StaffMember
}

// NewMemoryStaffRepository creates a roster seeded with the given members.
func NewMemoryStaffRepository(members ...domain.StaffMember) *MemoryStaffRepository {
	repo := &MemoryStaffRepository{rows: make(map[string]domain.StaffMember)}
	for i := range members {
		_ = repo.Upsert(context.Background(), &members[i])
	}
	return repo
}

func (r *MemoryStaffRepository) Upsert(_ context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.rows[staff.ID]; ok {
		staff.CreatedAt = existing.CreatedAt
	} else {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now
	r.rows[staff.ID] = *staff
	return nil
}

func (r *MemoryStaffRepository) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	staff, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &staff, nil
}

func (r *MemoryStaffRepository) List(_ context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.StaffMember, 0, len(r.rows))
	for _, staff := range r.rows {
		if filter.Role != nil && staff.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		result = append(result, staff)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// MemoryGuestRepository is an in-process guest registry.
type MemoryGuestRepository struct {
	mu   sync.RWMutex
	rows map[string]domain.Guest
}

// NewMemoryGuestRepository creates a registry seeded with the given guests.
func NewMemoryGuestRepository(guests ...domain.Guest) *MemoryGuestRepository {
	repo := &MemoryGuestRepository{rows: make(map[string]domain.Guest)}
	for i := range guests {
		_ = repo.Upsert(context.Background(), &guests[i])
	}
	return repo
}

func (r *MemoryGuestRepository) Upsert(_ context.Context, guest *domain.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.rows[guest.ID]; ok {
		guest.CreatedAt = existing.CreatedAt
	} else {
		guest.CreatedAt = now
	}
	guest.UpdatedAt = now
	r.rows[guest.ID] = *guest
	return nil
}

func (r *MemoryGuestRepository) GetByID(_ context.Context, id string) (*domain.Guest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	guest, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &guest, nil
}
