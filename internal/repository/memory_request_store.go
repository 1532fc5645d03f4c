package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hotel-requests/internal/domain"
)

// MemoryRequestStore is an in-process RequestStore used when no Postgres DSN is
// configured and by tests. A single mutex makes CompareAndSwap atomic.
type MemoryRequestStore struct {
	mu   sync.RWMutex
	rows map[string]*domain.ServiceRequest
	now  func() time.Time
}

// NewMemoryRequestStore creates an empty store.
func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{
		rows: make(map[string]*domain.ServiceRequest),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source.
func (s *MemoryRequestStore) WithClock(now func() time.Time) *MemoryRequestStore {
	s.now = now
	return s
}

func (s *MemoryRequestStore) Create(_ context.Context, req *domain.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	req.ID = uuid.NewString()
	req.Version = 1
	req.CreatedAt = now
	req.UpdatedAt = now
	s.rows[req.ID] = req.Clone()
	return nil
}

func (s *MemoryRequestStore) Get(_ context.Context, id string) (*domain.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return row.Clone(), nil
}

func (s *MemoryRequestStore) List(_ context.Context, filter domain.RequestFilter) ([]domain.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ServiceRequest, 0, len(s.rows))
	for _, row := range s.rows {
		if filter.Matches(row) {
			result = append(result, *row.Clone())
		}
	}
	domain.SortRequests(result, domain.SortCreatedDesc)
	return result, nil
}

func (s *MemoryRequestStore) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, mutate Mutation) (*domain.ServiceRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if row.Version != expectedVersion {
		return nil, ErrVersionConflict
	}
	next := row.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = row.ID
	next.RequesterID = row.RequesterID
	next.Category = row.Category
	next.CreatedAt = row.CreatedAt
	next.Version = row.Version + 1
	next.UpdatedAt = s.now()
	s.rows[id] = next
	return next.Clone(), nil
}
