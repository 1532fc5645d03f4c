package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hotel-requests/internal/domain"
)

// RequestHistoryRepository stores audit entries.
type RequestHistoryRepository interface {
	Create(ctx context.Context, history *domain.RequestHistory) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.RequestHistory, error)
}

type requestHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewRequestHistoryRepository builds repository.
func NewRequestHistoryRepository(pool *pgxpool.Pool) RequestHistoryRepository {
	return &requestHistoryRepository{pool: pool}
}

func (r *requestHistoryRepository) Create(ctx context.Context, history *domain.RequestHistory) error {
	const query = `
        INSERT INTO request_history (request_id, actor_id, actor_role, change_type, old_value, new_value, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.RequestID,
		history.ActorID,
		history.ActorRole,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
		history.Version,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *requestHistoryRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.RequestHistory, error) {
	const query = `
        SELECT id, request_id, actor_id, actor_role, change_type, old_value, new_value, version, created_at
        FROM request_history WHERE request_id=$1 ORDER BY version ASC, created_at ASC`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RequestHistory
	for rows.Next() {
		var history domain.RequestHistory
		if err := rows.Scan(
			&history.ID,
			&history.RequestID,
			&history.ActorID,
			&history.ActorRole,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.Version,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

// MemoryRequestHistoryRepository keeps audit entries in process.
type MemoryRequestHistoryRepository struct {
	mu      sync.RWMutex
	entries map[string][]domain.RequestHistory
}

// NewMemoryRequestHistoryRepository creates an empty history log.
func NewMemoryRequestHistoryRepository() *MemoryRequestHistoryRepository {
	return &MemoryRequestHistoryRepository{entries: make(map[string][]domain.RequestHistory)}
}

func (r *MemoryRequestHistoryRepository) Create(_ context.Context, history *domain.RequestHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	history.ID = uuid.NewString()
	history.CreatedAt = time.Now().UTC()
	r.entries[history.RequestID] = append(r.entries[history.RequestID], *history)
	return nil
}

func (r *MemoryRequestHistoryRepository) ListByRequest(_ context.Context, requestID string) ([]domain.RequestHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := append([]domain.RequestHistory{}, r.entries[requestID]...)
	sort.SliceStable(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}
