package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hotel-requests/internal/domain"
)

// ErrVersionConflict is returned by CompareAndSwap when the stored version no
// longer matches the caller's expected version.
var ErrVersionConflict = errors.New("version conflict")

// Mutation edits a copy of the current row inside CompareAndSwap. Returning an
// error aborts the swap and leaves the row untouched.
type Mutation func(req *domain.ServiceRequest) error

// RequestStore is the narrow interface the lifecycle engine needs from the
// record store. CompareAndSwap is the only mutation path after Create.
type RequestStore interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	Get(ctx context.Context, id string) (*domain.ServiceRequest, error)
	List(ctx context.Context, filter domain.RequestFilter) ([]domain.ServiceRequest, error)
	CompareAndSwap(ctx context.Context, id string, expectedVersion int64, mutate Mutation) (*domain.ServiceRequest, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository returns a Postgres-backed RequestStore.
func NewRequestRepository(pool *pgxpool.Pool) RequestStore {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, requester_id, room_number, category, note, priority, status, assignee_id,
               scheduled_for, estimated_ready_at, version, created_at, updated_at, completed_at`

func (r *requestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (requester_id, room_number, category, note, priority, status, assignee_id, scheduled_for, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,1)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		req.RequesterID,
		req.RoomNumber,
		req.Category,
		req.Note,
		req.Priority,
		req.Status,
		nullable(req.AssigneeID),
		req.ScheduledFor,
	).Scan(&req.ID, &req.Version, &req.CreatedAt, &req.UpdatedAt)
}

func (r *requestRepository) Get(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id=$1`
	return scanRequest(r.pool.QueryRow(ctx, query, id))
}

func (r *requestRepository) List(ctx context.Context, filter domain.RequestFilter) ([]domain.ServiceRequest, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.RoomNumber != "" {
		args = append(args, filter.RoomNumber)
		clauses = append(clauses, fmt.Sprintf("LOWER(room_number)=LOWER($%d)", len(args)))
	}
	if filter.AssigneeID != "" {
		args = append(args, filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM service_requests WHERE %s ORDER BY created_at DESC, id ASC`,
		requestColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

// CompareAndSwap reads the row, applies mutate to a copy and writes it back
// with a single conditional UPDATE guarded by the expected version.
func (r *requestRepository) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, mutate Mutation) (*domain.ServiceRequest, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != expectedVersion {
		return nil, ErrVersionConflict
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}

	const query = `
        UPDATE service_requests
        SET note=$1, priority=$2, status=$3, assignee_id=$4, estimated_ready_at=$5, completed_at=$6,
            version=version+1, updated_at=NOW()
        WHERE id=$7 AND version=$8
        RETURNING version, updated_at`
	err = r.pool.QueryRow(ctx, query,
		next.Note,
		next.Priority,
		next.Status,
		nullable(next.AssigneeID),
		next.EstimatedReadyAt,
		next.CompletedAt,
		id,
		expectedVersion,
	).Scan(&next.Version, &next.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// The row existed a moment ago; a concurrent writer bumped the version.
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, err
	}
	return next, nil
}

func scanRequest(row pgx.Row) (*domain.ServiceRequest, error) {
	var (
		req      domain.ServiceRequest
		assignee *string
	)
	if err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.RoomNumber,
		&req.Category,
		&req.Note,
		&req.Priority,
		&req.Status,
		&assignee,
		&req.ScheduledFor,
		&req.EstimatedReadyAt,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.CompletedAt,
	); err != nil {
		return nil, err
	}
	if assignee != nil {
		req.AssigneeID = *assignee
	}
	return &req, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
