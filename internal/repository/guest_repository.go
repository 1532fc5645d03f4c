package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hotel-requests/internal/domain"
)

// GuestRepository is the authoritative guest registry.
type GuestRepository interface {
	Upsert(ctx context.Context, guest *domain.Guest) error
	GetByID(ctx context.Context, id string) (*domain.Guest, error)
}

type guestRepository struct {
	pool *pgxpool.Pool
}

// NewGuestRepository returns a Postgres-backed implementation.
func NewGuestRepository(pool *pgxpool.Pool) GuestRepository {
	return &guestRepository{pool: pool}
}

func (r *guestRepository) Upsert(ctx context.Context, guest *domain.Guest) error {
	const query = `
        INSERT INTO guest_registry (id, name, email, room_number)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
        SET name=EXCLUDED.name, email=EXCLUDED.email, room_number=EXCLUDED.room_number, updated_at=NOW()
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		guest.ID,
		guest.Name,
		guest.Email,
		guest.RoomNumber,
	).Scan(&guest.CreatedAt, &guest.UpdatedAt)
}

func (r *guestRepository) GetByID(ctx context.Context, id string) (*domain.Guest, error) {
	const query = `
        SELECT id, name, email, room_number, created_at, updated_at
        FROM guest_registry WHERE id=$1`

	var guest domain.Guest
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&guest.ID,
		&guest.Name,
		&guest.Email,
		&guest.RoomNumber,
		&guest.CreatedAt,
		&guest.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &guest, nil
}
