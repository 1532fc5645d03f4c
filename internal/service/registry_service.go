package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/hotel-requests/internal/config"
	"github.com/spec-kit/hotel-requests/internal/domain"
	"github.com/spec-kit/hotel-requests/internal/repository"
	apperrors "github.com/spec-kit/hotel-requests/pkg/util/errorutil"
)

// RegistryService maintains the staff roster and guest registry.
type RegistryService struct {
	staff  repository.StaffRepository
	guests repository.GuestRepository
	logger *zap.Logger
}

// RegistryDependencies bundles repositories.
type RegistryDependencies struct {
	StaffRepo repository.StaffRepository
	GuestRepo repository.GuestRepository
	Logger    *zap.Logger
}

// RegisterGuestInput describes a guest check-in.
type RegisterGuestInput struct {
	ID         string
	Name       string
	Email      string
	RoomNumber string
}

// NewRegistryService creates the service.
func NewRegistryService(deps RegistryDependencies) *RegistryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{staff: deps.StaffRepo, guests: deps.GuestRepo, logger: logger}
}

// RegisterGuest adds or updates a guest registry row. An identity already on
// the staff roster is rejected so it can never resolve ambiguously.
func (s *RegistryService) RegisterGuest(ctx context.Context, p *domain.Principal, input RegisterGuestInput) (*domain.Guest, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !p.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can register guests")
	}

	guest := &domain.Guest{
		ID:         strings.TrimSpace(input.ID),
		Name:       strings.TrimSpace(input.Name),
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		RoomNumber: strings.TrimSpace(input.RoomNumber),
	}
	missing := []string{}
	if guest.ID == "" {
		missing = append(missing, "id")
	}
	if guest.Name == "" {
		missing = append(missing, "name")
	}
	if guest.RoomNumber == "" {
		missing = append(missing, "room_number")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}

	if _, err := s.staff.GetByID(ctx, guest.ID); err == nil {
		return nil, apperrors.NewValidationError("identity is already on the staff roster",
			map[string]any{"id": guest.ID})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	if err := s.guests.Upsert(ctx, guest); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	s.logger.Info("guest registered", zap.String("guest_id", guest.ID), zap.String("room", guest.RoomNumber))
	return guest, nil
}

// ListStaff returns roster members. Admin only.
func (s *RegistryService) ListStaff(ctx context.Context, p *domain.Principal, activeOnly bool) ([]domain.StaffMember, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !p.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can list staff")
	}
	filter := repository.StaffFilter{}
	if activeOnly {
		active := true
		filter.Active = &active
	}
	members, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if members == nil {
		members = []domain.StaffMember{}
	}
	return members, nil
}

// ApplySeed loads a roster and guest seed. It runs at startup before any
// principal exists, so it bypasses role checks.
func (s *RegistryService) ApplySeed(ctx context.Context, seed *config.RegistrySeed) error {
	if seed == nil {
		return nil
	}
	for _, entry := range seed.Staff {
		active := true
		if entry.Active != nil {
			active = *entry.Active
		}
		member := &domain.StaffMember{
			ID:     entry.ID,
			Name:   entry.Name,
			Email:  entry.Email,
			Role:   domain.StaffRole(entry.Role),
			Active: active,
		}
		if err := s.staff.Upsert(ctx, member); err != nil {
			return err
		}
	}
	for _, entry := range seed.Guests {
		guest := &domain.Guest{
			ID:         entry.ID,
			Name:       entry.Name,
			Email:      entry.Email,
			RoomNumber: entry.RoomNumber,
		}
		if err := s.guests.Upsert(ctx, guest); err != nil {
			return err
		}
	}
	s.logger.Info("registry seed applied",
		zap.Int("staff", len(seed.Staff)),
		zap.Int("guests", len(seed.Guests)))
	return nil
}
