package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/hotel-requests/internal/domain"
	"github.com/spec-kit/hotel-requests/internal/repository"
	apperrors "github.com/spec-kit/hotel-requests/pkg/util/errorutil"
)

// Resolver maps an authenticated identity to a Principal using the staff roster
// and guest registry. It never trusts role claims from the token.
type Resolver struct {
	tokens *TokenManager
	staff  repository.StaffRepository
	guests repository.GuestRepository
	logger *zap.Logger
}

// NewResolver constructs a resolver.
func NewResolver(tokens *TokenManager, staff repository.StaffRepository, guests repository.GuestRepository, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{tokens: tokens, staff: staff, guests: guests, logger: logger}
}

// ResolvePrincipal verifies the token and resolves its subject.
func (r *Resolver) ResolvePrincipal(ctx context.Context, token string) (*domain.Principal, error) {
	identity, err := r.tokens.ParseIdentity(token)
	if err != nil {
		return nil, apperrors.NewIdentityUnresolved("invalid identity token")
	}
	return r.ResolveIdentity(ctx, identity)
}

// ResolveIdentity looks up both registries. Inactive roster rows are treated
// as absent.
func (r *Resolver) ResolveIdentity(ctx context.Context, identity string) (*domain.Principal, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, apperrors.NewIdentityUnresolved("identity is empty")
	}

	staff, err := r.staff.GetByID(ctx, identity)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		staff = nil
	}
	if staff != nil && !staff.Active {
		staff = nil
	}

	guest, err := r.guests.GetByID(ctx, identity)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		guest = nil
	}

	principal, err := DerivePrincipal(identity, staff, guest)
	if apperrors.HasCode(err, apperrors.CodeAmbiguousIdentity) {
		r.logger.Error("identity present in staff roster and guest registry",
			zap.String("identity", identity))
	}
	return principal, err
}

// DerivePrincipal decides the principal from the registry rows found for an
// identity. Staff wins only when the identity is not also a guest.
func DerivePrincipal(identity string, staff *domain.StaffMember, guest *domain.Guest) (*domain.Principal, error) {
	switch {
	case staff != nil && guest != nil:
		return nil, apperrors.NewAmbiguousIdentity(identity)
	case staff != nil:
		return staff.Principal(), nil
	case guest != nil:
		return guest.Principal(), nil
	default:
		return nil, apperrors.NewIdentityUnresolved("identity is not registered")
	}
}
