package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hotel-requests/internal/domain"
	"github.com/spec-kit/hotel-requests/internal/repository"
	apperrors "github.com/spec-kit/hotel-requests/pkg/util/errorutil"
)

// MaxPageSize caps the limit accepted by ListVisible.
const MaxPageSize = 200

// Filter field names as they appear in error details and query strings.
const (
	FilterCategory = "category"
	FilterStatus   = "status"
	FilterRoom     = "room"
	FilterAssignee = "assignee"
)

var allowedFilters = map[domain.Role]map[string]bool{
	domain.RoleGuest: {FilterCategory: true, FilterStatus: true},
	domain.RoleStaff: {FilterCategory: true, FilterStatus: true, FilterRoom: true},
	domain.RoleAdmin: {FilterCategory: true, FilterStatus: true, FilterRoom: true, FilterAssignee: true},
}

// RequestQuery describes a listing. Filter.RequesterID is ignored; guests are
// always scoped to their own requests.
type RequestQuery struct {
	Filter domain.RequestFilter
	Sort   domain.SortOrder
	Limit  int
	Offset int
}

// VisibilityService answers which requests a principal may see.
type VisibilityService struct {
	requests repository.RequestStore
}

// NewVisibilityService constructs the service.
func NewVisibilityService(requests repository.RequestStore) *VisibilityService {
	return &VisibilityService{requests: requests}
}

// AllowedFilters lists the filter fields open to role.
func AllowedFilters(role domain.Role) []string {
	out := make([]string, 0, 4)
	for _, field := range []string{FilterCategory, FilterStatus, FilterRoom, FilterAssignee} {
		if allowedFilters[role][field] {
			out = append(out, field)
		}
	}
	return out
}

// ListVisible returns the requests p may see that match the query, ordered and
// paginated.
func (s *VisibilityService) ListVisible(ctx context.Context, p *domain.Principal, q RequestQuery) ([]domain.ServiceRequest, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if err := checkFilterPermissions(p, q.Filter); err != nil {
		return nil, err
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	filter := q.Filter
	filter.RequesterID = ""
	if p.IsGuest() {
		filter.RequesterID = p.ID
	}

	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, mapStoreError(err, "")
	}

	visible := filter.Apply(requests)
	domain.SortRequests(visible, q.Sort)
	return paginate(visible, q.Limit, q.Offset), nil
}

// GetVisible returns one request, or NotFound when p may not see it.
func (s *VisibilityService) GetVisible(ctx context.Context, p *domain.Principal, id string) (*domain.ServiceRequest, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": id})
		}
		return nil, mapStoreError(err, id)
	}
	if !CanView(p, req) {
		return nil, apperrors.NewNotFound("request", map[string]any{"request_id": id})
	}
	return req, nil
}

// CanView reports whether p may see req.
func CanView(p *domain.Principal, req *domain.ServiceRequest) bool {
	switch {
	case p == nil || req == nil:
		return false
	case p.IsGuest():
		return req.RequesterID == p.ID
	default:
		return p.IsOperator()
	}
}

func checkFilterPermissions(p *domain.Principal, f domain.RequestFilter) error {
	allowed := allowedFilters[p.Role]
	supplied := map[string]bool{
		FilterCategory: f.Category != "",
		FilterStatus:   f.Status != "",
		FilterRoom:     f.RoomNumber != "",
		FilterAssignee: f.AssigneeID != "",
	}
	for _, field := range []string{FilterCategory, FilterStatus, FilterRoom, FilterAssignee} {
		if supplied[field] && !allowed[field] {
			return apperrors.NewDomainError(apperrors.CodeForbidden,
				"filter not permitted for role", http.StatusForbidden,
				map[string]any{"field": field, "role": p.Role, "allowed": AllowedFilters(p.Role)})
		}
	}
	return nil
}

func validateQuery(q RequestQuery) error {
	if q.Filter.Category != "" && !q.Filter.Category.Valid() {
		return apperrors.NewValidationError("unknown category", map[string]any{"category": q.Filter.Category})
	}
	if q.Filter.Status != "" && !q.Filter.Status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": q.Filter.Status})
	}
	if !q.Sort.Valid() {
		return apperrors.NewValidationError("unknown sort order", map[string]any{"sort": q.Sort})
	}
	if q.Limit < 0 || q.Limit > MaxPageSize {
		return apperrors.NewValidationError("limit out of range", map[string]any{"limit": q.Limit, "max": MaxPageSize})
	}
	if q.Offset < 0 {
		return apperrors.NewValidationError("offset must not be negative", map[string]any{"offset": q.Offset})
	}
	return nil
}

func paginate(requests []domain.ServiceRequest, limit, offset int) []domain.ServiceRequest {
	if offset >= len(requests) {
		return []domain.ServiceRequest{}
	}
	requests = requests[offset:]
	if limit > 0 && limit < len(requests) {
		requests = requests[:limit]
	}
	return requests
}
