package dto

import (
	"time"

	"github.com/spec-kit/hotel-requests/internal/domain"
)

// RegisterGuestRequest payload.
type RegisterGuestRequest struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	RoomNumber string `json:"room_number" validate:"required"`
}

// GuestResponse is a guest registry row.
type GuestResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	RoomNumber string    `json:"room_number"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewGuestResponse maps a guest.
func NewGuestResponse(g *domain.Guest) GuestResponse {
	return GuestResponse{ID: g.ID, Name: g.Name, Email: g.Email, RoomNumber: g.RoomNumber, CreatedAt: g.CreatedAt}
}

// StaffResponse is a roster row.
type StaffResponse struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Email  string           `json:"email,omitempty"`
	Role   domain.StaffRole `json:"role"`
	Active bool             `json:"active"`
}

// NewStaffList maps roster rows.
func NewStaffList(members []domain.StaffMember) []StaffResponse {
	items := make([]StaffResponse, 0, len(members))
	for _, m := range members {
		items = append(items, StaffResponse{ID: m.ID, Name: m.Name, Email: m.Email, Role: m.Role, Active: m.Active})
	}
	return items
}

// MeResponse describes the resolved principal.
type MeResponse struct {
	ID             string      `json:"id"`
	Role           domain.Role `json:"role"`
	DisplayName    string      `json:"display_name"`
	RoomNumber     string      `json:"room_number,omitempty"`
	AllowedFilters []string    `json:"allowed_filters"`
}
