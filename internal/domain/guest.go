package domain

import "time"

// Guest is a guest registry row. Its ID is the identity issued by the identity provider.
type Guest struct {
	ID         string
	Name       string
	Email      string
	RoomNumber string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Principal builds the guest principal.
func (g *Guest) Principal() *Principal {
	return &Principal{ID: g.ID, Role: RoleGuest, DisplayName: g.Name, RoomNumber: g.RoomNumber}
}
