package domain

import "time"

// StaffRole enumerates roster roles.
type StaffRole string

const (
	StaffRoleStaff StaffRole = "STAFF"
	StaffRoleAdmin StaffRole = "ADMIN"
)

// Valid reports whether r is a roster role.
func (r StaffRole) Valid() bool {
	return r == StaffRoleStaff || r == StaffRoleAdmin
}

// StaffMember is a staff roster row.
type StaffMember struct {
	ID        string
	Name      string
	Email     string
	Role      StaffRole
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal builds the operator principal for the roster row.
func (s *StaffMember) Principal() *Principal {
	role := RoleStaff
	if s.Role == StaffRoleAdmin {
		role = RoleAdmin
	}
	return &Principal{ID: s.ID, Role: role, DisplayName: s.Name}
}
