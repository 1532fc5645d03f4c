package domain

// Role is the resolved role of an authenticated principal.
type Role string

const (
	RoleGuest Role = "GUEST"
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Principal represents the authenticated caller. It is resolved server-side from
// the registries and passed explicitly to every operation.
type Principal struct {
	ID          string
	Role        Role
	DisplayName string
	RoomNumber  string
}

func (p *Principal) IsGuest() bool { return p != nil && p.Role == RoleGuest }
func (p *Principal) IsStaff() bool { return p != nil && p.Role == RoleStaff }
func (p *Principal) IsAdmin() bool { return p != nil && p.Role == RoleAdmin }

// IsOperator reports whether the principal works the request queue (staff or admin).
func (p *Principal) IsOperator() bool { return p.IsStaff() || p.IsAdmin() }
