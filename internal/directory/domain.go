package directory

import "time"

// Role is the privilege tier assigned to an operator account.
type Role string

// Defined roles, lowest to highest privilege.
const (
	RoleOperator  Role = "OPERATOR"
	RoleCommander Role = "COMMANDER"
	RoleAdmin     Role = "ADMIN"
)

// Roles lists every defined role.
func Roles() []Role {
	return []Role{RoleOperator, RoleCommander, RoleAdmin}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOperator, RoleCommander, RoleAdmin:
		return true
	}
	return false
}

// Principal represents an authenticated operator for the duration of one
// request. It is loaded fresh from the directory on every request and never
// cached across requests. CommandHash is opaque; it is only ever handed to a
// constant-time comparison and must not be logged or serialized.
type Principal struct {
	ID           string
	Callsign     string
	Role         Role
	IsActive     bool
	LastActivity *time.Time
	CommandHash  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
