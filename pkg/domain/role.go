package domain

import dErrors "carematch/pkg/domain-errors"

// Role is the account role carried in access tokens and changed from the admin console.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries to enforce the allowlist;
// direct casting bypasses validation.
type Role string

const (
	RoleProvider Role = "provider"
	RoleFamily   Role = "family"
	RoleAdmin    Role = "admin"
)

var validRoles = map[Role]bool{
	RoleProvider: true,
	RoleFamily:   true,
	RoleAdmin:    true,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role is required")
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role: "+s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// IsAdmin reports whether the role may use the admin console.
func (r Role) IsAdmin() bool { return r == RoleAdmin }
