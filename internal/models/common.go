package models

import "fmt"

// MwPrincipalKey is the echo context key the auth middleware stores the
// verified principal under.
const MwPrincipalKey = "principal"

// Role is the closed set of portal roles. Handlers never compare raw
// strings; unknown values are rejected at construction time by ParseRole.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
	RoleInfluencer Role = "influencer"
	RolePartner    Role = "partner"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSuperAdmin, RoleInfluencer, RolePartner:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Principal is the authenticated identity reconstructed from a verified
// token on every request. It is never persisted.
type Principal struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// HasRole reports whether the principal's role is in the allowed set.
func (p *Principal) HasRole(allowed ...Role) bool {
	for _, r := range allowed {
		if p.Role == r {
			return true
		}
	}
	return false
}
