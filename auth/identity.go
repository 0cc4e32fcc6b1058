package auth

import "time"

// Role names issued by the course service.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Identity is the signed-in principal as described by the token claims.
type Identity struct {
	// Subject is the sub claim (user id).
	Subject string

	// Username is the username claim, falling back to Subject.
	Username string

	// Roles come from either a role string claim or a roles array claim.
	Roles []string

	// Claims contains the raw token claims.
	Claims map[string]any

	// ExpiresAt is zero when the token has no exp claim.
	ExpiresAt time.Time

	IssuedAt time.Time
}

// HasRole checks if the identity has a specific role.
func (id *Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the identity may use the /admin endpoints.
func (id *Identity) IsAdmin() bool {
	return id.HasRole(RoleAdmin)
}

// IsExpired reports whether the identity has expired at now. Identities
// without an expiry never expire.
func (id *Identity) IsExpired(now time.Time) bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(id.ExpiresAt)
}

// IsAnonymous returns true if no principal is known.
func (id *Identity) IsAnonymous() bool {
	return id == nil || (id.Subject == "" && id.Username == "")
}
