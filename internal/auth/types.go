package auth

import (
	"regexp"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// Role represents an administrator tier. The tier decides the scope
// anchor: state admins anchor to a state, municipal admins to a
// municipality, the rest are unrestricted.
type Role string

const (
	// RoleSuperadmin has full control including admin account management.
	RoleSuperadmin Role = "superadmin"

	// RoleNational sees the whole country but cannot manage admins.
	RoleNational Role = "national"

	// RoleState is restricted to the parishes under its state anchor.
	RoleState Role = "state"

	// RoleMunicipal is restricted to the parishes under its municipality anchor.
	RoleMunicipal Role = "municipal"
)

// ValidRoles is the closed set of administrator roles.
var ValidRoles = []Role{RoleSuperadmin, RoleNational, RoleState, RoleMunicipal}

// IsValidRole returns true if the role is one of the defined tiers.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Admin represents an administrator account.
type Admin struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"-"` // never serialised
	Role         Role   `json:"role"`

	// StateID is set iff Role is RoleState.
	StateID *string `json:"state_id,omitempty"`

	// MunicipalityID is set iff Role is RoleMunicipal.
	MunicipalityID *string `json:"municipality_id,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session represents a stored bearer session. Expiry is absolute;
// validation never extends it.
type Session struct {
	ID        string    `json:"id"`
	AdminID   string    `json:"admin_id"`
	Token     string    `json:"-"` // never serialised
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
