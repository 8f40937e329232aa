package auth

import "errors"

// Sentinel errors for auth operations.
var (
	// ErrSessionInvalid is the single failure for token validation:
	// missing, unknown, expired, or belonging to an inactive account.
	ErrSessionInvalid = errors.New("session invalid")

	ErrAdminNotFound  = errors.New("admin not found")
	ErrUsernameExists = errors.New("username already exists")

	// ErrScopeViolation marks a write whose target lies outside the
	// caller's geographic scope. The API surfaces it as not-found.
	ErrScopeViolation = errors.New("target outside caller scope")

	// ErrSuperadminImmutable is returned when deleting a superadmin account.
	ErrSuperadminImmutable = errors.New("superadmin accounts cannot be deleted")
)
