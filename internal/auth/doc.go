// Package auth provides administrator accounts, bearer sessions, and
// the geographic scope resolver for Amarillo.
//
// # Sessions
//
// Login issues an opaque 256-bit random token stored server-side with
// an absolute expiry (default 8 hours, no sliding refresh). Validation
// is a single join against the admins table; every failure mode
// (unknown token, expired session, deactivated account) collapses to
// ErrSessionInvalid so callers cannot distinguish them. An admin may
// hold any number of concurrent sessions.
//
// # Scoping
//
// ResolveScope maps an admin's role and anchor to a ScopeFilter. The
// filter composes into repository queries as a parameterized SQL
// predicate and re-checks individual rows on writes. Missing anchors
// resolve to the empty scope: a misconfigured account sees nothing
// rather than everything.
package auth
