// Package portal holds the scoped repositories for captive-portal
// entities: access points, registered portal users, survey questions,
// and portal configuration.
//
// Every read takes an auth.ScopeFilter and composes its predicate into
// the WHERE clause with AND, so results never leave the caller's
// geographic subtree. Writes re-derive the target row's parish ancestry
// and re-check it against the filter before mutating; an out-of-scope
// target returns auth.ErrScopeViolation and nothing is written.
package portal
