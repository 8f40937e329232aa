package auth

import (
	"fmt"

	"github.com/JeanClaudeMorales/amarillo/internal/geo"
)

// scopeKind is the shape of a resolved scope.
type scopeKind int

const (
	scopeUnrestricted scopeKind = iota
	scopeState
	scopeMunicipality
	scopeEmpty
)

// ScopeFilter is the resolved geographic visibility of an admin.
//
// It is a value type produced once per request by ResolveScope and
// threaded through every repository call. Repositories compose
// Predicate into WHERE clauses with AND only, so caller-supplied
// filters can narrow the scope but never widen it.
type ScopeFilter struct {
	kind     scopeKind
	anchorID string
}

// ResolveScope maps an admin to their scope filter. The policy table,
// first match wins:
//
//	superadmin            -> unrestricted
//	national              -> unrestricted
//	state with anchor     -> parishes under the state
//	municipal with anchor -> parishes under the municipality
//	anything else         -> empty
//
// A state or municipal admin with a missing anchor gets the empty
// scope: misconfiguration hides data instead of exposing it.
func ResolveScope(admin *Admin) ScopeFilter {
	if admin == nil {
		return ScopeFilter{kind: scopeEmpty}
	}

	switch admin.Role {
	case RoleSuperadmin, RoleNational:
		return UnrestrictedScope()
	case RoleState:
		if admin.StateID == nil || *admin.StateID == "" {
			return EmptyScope()
		}
		return ScopeFilter{kind: scopeState, anchorID: *admin.StateID}
	case RoleMunicipal:
		if admin.MunicipalityID == nil || *admin.MunicipalityID == "" {
			return EmptyScope()
		}
		return ScopeFilter{kind: scopeMunicipality, anchorID: *admin.MunicipalityID}
	}
	return EmptyScope()
}

// UnrestrictedScope returns the filter that matches everything, the
// resolution of the superadmin and national roles.
func UnrestrictedScope() ScopeFilter {
	return ScopeFilter{kind: scopeUnrestricted}
}

// EmptyScope returns the filter that matches nothing.
func EmptyScope() ScopeFilter {
	return ScopeFilter{kind: scopeEmpty}
}

// Unrestricted reports whether the filter matches everything.
func (f ScopeFilter) Unrestricted() bool {
	return f.kind == scopeUnrestricted
}

// Empty reports whether the filter matches nothing.
func (f ScopeFilter) Empty() bool {
	return f.kind == scopeEmpty
}

// StateAnchor returns the state anchor, if the scope is state-shaped.
func (f ScopeFilter) StateAnchor() (string, bool) {
	if f.kind == scopeState {
		return f.anchorID, true
	}
	return "", false
}

// MunicipalityAnchor returns the municipality anchor, if the scope is
// municipality-shaped.
func (f ScopeFilter) MunicipalityAnchor() (string, bool) {
	if f.kind == scopeMunicipality {
		return f.anchorID, true
	}
	return "", false
}

// Predicate renders the filter as a parameterized SQL fragment over the
// given parish-id column (e.g. "ap.parish_id"). The fragment is always
// safe to AND with other conditions:
//
//	unrestricted -> 1=1
//	empty        -> 1=0
//	state        -> column IN (parishes under the state)
//	municipality -> column IN (parishes under the municipality)
//
// A NULL parish column never matches an IN subquery, so rows without a
// parish are visible only to unrestricted scopes.
func (f ScopeFilter) Predicate(column string) (string, []any) {
	switch f.kind {
	case scopeState:
		clause := fmt.Sprintf(`%s IN (SELECT p.id FROM parishes p
			JOIN municipalities m ON p.municipality_id = m.id
			WHERE m.state_id = ?)`, column)
		return clause, []any{f.anchorID}
	case scopeMunicipality:
		clause := fmt.Sprintf("%s IN (SELECT p.id FROM parishes p WHERE p.municipality_id = ?)", column)
		return clause, []any{f.anchorID}
	case scopeEmpty:
		return "1=0", nil
	default:
		return "1=1", nil
	}
}

// AllowsParish re-checks a single resolved parish chain against the
// scope. Writes call this after deriving the target row's ancestry so
// an in-scope list read cannot be parlayed into an out-of-scope write.
// A nil ancestry (row without a parish) is allowed only for
// unrestricted scopes.
func (f ScopeFilter) AllowsParish(ancestry *geo.Ancestry) bool {
	switch f.kind {
	case scopeUnrestricted:
		return true
	case scopeEmpty:
		return false
	}

	if ancestry == nil {
		return false
	}

	switch f.kind {
	case scopeState:
		return ancestry.StateID == f.anchorID
	case scopeMunicipality:
		return ancestry.MunicipalityID == f.anchorID
	}
	return false
}
