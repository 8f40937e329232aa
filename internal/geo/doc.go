// Package geo provides the geographic hierarchy for Amarillo.
//
// The hierarchy is fixed at three levels: state, municipality, parish.
// Scoped resources (access points, portal users) attach to a parish;
// the auth package's scope filter restricts callers to the parishes
// under their anchor node.
//
// Nodes are seeded through migrations and read-only at runtime; there
// are no mutation operations in this package.
package geo
