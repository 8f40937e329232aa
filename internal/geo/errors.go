package geo

import "errors"

var (
	// ErrStateNotFound is returned when a state lookup matches no row.
	ErrStateNotFound = errors.New("state not found")

	// ErrMunicipalityNotFound is returned when a municipality lookup matches no row.
	ErrMunicipalityNotFound = errors.New("municipality not found")

	// ErrParishNotFound is returned when a parish lookup matches no row.
	ErrParishNotFound = errors.New("parish not found")
)
