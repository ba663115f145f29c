// Package services defines the business logic for tracked flights: CRUD and
// import, status refresh and the periodic sweep, and retention cleanup.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrFlightNotFound indicates that the requested flight does not exist.
	ErrFlightNotFound = errors.New("flight not found")

	// ErrEmployeeRequired is returned when a create/update/import leaves the
	// employee name empty.
	ErrEmployeeRequired = errors.New("employee name is required")

	// ErrFlightNumberRequired is returned when the flight number is empty.
	ErrFlightNumberRequired = errors.New("flight number is required")

	// ErrInvalidFlightNumber is returned for flight numbers that cannot be
	// stored (too long or containing non-alphanumerics).
	ErrInvalidFlightNumber = errors.New("flight number is invalid")

	// ErrDepartureRequired is returned when the departure time is missing.
	ErrDepartureRequired = errors.New("departure time is required")

	// ErrInvalidDeparture is returned when a departure time cannot be parsed.
	ErrInvalidDeparture = errors.New("departure time is invalid")

	// ErrInvalidAirport is returned for airport codes longer than 4 letters
	// or containing non-letters.
	ErrInvalidAirport = errors.New("airport code is invalid")

	// ErrInvalidStatus is returned for a status filter outside the six kinds.
	ErrInvalidStatus = errors.New("status is invalid")

	// ErrInvalidView is returned for a list view other than active/past/all.
	ErrInvalidView = errors.New("view must be one of active, past, all")

	// ErrInvalidRange is returned when a search range ends before it starts.
	ErrInvalidRange = errors.New("date range end precedes start")
)
