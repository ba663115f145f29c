// Package store defines the persistence collaborator used by the services:
// a small Store interface over flights and idempotency records, with a
// GORM-backed implementation (SQLite or PostgreSQL) and an in-memory one for
// tests and throwaway runs. Both report missing rows as ErrNotFound.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tbourn/go-flight-tracker/internal/domain"
	"github.com/tbourn/go-flight-tracker/internal/repo"
)

var (
	// ErrNotFound is returned when a flight or idempotency record is absent.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an idempotency key is already recorded.
	ErrDuplicate = errors.New("duplicate")
)

// Filter narrows ListFlights; see repo.FlightFilter.
type Filter = repo.FlightFilter

// Store is the persistence surface the services depend on.
type Store interface {
	CreateFlight(ctx context.Context, f *domain.Flight) error
	GetFlight(ctx context.Context, id string) (*domain.Flight, error)
	UpdateFlight(ctx context.Context, f *domain.Flight) error
	// UpdateFlightStatus overwrites status columns only. A nil checkedAt
	// leaves LastChecked unchanged.
	UpdateFlightStatus(ctx context.Context, id string, status domain.FlightStatus, details domain.StatusDetails, checkedAt *time.Time) error
	DeleteFlight(ctx context.Context, id string) error
	ListFlights(ctx context.Context, filter Filter) ([]domain.Flight, error)
	DeleteFlightsDepartedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Stats returns the flight count and latest UpdatedAt (nil when empty).
	Stats(ctx context.Context) (int64, *time.Time, error)
	CountByStatus(ctx context.Context) (map[domain.FlightStatus]int64, error)

	GetIdempotency(ctx context.Context, route, key string, now time.Time) (*domain.Idempotency, error)
	SaveIdempotency(ctx context.Context, route, key, resourceID string, status int, ttl time.Duration) error
	DeleteExpiredIdempotency(ctx context.Context, now time.Time) (int64, error)

	Ping(ctx context.Context) error
}
