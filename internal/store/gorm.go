package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-flight-tracker/internal/domain"
	"github.com/tbourn/go-flight-tracker/internal/repo"
)

// Gorm adapts the repo functions to Store.
type Gorm struct {
	DB *gorm.DB
}

// NewGorm returns a Store over db. The schema must already be migrated.
func NewGorm(db *gorm.DB) *Gorm { return &Gorm{DB: db} }

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrDuplicate):
		return ErrDuplicate
	default:
		return err
	}
}

// CreateFlight inserts f, filling in its ID and timestamps.
func (g *Gorm) CreateFlight(ctx context.Context, f *domain.Flight) error {
	return repo.CreateFlight(ctx, g.DB, f)
}

// GetFlight loads a flight by ID, or returns ErrNotFound.
func (g *Gorm) GetFlight(ctx context.Context, id string) (*domain.Flight, error) {
	f, err := repo.GetFlight(ctx, g.DB, id)
	return f, mapErr(err)
}

// UpdateFlight replaces the editable fields and status of an existing flight.
func (g *Gorm) UpdateFlight(ctx context.Context, f *domain.Flight) error {
	return mapErr(repo.UpdateFlight(ctx, g.DB, f))
}

// UpdateFlightStatus writes status and details; last_checked only when checkedAt is non-nil.
func (g *Gorm) UpdateFlightStatus(ctx context.Context, id string, status domain.FlightStatus, details domain.StatusDetails, checkedAt *time.Time) error {
	return mapErr(repo.UpdateFlightStatus(ctx, g.DB, id, status, details, checkedAt))
}

// DeleteFlight removes a flight, or returns ErrNotFound.
func (g *Gorm) DeleteFlight(ctx context.Context, id string) error {
	return mapErr(repo.DeleteFlight(ctx, g.DB, id))
}

// ListFlights returns the flights matching filter ordered by departure.
func (g *Gorm) ListFlights(ctx context.Context, filter Filter) ([]domain.Flight, error) {
	return repo.ListFlights(ctx, g.DB, filter)
}

// DeleteFlightsDepartedBefore removes flights departing before cutoff and returns the count.
func (g *Gorm) DeleteFlightsDepartedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return repo.DeleteFlightsDepartedBefore(ctx, g.DB, cutoff)
}

// Stats returns the flight count and the latest update time.
func (g *Gorm) Stats(ctx context.Context) (int64, *time.Time, error) {
	return repo.FlightsStats(ctx, g.DB)
}

// CountByStatus returns the number of flights per status.
func (g *Gorm) CountByStatus(ctx context.Context) (map[domain.FlightStatus]int64, error) {
	return repo.CountFlightsByStatus(ctx, g.DB)
}

// GetIdempotency returns the unexpired record for route and key, or ErrNotFound.
func (g *Gorm) GetIdempotency(ctx context.Context, route, key string, now time.Time) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, g.DB, route, key, now)
	return rec, mapErr(err)
}

// SaveIdempotency records resourceID and status under route and key for ttl.
func (g *Gorm) SaveIdempotency(ctx context.Context, route, key, resourceID string, status int, ttl time.Duration) error {
	_, err := repo.CreateIdempotency(ctx, g.DB, route, key, resourceID, status, ttl)
	return mapErr(err)
}

// DeleteExpiredIdempotency removes records expired at now.
func (g *Gorm) DeleteExpiredIdempotency(ctx context.Context, now time.Time) (int64, error) {
	return repo.DeleteExpiredIdempotency(ctx, g.DB, now)
}

// Ping checks the underlying connection.
func (g *Gorm) Ping(ctx context.Context) error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
