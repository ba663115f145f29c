// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Flight model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They hold
// no business rules: eligibility, past-ness and validation live above them.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-flight-tracker/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// FlightFilter narrows ListFlights. Zero values mean "no constraint".
type FlightFilter struct {
	// Query is a case-insensitive substring matched against employee name,
	// flight number, origin and destination.
	Query      string
	Status     domain.FlightStatus
	Employee   string
	DepartFrom *time.Time
	DepartTo   *time.Time
}

// CreateFlight inserts f, assigning an ID and timestamps when unset.
func CreateFlight(ctx context.Context, db *gorm.DB, f *domain.Flight) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	return db.WithContext(ctx).Create(f).Error
}

// GetFlight fetches a flight by ID, or ErrNotFound.
func GetFlight(ctx context.Context, db *gorm.DB, id string) (*domain.Flight, error) {
	var f domain.Flight
	if err := db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFlight persists every column of f. Returns ErrNotFound if no row
// has f.ID.
func UpdateFlight(ctx context.Context, db *gorm.DB, f *domain.Flight) error {
	f.UpdatedAt = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Flight{}).
		Where("id = ?", f.ID).
		Select("employee_name", "flight_number", "departure_time", "origin", "destination",
			"status", "status_details", "last_checked", "updated_at").
		Updates(f)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateFlightStatus writes the status columns only. A nil checkedAt leaves
// last_checked untouched.
func UpdateFlightStatus(ctx context.Context, db *gorm.DB, id string, status domain.FlightStatus, details domain.StatusDetails, checkedAt *time.Time) error {
	upd := &domain.Flight{
		Status:        status,
		StatusDetails: details,
		LastChecked:   checkedAt,
		UpdatedAt:     time.Now().UTC(),
	}
	cols := []string{"status", "status_details", "updated_at"}
	if checkedAt != nil {
		cols = append(cols, "last_checked")
	}
	res := db.WithContext(ctx).
		Model(&domain.Flight{}).
		Where("id = ?", id).
		Select(cols).
		Updates(upd)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFlight removes a flight by ID. Returns ErrNotFound if nothing was
// deleted.
func DeleteFlight(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.Flight{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFlights returns flights matching filter ordered by departure time
// ascending, then ID for stability.
func ListFlights(ctx context.Context, db *gorm.DB, filter FlightFilter) ([]domain.Flight, error) {
	q := db.WithContext(ctx).Model(&domain.Flight{})

	if s := strings.TrimSpace(filter.Query); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		q = q.Where(
			"LOWER(employee_name) LIKE ? ESCAPE '\\' OR LOWER(flight_number) LIKE ? ESCAPE '\\' OR LOWER(origin) LIKE ? ESCAPE '\\' OR LOWER(destination) LIKE ? ESCAPE '\\'",
			like, like, like, like,
		)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if s := strings.TrimSpace(filter.Employee); s != "" {
		q = q.Where("LOWER(employee_name) = ?", strings.ToLower(s))
	}
	if filter.DepartFrom != nil {
		q = q.Where("departure_time >= ?", filter.DepartFrom.UTC())
	}
	if filter.DepartTo != nil {
		q = q.Where("departure_time <= ?", filter.DepartTo.UTC())
	}

	var out []domain.Flight
	err := q.Order("departure_time asc").Order("id asc").Find(&out).Error
	return out, err
}

// DeleteFlightsDepartedBefore removes flights whose departure is strictly
// before cutoff and returns how many rows were deleted.
func DeleteFlightsDepartedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("departure_time < ?", cutoff.UTC()).Delete(&domain.Flight{})
	return res.RowsAffected, res.Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
