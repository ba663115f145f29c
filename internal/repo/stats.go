// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) and the status summary.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-flight-tracker/internal/domain"
)

// FlightsStats returns the total number of flights and the maximum UpdatedAt
// among them. When the table is empty, count is 0 and maxUpdatedAt is nil.
func FlightsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Flight{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Flight{}).
		Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// CountFlightsByStatus returns the number of flights per status kind.
// Kinds with no flights are absent from the map.
func CountFlightsByStatus(ctx context.Context, db *gorm.DB) (map[domain.FlightStatus]int64, error) {
	var rows []struct {
		Status domain.FlightStatus
		N      int64
	}
	err := db.WithContext(ctx).Model(&domain.Flight{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.FlightStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
