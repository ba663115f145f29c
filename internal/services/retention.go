package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRetention is how long after departure a flight is kept.
const DefaultRetention = 48 * time.Hour

// Retention deletes flights whose departure is older than Window, and purges
// expired idempotency records on the same schedule.
type Retention struct {
	Store interface {
		DeleteFlightsDepartedBefore(ctx context.Context, cutoff time.Time) (int64, error)
		DeleteExpiredIdempotency(ctx context.Context, now time.Time) (int64, error)
	}
	Window time.Duration
	Log    zerolog.Logger
	Now    func() time.Time
}

// Run performs one cleanup pass and returns the number of flights removed.
func (r *Retention) Run(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	if r.Now != nil {
		now = r.Now().UTC()
	}
	window := r.Window
	if window <= 0 {
		window = DefaultRetention
	}

	n, err := r.Store.DeleteFlightsDepartedBefore(ctx, now.Add(-window))
	if err != nil {
		return 0, err
	}
	retentionDeleted.Add(float64(n))

	keys, err := r.Store.DeleteExpiredIdempotency(ctx, now)
	if err != nil {
		r.Log.Warn().Err(err).Msg("idempotency purge failed")
	}
	if n > 0 || keys > 0 {
		r.Log.Info().Int64("flights", n).Int64("idempotency_keys", keys).Msg("retention cleanup")
	}
	return n, nil
}
