// Package services – Tracker
//
// Tracker runs status resolutions: a manual single-flight Refresh and the
// periodic Sweep over every flight the eligibility filter selects. Sweeps
// are strictly sequential with a fixed pause between provider calls. Each
// record is set to "checking" before its resolution and guarded by a
// per-record mutex, so a manual refresh and a sweep never interleave on the
// same flight; otherwise the last write wins.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-flight-tracker/internal/domain"
	"github.com/tbourn/go-flight-tracker/internal/store"
	"github.com/tbourn/go-flight-tracker/internal/tracking"
)

const (
	checkingMessage = "Checking flight status"
	failedMessage   = "Unable to retrieve flight status"
)

// StatusResolver is the resolver contract the Tracker needs.
type StatusResolver interface {
	Resolve(ctx context.Context, flightNumber string, departure *time.Time) (tracking.Result, error)
	Live() bool
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	StartedAt  time.Time                   `json:"started_at"`
	Duration   time.Duration               `json:"duration"`
	Considered int                         `json:"considered"`
	Eligible   int                         `json:"eligible"`
	Checked    int                         `json:"checked"`
	Skipped    int                         `json:"skipped"`
	ByStatus   map[domain.FlightStatus]int `json:"by_status"`
	Aborted    bool                        `json:"aborted"`
}

// Tracker resolves and records flight statuses.
type Tracker struct {
	Store    store.Store
	Resolver StatusResolver
	// Pacing is the pause between consecutive provider calls in a sweep.
	// It only applies when the resolver is live.
	Pacing time.Duration
	Log    zerolog.Logger
	Now    func() time.Time

	locks   keyLock
	sweepMu sync.Mutex
}

// NewTracker constructs a Tracker.
func NewTracker(st store.Store, r StatusResolver, pacing time.Duration, log zerolog.Logger) *Tracker {
	return &Tracker{Store: st, Resolver: r, Pacing: pacing, Log: log, Now: time.Now}
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}

// errGone marks a flight deleted while it was being checked.
var errGone = errors.New("flight deleted during check")

// Refresh resolves one flight now and returns the updated record. Transient
// provider failures are recorded on the flight as StatusError and are not
// returned. Auth and rate-limit failures are returned (test with
// tracking.IsFatal) and the flight keeps its previous status, as it does
// when ctx is cancelled mid-check.
func (t *Tracker) Refresh(ctx context.Context, id string) (*domain.Flight, error) {
	ctx, span := otel.Tracer("services/Tracker").Start(ctx, "Refresh",
		trace.WithAttributes(attribute.String("flight.id", id)),
	)
	defer span.End()

	if _, err := t.check(ctx, id); err != nil {
		if errors.Is(err, errGone) {
			return nil, ErrFlightNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out, err := t.Store.GetFlight(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrFlightNotFound
	}
	return out, err
}

// Sweep checks every flight that tracking.ShouldMonitor selects, one at a
// time. A fatal provider error stops the sweep and is returned together with
// the partial report. Cancelling ctx stops the sweep; a check interrupted by
// the cancellation leaves its flight as it was.
func (t *Tracker) Sweep(ctx context.Context) (SweepReport, error) {
	t.sweepMu.Lock()
	defer t.sweepMu.Unlock()

	ctx, span := otel.Tracer("services/Tracker").Start(ctx, "Sweep")
	defer span.End()

	start := t.now()
	rep := SweepReport{StartedAt: start, ByStatus: map[domain.FlightStatus]int{}}
	defer func() {
		rep.Duration = t.now().Sub(start)
		sweepDuration.Observe(rep.Duration.Seconds())
	}()

	all, err := t.Store.ListFlights(ctx, store.Filter{})
	if err != nil {
		return rep, fmt.Errorf("list flights: %w", err)
	}
	rep.Considered = len(all)

	var work []domain.Flight
	for i := range all {
		if tracking.ShouldMonitor(&all[i], start) {
			work = append(work, all[i])
		}
	}
	rep.Eligible = len(work)
	sweepEligible.Set(float64(len(work)))
	span.SetAttributes(attribute.Int("sweep.eligible", len(work)))

	live := t.Resolver.Live()
	for i := range work {
		if i > 0 && live && t.Pacing > 0 {
			select {
			case <-ctx.Done():
				rep.Aborted = true
				sweepAborts.WithLabelValues("canceled").Inc()
				return rep, ctx.Err()
			case <-time.After(t.Pacing):
			}
		} else if err := ctx.Err(); err != nil {
			rep.Aborted = true
			sweepAborts.WithLabelValues("canceled").Inc()
			return rep, err
		}

		status, err := t.check(ctx, work[i].ID)
		switch {
		case err == nil:
			rep.Checked++
			rep.ByStatus[status]++
		case errors.Is(err, errGone):
			rep.Skipped++
		case ctx.Err() != nil:
			rep.Aborted = true
			sweepAborts.WithLabelValues("canceled").Inc()
			return rep, ctx.Err()
		case tracking.IsFatal(err):
			rep.Aborted = true
			reason := "auth"
			if errors.Is(err, tracking.ErrProviderRateLimited) {
				reason = "rate_limited"
			}
			sweepAborts.WithLabelValues(reason).Inc()
			t.Log.Error().Err(err).
				Int("checked", rep.Checked).
				Int("remaining", len(work)-i).
				Msg("sweep aborted by provider")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return rep, err
		default:
			// store failure for this record; keep going
			rep.Skipped++
			t.Log.Warn().Err(err).Str("flight_id", work[i].ID).Msg("status write failed")
		}
	}

	t.Log.Info().
		Int("considered", rep.Considered).
		Int("eligible", rep.Eligible).
		Int("checked", rep.Checked).
		Int("skipped", rep.Skipped).
		Msg("sweep finished")
	return rep, nil
}

// check runs one resolution for flight id under its record lock and writes
// the outcome. The record is re-read under the lock. It returns the stored
// status kind.
func (t *Tracker) check(ctx context.Context, id string) (domain.FlightStatus, error) {
	unlock := t.locks.Lock(id)
	defer unlock()

	f, err := t.Store.GetFlight(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return "", errGone
	}
	if err != nil {
		return "", err
	}

	prev := *f
	checking := f.StatusDetails
	checking.Message = checkingMessage
	if err := t.Store.UpdateFlightStatus(ctx, f.ID, domain.StatusChecking, checking, nil); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", errGone
		}
		return "", err
	}

	dep := f.DepartureTime
	res, err := t.Resolver.Resolve(ctx, f.FlightNumber, &dep)
	checkedAt := t.now()

	if err != nil && ctx.Err() != nil {
		// The caller went away; the check said nothing about this flight.
		t.restore(ctx, &prev)
		return "", ctx.Err()
	}
	if err != nil && tracking.IsFatal(err) {
		statusChecks.WithLabelValues("fatal").Inc()
		// Put the record back as it was; the failure is not about this flight.
		t.restore(ctx, &prev)
		return "", err
	}
	if err != nil {
		res = tracking.Result{
			Status:  domain.StatusError,
			Details: failedDetails(prev.StatusDetails, f.FlightNumber, err),
		}
		t.Log.Warn().Err(err).Str("flight_id", f.ID).Str("flight_number", f.FlightNumber).Msg("status check failed")
	}

	if err := t.Store.UpdateFlightStatus(context.WithoutCancel(ctx), f.ID, res.Status, res.Details, &checkedAt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", errGone
		}
		return "", err
	}
	statusChecks.WithLabelValues(string(res.Status)).Inc()
	return res.Status, nil
}

// restore writes prev's status back without touching last_checked.
func (t *Tracker) restore(ctx context.Context, prev *domain.Flight) {
	err := t.Store.UpdateFlightStatus(context.WithoutCancel(ctx), prev.ID, prev.Status, prev.StatusDetails, nil)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		t.Log.Warn().Err(err).Str("flight_id", prev.ID).Msg("restore status failed")
	}
}

// failedDetails describes a transient failure. Known arrival times are kept
// so the eligibility filter can still tell when the flight has landed.
func failedDetails(prev domain.StatusDetails, flightNumber string, err error) domain.StatusDetails {
	return domain.StatusDetails{
		Message:          failedMessage,
		Error:            err.Error(),
		FlightNumber:     flightNumber,
		ScheduledArrival: prev.ScheduledArrival,
		EstimatedArrival: prev.EstimatedArrival,
		ActualArrival:    prev.ActualArrival,
	}
}
