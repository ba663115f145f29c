package tracking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tbourn/go-flight-tracker/internal/domain"
)

// delayThreshold is the smallest delay that is NOT on time. Exactly 15
// minutes still counts as on time.
const delayThreshold = 15 * time.Minute

// Payload is one flight as reported by a status provider. Providers map their
// wire format onto it; the resolver never sees provider-specific JSON.
type Payload struct {
	Ident              string
	Status             string
	Cancelled          bool
	CancellationReason string
	DivertedTo         string
	DelayMinutes       int

	ScheduledDeparture string
	EstimatedDeparture string
	ActualDeparture    string
	ScheduledArrival   string
	EstimatedArrival   string
	ActualArrival      string

	Origin       string
	Destination  string
	AircraftType string
	Operator     string
}

// Provider fetches the most relevant recent activity for an ident. It returns
// (nil, nil) or ErrProviderNotFound when the provider has no such flight, and
// ErrProviderAuth / ErrProviderRateLimited for the fatal failure kinds.
type Provider interface {
	FetchFlight(ctx context.Context, ident string, departure *time.Time) (*Payload, error)
}

// Result is the outcome of one status resolution.
type Result struct {
	Status  domain.FlightStatus
	Details domain.StatusDetails
}

// Resolver maps a flight number to a Result. With a nil Provider it serves
// deterministic mock data; otherwise it issues exactly one provider call per
// Resolve, bounded by Timeout when positive. Retries are the caller's concern.
type Resolver struct {
	Provider Provider
	Timeout  time.Duration
	Now      func() time.Time
}

// NewResolver returns a Resolver using p (nil for mock mode) and the given
// per-call timeout.
func NewResolver(p Provider, timeout time.Duration) *Resolver {
	return &Resolver{Provider: p, Timeout: timeout, Now: time.Now}
}

// Live reports whether a real provider is configured.
func (r *Resolver) Live() bool { return r != nil && r.Provider != nil }

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Resolve classifies flightNumber. Auth and rate-limit failures are returned
// unchanged (test with errors.Is); a not-found answer becomes StatusUnknown;
// any other failure is returned wrapped and the caller records StatusError.
func (r *Resolver) Resolve(ctx context.Context, flightNumber string, departure *time.Time) (Result, error) {
	if !r.Live() {
		return Mock(flightNumber, r.now()), nil
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	p, err := r.Provider.FetchFlight(ctx, ParseIdent(flightNumber).String(), departure)
	switch {
	case errors.Is(err, ErrProviderNotFound):
		return Unknown(flightNumber), nil
	case IsFatal(err):
		return Result{}, err
	case err != nil:
		return Result{}, fmt.Errorf("resolve %s: %w", flightNumber, err)
	case p == nil:
		return Unknown(flightNumber), nil
	}
	return Classify(*p), nil
}

// Unknown is the result for a flight the provider has no record of.
func Unknown(flightNumber string) Result {
	return Result{
		Status: domain.StatusUnknown,
		Details: domain.StatusDetails{
			FlightNumber: flightNumber,
			Message:      "No recent flight information found for " + flightNumber,
		},
	}
}

// Classify applies the precedence rules to a provider payload; the first
// matching rule wins:
//  1. explicit cancelled flag
//  2. status "Cancelled"
//  3. status "Diverted" (reported as delayed)
//  4. reported delay > 15 minutes
//  5. actual departure more than 15 minutes after scheduled
//  6. otherwise on time
func Classify(p Payload) Result {
	d := domain.StatusDetails{
		FlightNumber:       p.Ident,
		ScheduledDeparture: p.ScheduledDeparture,
		EstimatedDeparture: p.EstimatedDeparture,
		ActualDeparture:    p.ActualDeparture,
		ScheduledArrival:   p.ScheduledArrival,
		EstimatedArrival:   p.EstimatedArrival,
		ActualArrival:      p.ActualArrival,
		Origin:             p.Origin,
		Destination:        p.Destination,
		AircraftType:       p.AircraftType,
		Operator:           p.Operator,
	}
	status := strings.TrimSpace(p.Status)

	switch {
	case p.Cancelled, strings.EqualFold(status, "Cancelled"):
		d.Message = "Flight cancelled"
		d.CancellationReason = p.CancellationReason
		if d.CancellationReason == "" {
			d.CancellationReason = "Cancelled by operator"
		}
		return Result{Status: domain.StatusCancelled, Details: d}

	case strings.EqualFold(status, "Diverted"):
		d.DivertedTo = p.DivertedTo
		if d.DivertedTo == "" {
			d.DivertedTo = p.Destination
		}
		d.Message = "Flight diverted"
		if d.DivertedTo != "" {
			d.Message += " to " + d.DivertedTo
		}
		return Result{Status: domain.StatusDelayed, Details: d}

	case p.DelayMinutes > int(delayThreshold/time.Minute):
		d.DelayMinutes = p.DelayMinutes
		d.DelayReason = "Operational delay"
		d.Message = fmt.Sprintf("Delayed %d minutes", p.DelayMinutes)
		return Result{Status: domain.StatusDelayed, Details: d}
	}

	sched, okS := ParseTimestamp(p.ScheduledDeparture)
	actual, okA := ParseTimestamp(p.ActualDeparture)
	if okS && okA {
		if diff := actual.Sub(sched); diff > delayThreshold {
			mins := int(math.Round(diff.Minutes()))
			d.DelayMinutes = mins
			d.DelayReason = "Late departure"
			d.Message = fmt.Sprintf("Departed %d minutes late", mins)
			return Result{Status: domain.StatusDelayed, Details: d}
		}
	}

	d.Message = "Flight is on time"
	if status != "" {
		d.Message += " (" + status + ")"
	}
	return Result{Status: domain.StatusOnTime, Details: d}
}
