package tracking

import (
	"strings"
	"time"

	"github.com/tbourn/go-flight-tracker/internal/domain"
)

// Monitoring thresholds.
const (
	monitorHorizon        = 7 * 24 * time.Hour
	monitorAfterArrival   = 6 * time.Hour
	cancelledRecheckLimit = 24 * time.Hour
)

// Past-ness thresholds, widest for the weakest signal.
const (
	pastAfterArrival          = 2 * time.Hour
	pastAfterScheduledArrival = 4 * time.Hour
	pastAfterDeparture        = 8 * time.Hour
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp parses a provider timestamp. Values without a zone are taken
// as UTC. ok is false for empty or unparseable input.
func ParseTimestamp(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ShouldMonitor reports whether the periodic updater should poll f now.
// All disqualifying checks apply independently:
//   - departure more than 7 days ahead
//   - actual arrival more than 6h ago
//   - estimated arrival more than 6h ago
//   - cancelled and last checked more than 24h ago
func ShouldMonitor(f *domain.Flight, now time.Time) bool {
	if f == nil {
		return false
	}
	if f.DepartureTime.Sub(now) > monitorHorizon {
		return false
	}
	if t, ok := ParseTimestamp(f.StatusDetails.ActualArrival); ok && now.Sub(t) > monitorAfterArrival {
		return false
	}
	if t, ok := ParseTimestamp(f.StatusDetails.EstimatedArrival); ok && now.Sub(t) > monitorAfterArrival {
		return false
	}
	if f.Status == domain.StatusCancelled && f.LastChecked != nil && now.Sub(*f.LastChecked) > cancelledRecheckLimit {
		return false
	}
	return true
}

// IsPast reports whether f should be hidden from default (active) views.
// The strongest arrival signal present decides; only when no arrival signal
// parses does the departure-time fallback apply:
//  1. actual arrival more than 2h ago
//  2. estimated arrival more than 2h ago
//  3. scheduled arrival more than 4h ago
//  4. departure more than 8h ago
//
// IsPast and ShouldMonitor are independent and may disagree.
func IsPast(f *domain.Flight, now time.Time) bool {
	if f == nil {
		return false
	}
	d := f.StatusDetails
	if t, ok := ParseTimestamp(d.ActualArrival); ok {
		return now.Sub(t) > pastAfterArrival
	}
	if t, ok := ParseTimestamp(d.EstimatedArrival); ok {
		return now.Sub(t) > pastAfterArrival
	}
	if t, ok := ParseTimestamp(d.ScheduledArrival); ok {
		return now.Sub(t) > pastAfterScheduledArrival
	}
	if f.DepartureTime.IsZero() {
		return false
	}
	return now.Sub(f.DepartureTime) > pastAfterDeparture
}
