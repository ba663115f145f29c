package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-flight-tracker/internal/domain"
)

// Memory is a process-local Store. Values are copied in and out, so callers
// never share a *domain.Flight with the map.
type Memory struct {
	mu      sync.RWMutex
	flights map[string]domain.Flight
	idem    map[string]domain.Idempotency
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		flights: make(map[string]domain.Flight),
		idem:    make(map[string]domain.Idempotency),
	}
}

func cloneFlight(f domain.Flight) domain.Flight {
	if f.LastChecked != nil {
		t := *f.LastChecked
		f.LastChecked = &t
	}
	return f
}

// CreateFlight assigns an ID and timestamps and stores a copy of f.
func (m *Memory) CreateFlight(_ context.Context, f *domain.Flight) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if f.Status == "" {
		f.Status = domain.StatusUnknown
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.flights[f.ID] = cloneFlight(*f)
	return nil
}

// GetFlight returns a copy of the flight, or ErrNotFound.
func (m *Memory) GetFlight(_ context.Context, id string) (*domain.Flight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.flights[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneFlight(f)
	return &out, nil
}

// UpdateFlight replaces the editable fields and status of an existing flight.
func (m *Memory) UpdateFlight(_ context.Context, f *domain.Flight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.flights[f.ID]
	if !ok {
		return ErrNotFound
	}
	f.CreatedAt = cur.CreatedAt
	f.UpdatedAt = time.Now().UTC()
	m.flights[f.ID] = cloneFlight(*f)
	return nil
}

// UpdateFlightStatus writes status and details; last_checked only when checkedAt is non-nil.
func (m *Memory) UpdateFlightStatus(_ context.Context, id string, status domain.FlightStatus, details domain.StatusDetails, checkedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.flights[id]
	if !ok {
		return ErrNotFound
	}
	cur.Status = status
	cur.StatusDetails = details
	if checkedAt != nil {
		t := checkedAt.UTC()
		cur.LastChecked = &t
	}
	cur.UpdatedAt = time.Now().UTC()
	m.flights[id] = cur
	return nil
}

// DeleteFlight removes a flight, or returns ErrNotFound.
func (m *Memory) DeleteFlight(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flights[id]; !ok {
		return ErrNotFound
	}
	delete(m.flights, id)
	return nil
}

func matches(f domain.Flight, filter Filter) bool {
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		hit := false
		for _, s := range []string{f.EmployeeName, f.FlightNumber, f.Origin, f.Destination} {
			if strings.Contains(strings.ToLower(s), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if filter.Status != "" && f.Status != filter.Status {
		return false
	}
	if e := strings.TrimSpace(filter.Employee); e != "" && !strings.EqualFold(f.EmployeeName, e) {
		return false
	}
	if filter.DepartFrom != nil && f.DepartureTime.Before(*filter.DepartFrom) {
		return false
	}
	if filter.DepartTo != nil && f.DepartureTime.After(*filter.DepartTo) {
		return false
	}
	return true
}

// ListFlights returns the flights matching filter ordered by departure.
func (m *Memory) ListFlights(_ context.Context, filter Filter) ([]domain.Flight, error) {
	m.mu.RLock()
	out := make([]domain.Flight, 0, len(m.flights))
	for _, f := range m.flights {
		if matches(f, filter) {
			out = append(out, cloneFlight(f))
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].DepartureTime.Equal(out[j].DepartureTime) {
			return out[i].DepartureTime.Before(out[j].DepartureTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteFlightsDepartedBefore removes flights departing before cutoff and returns the count.
func (m *Memory) DeleteFlightsDepartedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, f := range m.flights {
		if f.DepartureTime.Before(cutoff) {
			delete(m.flights, id)
			n++
		}
	}
	return n, nil
}

// Stats returns the flight count and the latest update time.
func (m *Memory) Stats(_ context.Context) (int64, *time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.flights) == 0 {
		return 0, nil, nil
	}
	var latest time.Time
	for _, f := range m.flights {
		if f.UpdatedAt.After(latest) {
			latest = f.UpdatedAt
		}
	}
	return int64(len(m.flights)), &latest, nil
}

// CountByStatus returns the number of flights per status.
func (m *Memory) CountByStatus(_ context.Context) (map[domain.FlightStatus]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[domain.FlightStatus]int64)
	for _, f := range m.flights {
		out[f.Status]++
	}
	return out, nil
}

func idemKey(route, key string) string { return route + "\x00" + key }

// GetIdempotency returns the unexpired record for route and key, or ErrNotFound.
func (m *Memory) GetIdempotency(_ context.Context, route, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.idem[idemKey(route, key)]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// SaveIdempotency records resourceID and status under route and key for ttl.
func (m *Memory) SaveIdempotency(_ context.Context, route, key, resourceID string, status int, ttl time.Duration) error {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	k := idemKey(route, key)
	if cur, ok := m.idem[k]; ok && cur.ExpiresAt.After(now) {
		return ErrDuplicate
	}
	m.idem[k] = domain.Idempotency{
		ID:         uuid.NewString(),
		Route:      route,
		Key:        key,
		ResourceID: resourceID,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	return nil
}

// DeleteExpiredIdempotency removes records expired at now.
func (m *Memory) DeleteExpiredIdempotency(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, rec := range m.idem {
		if !rec.ExpiresAt.After(now) {
			delete(m.idem, k)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }
