// Package domain defines the persistence models for tracked flights and
// idempotent request bookkeeping. These types are mapped with GORM and are
// shared by the store, tracking, and HTTP layers.
package domain

import "time"

// FlightStatus is the classification produced by one status resolution.
type FlightStatus string

const (
	StatusOnTime    FlightStatus = "on-time"
	StatusDelayed   FlightStatus = "delayed"
	StatusCancelled FlightStatus = "cancelled"
	StatusChecking  FlightStatus = "checking"
	StatusError     FlightStatus = "error"
	StatusUnknown   FlightStatus = "unknown"
)

// AllStatuses lists every valid FlightStatus in display order.
var AllStatuses = []FlightStatus{
	StatusOnTime,
	StatusDelayed,
	StatusCancelled,
	StatusChecking,
	StatusError,
	StatusUnknown,
}

// Valid reports whether s is one of the six known kinds.
func (s FlightStatus) Valid() bool {
	for _, k := range AllStatuses {
		if s == k {
			return true
		}
	}
	return false
}

// StatusDetails carries provider-derived fields for the latest resolution.
// Timestamps are kept as received (RFC3339 strings) and parsed on demand, so
// a malformed value only disables the rule that reads it.
type StatusDetails struct {
	Message            string `json:"message,omitempty"`
	DelayMinutes       int    `json:"delay_minutes,omitempty"`
	DelayReason        string `json:"delay_reason,omitempty"`
	ScheduledDeparture string `json:"scheduled_departure,omitempty"`
	EstimatedDeparture string `json:"estimated_departure,omitempty"`
	ActualDeparture    string `json:"actual_departure,omitempty"`
	ScheduledArrival   string `json:"scheduled_arrival,omitempty"`
	EstimatedArrival   string `json:"estimated_arrival,omitempty"`
	ActualArrival      string `json:"actual_arrival,omitempty"`
	Origin             string `json:"origin,omitempty"`
	Destination        string `json:"destination,omitempty"`
	AircraftType       string `json:"aircraft_type,omitempty"`
	Operator           string `json:"operator,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	DivertedTo         string `json:"diverted_to,omitempty"`
	FlightNumber       string `json:"flight_number,omitempty"`
	Note               string `json:"note,omitempty"`
	Error              string `json:"error,omitempty"`
	Mock               bool   `json:"mock,omitempty"`
}

// Flight is one employee's tracked flight.
//
// Fields:
//   - ID: UUID primary key, assigned on creation and never reused.
//   - EmployeeName: free-text traveler label (required).
//   - FlightNumber: normalized form, uppercase without whitespace (e.g. "AA1234").
//   - DepartureTime: planned departure in UTC.
//   - Origin / Destination: optional uppercase airport codes.
//   - Status / StatusDetails: result of the latest resolution.
//   - LastChecked: time of the latest resolution attempt; nil if never checked.
type Flight struct {
	ID            string        `json:"id"             gorm:"type:char(36);primaryKey"`
	EmployeeName  string        `json:"employee_name"  gorm:"type:varchar(255);not null;index:idx_flights_employee"`
	FlightNumber  string        `json:"flight_number"  gorm:"type:varchar(16);not null;index:idx_flights_number"`
	DepartureTime time.Time     `json:"departure_time" gorm:"not null;index:idx_flights_departure"`
	Origin        string        `json:"origin"         gorm:"type:varchar(8)"`
	Destination   string        `json:"destination"    gorm:"type:varchar(8)"`
	Status        FlightStatus  `json:"status"         gorm:"type:varchar(16);not null;default:'unknown';index:idx_flights_status"`
	StatusDetails StatusDetails `json:"status_details" gorm:"type:text;serializer:json"`
	LastChecked   *time.Time    `json:"last_checked,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TableName returns the database table name for Flight.
func (Flight) TableName() string { return "flights" }
