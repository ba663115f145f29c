package tracking

import (
	"time"

	"github.com/tbourn/go-flight-tracker/internal/domain"
)

// MockNote is attached to every mock result.
const MockNote = "Mock data in use: set AEROAPI_KEY to query live flight status"

type mockEntry struct {
	status  domain.FlightStatus
	message string
	delay   int
}

// mockTable is indexed by MockIndex. Its order is observable behavior: the
// same flight number always lands on the same entry.
var mockTable = [10]mockEntry{
	{domain.StatusOnTime, "Flight is on schedule", 0},
	{domain.StatusOnTime, "Flight is on schedule", 0},
	{domain.StatusOnTime, "Flight is on schedule", 0},
	{domain.StatusOnTime, "Boarding on time", 0},
	{domain.StatusDelayed, "Delayed due to weather conditions", 45},
	{domain.StatusDelayed, "Delayed due to air traffic control", 120},
	{domain.StatusDelayed, "Delayed due to late arriving aircraft", 30},
	{domain.StatusOnTime, "Flight is on schedule", 0},
	{domain.StatusCancelled, "Flight cancelled", 0},
	{domain.StatusOnTime, "Departed on time", 0},
}

// MockIndex sums the character codes of flightNumber and reduces modulo 10.
func MockIndex(flightNumber string) int {
	sum := 0
	for _, r := range flightNumber {
		sum += int(r)
	}
	return sum % len(mockTable)
}

// Mock returns the deterministic stand-in result used when no provider
// credential is configured. Only the status, message and delay depend on the
// flight number; route and times are synthesized relative to now.
func Mock(flightNumber string, now time.Time) Result {
	e := mockTable[MockIndex(flightNumber)]
	now = now.UTC()
	d := domain.StatusDetails{
		FlightNumber:       flightNumber,
		Message:            e.message,
		DelayMinutes:       e.delay,
		Origin:             "JFK",
		Destination:        "LAX",
		ScheduledDeparture: now.Add(2 * time.Hour).Format(time.RFC3339),
		EstimatedArrival:   now.Add(8 * time.Hour).Format(time.RFC3339),
		Note:               MockNote,
		Mock:               true,
	}
	if e.status == domain.StatusCancelled {
		d.CancellationReason = e.message
	}
	return Result{Status: e.status, Details: d}
}
