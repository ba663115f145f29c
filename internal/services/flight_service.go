// Package services – FlightService
//
// This file implements FlightService, which owns the lifecycle of tracked
// flights: validation and normalization at the boundary, CRUD through the
// store, list views split by past-ness, filtered search, spreadsheet import
// with per-row errors, and the status summary.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-flight-tracker/internal/domain"
	"github.com/tbourn/go-flight-tracker/internal/importer"
	"github.com/tbourn/go-flight-tracker/internal/store"
	"github.com/tbourn/go-flight-tracker/internal/tracking"
	"github.com/tbourn/go-flight-tracker/internal/utils"
)

// AwaitingMessage is the status message of a flight that was never checked.
const AwaitingMessage = "Awaiting first status check"

const maxEmployeeRunes = 255

var (
	whitespaceRE   = regexp.MustCompile(`\s+`)
	flightNumberRE = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)
	airportRE      = regexp.MustCompile(`^[A-Z0-9]{3,4}$`)
)

// View selects flights by past-ness.
type View string

const (
	ViewActive View = "active"
	ViewPast   View = "past"
	ViewAll    View = "all"
)

// ParseView maps a query value to a View; empty means ViewActive.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return ViewActive, nil
	case ViewActive, ViewPast, ViewAll:
		return v, nil
	default:
		return "", ErrInvalidView
	}
}

// ParseStatus maps a query value to a FlightStatus; empty means no filter.
func ParseStatus(s string) (domain.FlightStatus, error) {
	st := domain.FlightStatus(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return "", nil
	}
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// FlightInput is the user-supplied part of a flight.
type FlightInput struct {
	EmployeeName  string
	FlightNumber  string
	DepartureTime time.Time
	Origin        string
	Destination   string
}

// FlightPatch is a partial update; nil fields are left unchanged.
type FlightPatch struct {
	EmployeeName  *string
	FlightNumber  *string
	DepartureTime *time.Time
	Origin        *string
	Destination   *string
}

// ListQuery parameterizes List.
type ListQuery struct {
	View     View
	Query    string
	Status   domain.FlightStatus
	Employee string
	Page     int
	PageSize int
}

// SearchQuery parameterizes Search.
type SearchQuery struct {
	Query       string
	Status      domain.FlightStatus
	From        *time.Time
	To          *time.Time
	IncludePast bool
}

// RowError reports one rejected import row.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult is the outcome of a spreadsheet import.
type ImportResult struct {
	Imported []domain.Flight `json:"imported"`
	Errors   []RowError      `json:"errors"`
}

// Summary counts flights per status kind and by past-ness.
type Summary struct {
	Total    int64                         `json:"total"`
	Active   int64                         `json:"active"`
	Past     int64                         `json:"past"`
	ByStatus map[domain.FlightStatus]int64 `json:"by_status"`
}

// FlightService provides flight CRUD, listing, search, import and summary.
type FlightService struct {
	Store store.Store
	Log   zerolog.Logger
	// Now is the clock used for past-ness; defaults to time.Now.
	Now func() time.Time
}

// NewFlightService constructs a FlightService over st.
func NewFlightService(st store.Store, log zerolog.Logger) *FlightService {
	return &FlightService{Store: st, Log: log, Now: time.Now}
}

func (s *FlightService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func tracer() trace.Tracer { return otel.Tracer("services/FlightService") }

// normalizeEmployee applies NFC, trims, collapses whitespace, and clips.
func normalizeEmployee(s string) string {
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(norm.NFC.String(s)), " ")
	if utf8.RuneCountInString(s) > maxEmployeeRunes {
		s = string([]rune(s)[:maxEmployeeRunes])
	}
	return s
}

func normalizeAirport(s string) (string, error) {
	s = tracking.NormalizeAirport(s)
	if s != "" && !airportRE.MatchString(s) {
		return "", ErrInvalidAirport
	}
	return s, nil
}

// validate normalizes in and reports the first validation failure.
func validate(in FlightInput) (FlightInput, error) {
	in.EmployeeName = normalizeEmployee(in.EmployeeName)
	if in.EmployeeName == "" {
		return in, ErrEmployeeRequired
	}
	in.FlightNumber = tracking.NormalizeFlightNumber(in.FlightNumber)
	if in.FlightNumber == "" {
		return in, ErrFlightNumberRequired
	}
	if !flightNumberRE.MatchString(in.FlightNumber) {
		return in, ErrInvalidFlightNumber
	}
	if in.DepartureTime.IsZero() {
		return in, ErrDepartureRequired
	}
	in.DepartureTime = in.DepartureTime.UTC()

	var err error
	if in.Origin, err = normalizeAirport(in.Origin); err != nil {
		return in, err
	}
	if in.Destination, err = normalizeAirport(in.Destination); err != nil {
		return in, err
	}
	return in, nil
}

func newFlight(in FlightInput) *domain.Flight {
	return &domain.Flight{
		EmployeeName:  in.EmployeeName,
		FlightNumber:  in.FlightNumber,
		DepartureTime: in.DepartureTime,
		Origin:        in.Origin,
		Destination:   in.Destination,
		Status:        domain.StatusUnknown,
		StatusDetails: domain.StatusDetails{Message: AwaitingMessage},
	}
}

// Create validates in and persists a new flight in the unknown state.
func (s *FlightService) Create(ctx context.Context, in FlightInput) (*domain.Flight, error) {
	ctx, span := tracer().Start(ctx, "Create",
		trace.WithAttributes(attribute.String("flight.number", in.FlightNumber)),
	)
	defer span.End()

	if in.DepartureTime.IsZero() {
		in.DepartureTime = s.now()
	}
	in, err := validate(in)
	if err != nil {
		return nil, err
	}
	f := newFlight(in)
	if err := s.Store.CreateFlight(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Get returns a flight by ID.
func (s *FlightService) Get(ctx context.Context, id string) (*domain.Flight, error) {
	ctx, span := tracer().Start(ctx, "Get", trace.WithAttributes(attribute.String("flight.id", id)))
	defer span.End()

	f, err := s.Store.GetFlight(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrFlightNotFound
	}
	return f, err
}

// Update applies p to flight id. Changing the flight number or departure
// time resets the status to unknown, since the previous result described a
// different flight.
func (s *FlightService) Update(ctx context.Context, id string, p FlightPatch) (*domain.Flight, error) {
	ctx, span := tracer().Start(ctx, "Update", trace.WithAttributes(attribute.String("flight.id", id)))
	defer span.End()

	f, err := s.Store.GetFlight(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrFlightNotFound
	}
	if err != nil {
		return nil, err
	}

	in := FlightInput{
		EmployeeName:  f.EmployeeName,
		FlightNumber:  f.FlightNumber,
		DepartureTime: f.DepartureTime,
		Origin:        f.Origin,
		Destination:   f.Destination,
	}
	if p.EmployeeName != nil {
		in.EmployeeName = *p.EmployeeName
	}
	if p.FlightNumber != nil {
		in.FlightNumber = *p.FlightNumber
	}
	if p.DepartureTime != nil {
		in.DepartureTime = *p.DepartureTime
	}
	if p.Origin != nil {
		in.Origin = *p.Origin
	}
	if p.Destination != nil {
		in.Destination = *p.Destination
	}
	if in, err = validate(in); err != nil {
		return nil, err
	}

	identityChanged := in.FlightNumber != f.FlightNumber || !in.DepartureTime.Equal(f.DepartureTime)
	f.EmployeeName = in.EmployeeName
	f.FlightNumber = in.FlightNumber
	f.DepartureTime = in.DepartureTime
	f.Origin = in.Origin
	f.Destination = in.Destination
	if identityChanged {
		f.Status = domain.StatusUnknown
		f.StatusDetails = domain.StatusDetails{Message: AwaitingMessage}
		f.LastChecked = nil
	}

	if err := s.Store.UpdateFlight(ctx, f); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes flight id.
func (s *FlightService) Delete(ctx context.Context, id string) error {
	ctx, span := tracer().Start(ctx, "Delete", trace.WithAttributes(attribute.String("flight.id", id)))
	defer span.End()

	err := s.Store.DeleteFlight(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrFlightNotFound
	}
	return err
}

// List returns one page of flights in the requested view, ordered by
// departure time, and the total number of flights in that view.
func (s *FlightService) List(ctx context.Context, q ListQuery) ([]domain.Flight, int, error) {
	ctx, span := tracer().Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("view", string(q.View)),
			attribute.Int("page", q.Page),
			attribute.Int("page_size", q.PageSize),
		),
	)
	defer span.End()

	if q.View == "" {
		q.View = ViewActive
	}
	all, err := s.Store.ListFlights(ctx, store.Filter{Query: q.Query, Status: q.Status, Employee: q.Employee})
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	items := all[:0]
	for _, f := range all {
		past := tracking.IsPast(&f, now)
		if q.View == ViewAll || (q.View == ViewPast) == past {
			items = append(items, f)
		}
	}
	if q.View == ViewPast {
		// most recent first
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	page, size := utils.ClampPage(q.Page, q.PageSize)
	start, end := utils.Window(page, size, len(items))
	return items[start:end], len(items), nil
}

// Search filters flights by free text, status and departure range. Past
// flights are excluded unless IncludePast is set.
func (s *FlightService) Search(ctx context.Context, q SearchQuery) ([]domain.Flight, error) {
	ctx, span := tracer().Start(ctx, "Search",
		trace.WithAttributes(attribute.String("query", q.Query), attribute.Bool("include_past", q.IncludePast)),
	)
	defer span.End()

	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, ErrInvalidRange
	}
	all, err := s.Store.ListFlights(ctx, store.Filter{Query: q.Query, Status: q.Status, DepartFrom: q.From, DepartTo: q.To})
	if err != nil {
		return nil, err
	}
	if q.IncludePast {
		return all, nil
	}
	now := s.now()
	out := all[:0]
	for _, f := range all {
		if !tracking.IsPast(&f, now) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Import creates one flight per valid row. Invalid rows are reported by line
// number and do not stop the batch; a store failure does.
func (s *FlightService) Import(ctx context.Context, rows []importer.Row) (*ImportResult, error) {
	ctx, span := tracer().Start(ctx, "Import", trace.WithAttributes(attribute.Int("rows", len(rows))))
	defer span.End()

	res := &ImportResult{Imported: []domain.Flight{}, Errors: []RowError{}}
	for _, row := range rows {
		in := FlightInput{
			EmployeeName: row.Get(importer.FieldEmployee),
			FlightNumber: row.Get(importer.FieldFlightNumber),
			Origin:       row.Get(importer.FieldOrigin),
			Destination:  row.Get(importer.FieldDestination),
		}
		if raw := row.Get(importer.FieldDepartureTime); raw != "" {
			t, err := utils.ParseTime(raw)
			if err != nil {
				res.Errors = append(res.Errors, RowError{Row: row.Line, Error: ErrInvalidDeparture.Error() + ": " + raw})
				continue
			}
			in.DepartureTime = t
		} else {
			in.DepartureTime = s.now()
		}

		in, err := validate(in)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row.Line, Error: err.Error()})
			continue
		}
		f := newFlight(in)
		if err := s.Store.CreateFlight(ctx, f); err != nil {
			return res, err
		}
		res.Imported = append(res.Imported, *f)
	}

	s.Log.Info().
		Int("imported", len(res.Imported)).
		Int("rejected", len(res.Errors)).
		Msg("flight import finished")
	return res, nil
}

// Summary returns counts per status kind (all six present) and the
// active/past split.
func (s *FlightService) Summary(ctx context.Context) (*Summary, error) {
	ctx, span := tracer().Start(ctx, "Summary")
	defer span.End()

	counts, err := s.Store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.Store.ListFlights(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}

	sum := &Summary{ByStatus: make(map[domain.FlightStatus]int64, len(domain.AllStatuses))}
	for _, k := range domain.AllStatuses {
		sum.ByStatus[k] = counts[k]
	}
	now := s.now()
	for i := range all {
		if tracking.IsPast(&all[i], now) {
			sum.Past++
		} else {
			sum.Active++
		}
	}
	sum.Total = int64(len(all))
	return sum, nil
}

// Stats exposes the store's count and latest update time for ETags.
func (s *FlightService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return s.Store.Stats(ctx)
}
