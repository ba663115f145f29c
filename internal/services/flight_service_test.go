package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-flight-tracker/internal/domain"
	"github.com/tbourn/go-flight-tracker/internal/importer"
	"github.com/tbourn/go-flight-tracker/internal/store"
)

var refNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newFlightSvc(t *testing.T) (*FlightService, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	s := NewFlightService(st, zerolog.Nop())
	s.Now = func() time.Time { return refNow }
	return s, st
}

func strp(s string) *string { return &s }

func TestFlightService_Create_NormalizesAndStartsUnknown(t *testing.T) {
	s, _ := newFlightSvc(t)
	f, err := s.Create(context.Background(), FlightInput{
		EmployeeName:  "  Jane   Doe ",
		FlightNumber:  "aa 1234",
		DepartureTime: refNow.Add(3 * time.Hour),
		Origin:        " jfk",
		Destination:   "lax ",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.EmployeeName != "Jane Doe" || f.FlightNumber != "AA1234" || f.Origin != "JFK" || f.Destination != "LAX" {
		t.Fatalf("not normalized: %+v", f)
	}
	if f.Status != domain.StatusUnknown || f.StatusDetails.Message != AwaitingMessage || f.LastChecked != nil {
		t.Fatalf("unexpected initial status: %+v", f)
	}
}

func TestFlightService_Create_DefaultsDepartureToNow(t *testing.T) {
	s, _ := newFlightSvc(t)
	f, err := s.Create(context.Background(), FlightInput{EmployeeName: "Jane", FlightNumber: "AA1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !f.DepartureTime.Equal(refNow) {
		t.Fatalf("departure = %v; want %v", f.DepartureTime, refNow)
	}

	// Blanking the departure on update is still an error.
	if _, err := s.Update(context.Background(), f.ID, FlightPatch{DepartureTime: &time.Time{}}); !errors.Is(err, ErrDepartureRequired) {
		t.Fatalf("blank departure on update: %v", err)
	}
}

func TestFlightService_Create_Validation(t *testing.T) {
	s, st := newFlightSvc(t)
	dep := refNow.Add(time.Hour)
	cases := []struct {
		in   FlightInput
		want error
	}{
		{FlightInput{FlightNumber: "AA1", DepartureTime: dep}, ErrEmployeeRequired},
		{FlightInput{EmployeeName: "J", DepartureTime: dep}, ErrFlightNumberRequired},
		{FlightInput{EmployeeName: "J", FlightNumber: "AA-1", DepartureTime: dep}, ErrInvalidFlightNumber},
		{FlightInput{EmployeeName: "J", FlightNumber: "AA1", DepartureTime: dep, Origin: "NEWYORK"}, ErrInvalidAirport},
	}
	for _, c := range cases {
		if _, err := s.Create(context.Background(), c.in); !errors.Is(err, c.want) {
			t.Errorf("Create(%+v) err = %v; want %v", c.in, err, c.want)
		}
	}
	if n, _, _ := st.Stats(context.Background()); n != 0 {
		t.Fatalf("invalid input must not persist anything, got %d rows", n)
	}
}

func TestFlightService_GetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s, st := newFlightSvc(t)
	f, _ := s.Create(ctx, FlightInput{EmployeeName: "Jane", FlightNumber: "AA1", DepartureTime: refNow.Add(time.Hour)})

	checked := refNow
	_ = st.UpdateFlightStatus(ctx, f.ID, domain.StatusDelayed, domain.StatusDetails{DelayMinutes: 30}, &checked)

	// Name-only edit keeps the status.
	got, err := s.Update(ctx, f.ID, FlightPatch{EmployeeName: strp("Jane Q")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.EmployeeName != "Jane Q" || got.Status != domain.StatusDelayed {
		t.Fatalf("name edit: %+v", got)
	}

	// Flight number edit resets status.
	got, err = s.Update(ctx, f.ID, FlightPatch{FlightNumber: strp("dl 9")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.FlightNumber != "DL9" || got.Status != domain.StatusUnknown || got.LastChecked != nil {
		t.Fatalf("identity edit should reset status: %+v", got)
	}

	if _, err := s.Update(ctx, f.ID, FlightPatch{EmployeeName: strp("  ")}); !errors.Is(err, ErrEmployeeRequired) {
		t.Fatalf("blank name: %v", err)
	}
	if _, err := s.Update(ctx, "nope", FlightPatch{}); !errors.Is(err, ErrFlightNotFound) {
		t.Fatalf("missing: %v", err)
	}

	if err := s.Delete(ctx, f.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, f.ID); !errors.Is(err, ErrFlightNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}
	if err := s.Delete(ctx, f.ID); !errors.Is(err, ErrFlightNotFound) {
		t.Fatalf("Delete twice: %v", err)
	}
}

func seedViews(t *testing.T, s *FlightService, st *store.Memory) (active, past *domain.Flight) {
	t.Helper()
	ctx := context.Background()
	active, _ = s.Create(ctx, FlightInput{EmployeeName: "Jane", FlightNumber: "AA1", DepartureTime: refNow.Add(2 * time.Hour)})
	past, _ = s.Create(ctx, FlightInput{EmployeeName: "John", FlightNumber: "DL2", DepartureTime: refNow.Add(-10 * time.Hour)})
	arrived := refNow.Add(-3 * time.Hour).Format(time.RFC3339)
	_ = st.UpdateFlightStatus(ctx, past.ID, domain.StatusOnTime, domain.StatusDetails{ActualArrival: arrived}, nil)
	return active, past
}

func TestFlightService_List_Views(t *testing.T) {
	ctx := context.Background()
	s, st := newFlightSvc(t)
	active, past := seedViews(t, s, st)

	items, total, err := s.List(ctx, ListQuery{})
	if err != nil || total != 1 || items[0].ID != active.ID {
		t.Fatalf("active view: %+v %d %v", items, total, err)
	}
	items, total, _ = s.List(ctx, ListQuery{View: ViewPast})
	if total != 1 || items[0].ID != past.ID {
		t.Fatalf("past view: %+v", items)
	}
	_, total, _ = s.List(ctx, ListQuery{View: ViewAll})
	if total != 2 {
		t.Fatalf("all view total = %d", total)
	}
	items, total, _ = s.List(ctx, ListQuery{View: ViewAll, Page: 2, PageSize: 1})
	if total != 2 || len(items) != 1 || items[0].ID != active.ID {
		t.Fatalf("page 2: %+v", items)
	}
	_, total, _ = s.List(ctx, ListQuery{View: ViewAll, Query: "jane"})
	if total != 1 {
		t.Fatalf("query filter total = %d", total)
	}
}

func TestParseViewAndStatus(t *testing.T) {
	if v, err := ParseView(""); err != nil || v != ViewActive {
		t.Fatalf("default view: %v %v", v, err)
	}
	if v, err := ParseView("PAST"); err != nil || v != ViewPast {
		t.Fatalf("past: %v %v", v, err)
	}
	if _, err := ParseView("future"); !errors.Is(err, ErrInvalidView) {
		t.Fatalf("bad view: %v", err)
	}
	if st, err := ParseStatus("On-Time"); err != nil || st != domain.StatusOnTime {
		t.Fatalf("status: %v %v", st, err)
	}
	if _, err := ParseStatus("late"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("bad status: %v", err)
	}
}

func TestFlightService_Search(t *testing.T) {
	ctx := context.Background()
	s, st := newFlightSvc(t)
	active, _ := seedViews(t, s, st)

	got, err := s.Search(ctx, SearchQuery{})
	if err != nil || len(got) != 1 || got[0].ID != active.ID {
		t.Fatalf("default search: %+v %v", got, err)
	}
	got, _ = s.Search(ctx, SearchQuery{IncludePast: true})
	if len(got) != 2 {
		t.Fatalf("include past: %d", len(got))
	}
	from := refNow.Add(-24 * time.Hour)
	to := refNow
	got, _ = s.Search(ctx, SearchQuery{From: &from, To: &to, IncludePast: true})
	if len(got) != 1 || got[0].FlightNumber != "DL2" {
		t.Fatalf("range: %+v", got)
	}
	if _, err := s.Search(ctx, SearchQuery{From: &to, To: &from}); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("inverted range: %v", err)
	}
}

func TestFlightService_Import_PartialSuccess(t *testing.T) {
	s, _ := newFlightSvc(t)
	rows := []importer.Row{
		{Line: 2, Fields: map[string]string{"employee_name": "Jane", "flight_number": "aa100", "departure_time": "2026-10-20 08:30", "origin": "jfk"}},
		{Line: 3, Fields: map[string]string{"flight_number": "DL1", "departure_time": "2026-10-20 08:30"}},
		{Line: 4, Fields: map[string]string{"employee_name": "John", "flight_number": "UA9", "departure_time": "whenever"}},
		{Line: 5, Fields: map[string]string{"employee_name": "Ann", "flight_number": "B6 12", "departure_time": "2026-10-21T09:00:00Z"}},
	}
	res, err := s.Import(context.Background(), rows)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Imported) != 2 || len(res.Errors) != 2 {
		t.Fatalf("imported=%d errors=%d", len(res.Imported), len(res.Errors))
	}
	if res.Imported[0].FlightNumber != "AA100" || res.Imported[0].Origin != "JFK" ||
		!res.Imported[0].DepartureTime.Equal(time.Date(2026, 10, 20, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("first import: %+v", res.Imported[0])
	}
	if res.Errors[0].Row != 3 || res.Errors[0].Error != ErrEmployeeRequired.Error() {
		t.Fatalf("row 3 error: %+v", res.Errors[0])
	}
	if res.Errors[1].Row != 4 {
		t.Fatalf("row 4 error: %+v", res.Errors[1])
	}
}

func TestFlightService_Summary(t *testing.T) {
	s, st := newFlightSvc(t)
	seedViews(t, s, st)
	sum, err := s.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 2 || sum.Active != 1 || sum.Past != 1 {
		t.Fatalf("summary: %+v", sum)
	}
	if len(sum.ByStatus) != len(domain.AllStatuses) || sum.ByStatus[domain.StatusUnknown] != 1 || sum.ByStatus[domain.StatusOnTime] != 1 {
		t.Fatalf("by status: %v", sum.ByStatus)
	}
}
