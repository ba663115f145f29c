package tracking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-flight-tracker/internal/domain"
)

type fakeProvider struct {
	payload *Payload
	err     error

	calls     int
	gotIdent  string
	gotDep    *time.Time
	deadlineS bool
}

func (f *fakeProvider) FetchFlight(ctx context.Context, ident string, dep *time.Time) (*Payload, error) {
	f.calls++
	f.gotIdent = ident
	f.gotDep = dep
	_, f.deadlineS = ctx.Deadline()
	return f.payload, f.err
}

func TestNormalizeAndParseIdent_RoundTrip(t *testing.T) {
	fn := NormalizeFlightNumber("aa 1234")
	if fn != "AA1234" {
		t.Fatalf("NormalizeFlightNumber = %q", fn)
	}
	id := ParseIdent(fn)
	if id.Airline != "AA" || id.Number != "1234" {
		t.Fatalf("ParseIdent = %+v", id)
	}
	if id.String() != "AA1234" {
		t.Fatalf("Ident.String() = %q", id.String())
	}
}

func TestParseIdent_Cases(t *testing.T) {
	cases := []struct {
		in, airline, number string
	}{
		{"UAL123", "UAL", "123"},
		{"dl\t42", "DL", "42"},
		{"B61234", "B6", "1234"}, // fallback: digit in airline code
		{"U2", "U2", ""},
		{"X", "X", ""},
	}
	for _, c := range cases {
		got := ParseIdent(c.in)
		if got.Airline != c.airline || got.Number != c.number {
			t.Errorf("ParseIdent(%q) = %+v; want %s/%s", c.in, got, c.airline, c.number)
		}
	}
}

func TestMock_DeterministicAndTable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, fn := range []string{"AA1234", "DL100", "UA1", "B61234"} {
		a := Mock(fn, now)
		b := Mock(fn, now.Add(time.Hour))
		if a.Status != b.Status || a.Details.DelayMinutes != b.Details.DelayMinutes {
			t.Errorf("mock for %s not deterministic: %+v vs %+v", fn, a, b)
		}
	}

	// "AA13" sums to 230 -> index 0.
	if MockIndex("AA13") != 0 {
		t.Fatalf("MockIndex(AA13) = %d", MockIndex("AA13"))
	}
	r := Mock("AA13", now)
	if r.Status != domain.StatusOnTime || r.Details.DelayMinutes != 0 {
		t.Fatalf("index 0 should be on-time/0, got %+v", r)
	}

	// "AA1230" sums to 328 -> index 8.
	if MockIndex("AA1230") != 8 {
		t.Fatalf("MockIndex(AA1230) = %d", MockIndex("AA1230"))
	}
	if r := Mock("AA1230", now); r.Status != domain.StatusCancelled {
		t.Fatalf("index 8 should be cancelled, got %+v", r)
	}

	want := []struct {
		status domain.FlightStatus
		delay  int
	}{
		{domain.StatusOnTime, 0},
		{domain.StatusOnTime, 0},
		{domain.StatusOnTime, 0},
		{domain.StatusOnTime, 0},
		{domain.StatusDelayed, 45},
		{domain.StatusDelayed, 120},
		{domain.StatusDelayed, 30},
		{domain.StatusOnTime, 0},
		{domain.StatusCancelled, 0},
		{domain.StatusOnTime, 0},
	}
	for i, w := range want {
		if e := mockTable[i]; e.status != w.status || e.delay != w.delay {
			t.Errorf("entry %d = %+v; want %s/%d", i, e, w.status, w.delay)
		}
	}

	// "AA1234" sums to 332 -> index 2.
	if r := Mock("AA1234", now); r.Status != domain.StatusOnTime || r.Details.DelayMinutes != 0 {
		t.Fatalf("index 2 should be on-time/0, got %+v", r)
	}
}

func TestMock_SynthesizedFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := Mock("AA1234", now).Details
	if d.Origin != "JFK" || d.Destination != "LAX" || !d.Mock || d.Note == "" {
		t.Fatalf("unexpected mock details: %+v", d)
	}
	if d.ScheduledDeparture != now.Add(2*time.Hour).Format(time.RFC3339) {
		t.Fatalf("scheduled departure = %s", d.ScheduledDeparture)
	}
	if d.EstimatedArrival != now.Add(8*time.Hour).Format(time.RFC3339) {
		t.Fatalf("estimated arrival = %s", d.EstimatedArrival)
	}
}

func TestClassify_Precedence(t *testing.T) {
	sched := "2026-03-01T10:00:00Z"
	cases := []struct {
		name      string
		p         Payload
		want      domain.FlightStatus
		wantDelay int
	}{
		{"cancelled flag beats delay", Payload{Cancelled: true, DelayMinutes: 120}, domain.StatusCancelled, 0},
		{"status cancelled", Payload{Status: "Cancelled"}, domain.StatusCancelled, 0},
		{"diverted", Payload{Status: "Diverted", DivertedTo: "SFO"}, domain.StatusDelayed, 0},
		{"delay exactly 15 is on time", Payload{DelayMinutes: 15}, domain.StatusOnTime, 0},
		{"delay 16 is delayed", Payload{DelayMinutes: 16}, domain.StatusDelayed, 16},
		{"late actual departure", Payload{ScheduledDeparture: sched, ActualDeparture: "2026-03-01T10:20:30Z"}, domain.StatusDelayed, 21},
		{"actual 15 minutes late is on time", Payload{ScheduledDeparture: sched, ActualDeparture: "2026-03-01T10:15:00Z"}, domain.StatusOnTime, 0},
		{"unparseable actual ignored", Payload{ScheduledDeparture: sched, ActualDeparture: "soon"}, domain.StatusOnTime, 0},
		{"plain", Payload{Status: "Scheduled"}, domain.StatusOnTime, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.p)
			if got.Status != c.want {
				t.Fatalf("status = %q; want %q", got.Status, c.want)
			}
			if got.Details.DelayMinutes != c.wantDelay {
				t.Fatalf("delay = %d; want %d", got.Details.DelayMinutes, c.wantDelay)
			}
		})
	}
}

func TestClassify_DetailsByKind(t *testing.T) {
	if d := Classify(Payload{Cancelled: true}).Details; d.CancellationReason == "" {
		t.Fatalf("cancelled should carry a reason: %+v", d)
	}
	if d := Classify(Payload{Status: "Diverted", DivertedTo: "SFO"}).Details; d.DivertedTo != "SFO" {
		t.Fatalf("diverted_to = %q", d.DivertedTo)
	}
	if d := Classify(Payload{DelayMinutes: 40}).Details; d.DelayReason == "" {
		t.Fatalf("delay should carry a reason: %+v", d)
	}
}

func TestResolver_MockWhenNoProvider(t *testing.T) {
	r := NewResolver(nil, time.Second)
	if r.Live() {
		t.Fatal("resolver without provider must not be live")
	}
	res, err := r.Resolve(context.Background(), "AA1230", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Status != domain.StatusCancelled || !res.Details.Mock {
		t.Fatalf("unexpected mock result: %+v", res)
	}
}

func TestResolver_ProviderOutcomes(t *testing.T) {
	dep := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("payload classified and ident derived", func(t *testing.T) {
		fp := &fakeProvider{payload: &Payload{Ident: "AA1234", DelayMinutes: 30}}
		r := NewResolver(fp, 10*time.Second)
		res, err := r.Resolve(context.Background(), "AA1234", &dep)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if res.Status != domain.StatusDelayed || fp.calls != 1 {
			t.Fatalf("res=%+v calls=%d", res, fp.calls)
		}
		if fp.gotIdent != "AA1234" || fp.gotDep == nil || !fp.gotDep.Equal(dep) {
			t.Fatalf("provider got ident=%q dep=%v", fp.gotIdent, fp.gotDep)
		}
		if !fp.deadlineS {
			t.Fatal("expected a per-call deadline")
		}
	})

	t.Run("empty result is unknown", func(t *testing.T) {
		r := NewResolver(&fakeProvider{}, 0)
		res, err := r.Resolve(context.Background(), "ZZ9", nil)
		if err != nil || res.Status != domain.StatusUnknown {
			t.Fatalf("res=%+v err=%v", res, err)
		}
		if res.Details.FlightNumber != "ZZ9" || res.Details.Message == "" {
			t.Fatalf("unknown details: %+v", res.Details)
		}
	})

	t.Run("not found folds into unknown", func(t *testing.T) {
		r := NewResolver(&fakeProvider{err: ErrProviderNotFound}, 0)
		res, err := r.Resolve(context.Background(), "ZZ9", nil)
		if err != nil || res.Status != domain.StatusUnknown {
			t.Fatalf("res=%+v err=%v", res, err)
		}
	})

	for _, fatal := range []error{ErrProviderAuth, ErrProviderRateLimited} {
		fatal := fatal
		t.Run("fatal "+fatal.Error(), func(t *testing.T) {
			r := NewResolver(&fakeProvider{err: fatal}, 0)
			_, err := r.Resolve(context.Background(), "AA1", nil)
			if !errors.Is(err, fatal) || !IsFatal(err) {
				t.Fatalf("expected fatal %v, got %v", fatal, err)
			}
		})
	}

	t.Run("other errors wrapped", func(t *testing.T) {
		boom := errors.New("connection reset")
		r := NewResolver(&fakeProvider{err: boom}, 0)
		_, err := r.Resolve(context.Background(), "AA1", nil)
		if !errors.Is(err, boom) || IsFatal(err) {
			t.Fatalf("expected wrapped non-fatal error, got %v", err)
		}
		if !strings.Contains(err.Error(), "AA1") {
			t.Fatalf("error should name the flight: %v", err)
		}
	})
}
