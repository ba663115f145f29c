package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-flight-tracker/internal/domain"
	"github.com/tbourn/go-flight-tracker/internal/http/middleware"
	"github.com/tbourn/go-flight-tracker/internal/services"
	"github.com/tbourn/go-flight-tracker/internal/store"
	"github.com/tbourn/go-flight-tracker/internal/tracking"
)

// ---------- fakes ----------

type fakeRefresher struct {
	st  store.Store
	err error
}

func (f *fakeRefresher) Refresh(ctx context.Context, id string) (*domain.Flight, error) {
	if f.err != nil {
		return nil, f.err
	}
	fl, err := f.st.GetFlight(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, services.ErrFlightNotFound
	}
	if err != nil {
		return nil, err
	}
	fl.Status = domain.StatusOnTime
	return fl, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// ---------- harness ----------

type testEnv struct {
	r   *gin.Engine
	st  *store.Memory
	ref *fakeRefresher
	h   *Handlers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	ref := &fakeRefresher{st: st}
	h := New(Deps{
		Flights:        services.NewFlightService(st, zerolog.Nop()),
		Tracker:        ref,
		Idempotency:    st,
		Health:         st,
		MockMode:       true,
		MaxUploadBytes: 1 << 10,
		IdempotencyTTL: time.Hour,
	})

	lookup := func(ctx context.Context, route, key string, now time.Time) (bool, error) {
		_, err := st.GetIdempotency(ctx, route, key, now)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup))
	r.GET("/health", h.Health)
	g := r.Group("/api/flights")
	g.GET("", h.ListFlights)
	g.POST("", h.CreateFlight)
	g.GET("/search", h.SearchFlights)
	g.GET("/summary", h.FlightSummary)
	g.GET("/template", h.DownloadTemplate)
	g.POST("/upload", h.UploadFlights)
	g.GET("/:id", h.GetFlight)
	g.PUT("/:id", h.UpdateFlight)
	g.DELETE("/:id", h.DeleteFlight)
	g.POST("/:id/refresh", h.RefreshFlight)

	return &testEnv{r: r, st: st, ref: ref, h: h}
}

func (e *testEnv) do(method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

type flightEnvelope struct {
	Success bool          `json:"success"`
	Data    domain.Flight `json:"data"`
}

type listEnvelope struct {
	Success    bool            `json:"success"`
	Data       []domain.Flight `json:"data"`
	Pagination *Pagination     `json:"pagination"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v body=%s", err, w.Body.String())
	}
	return v
}

func futureDeparture() string {
	return time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute).Format(time.RFC3339)
}

func (e *testEnv) create(t *testing.T, name, number string) domain.Flight {
	t.Helper()
	w := e.do(http.MethodPost, "/api/flights", FlightRequest{
		EmployeeName:  name,
		FlightNumber:  number,
		DepartureTime: futureDeparture(),
		Origin:        "jfk",
		Destination:   "lax",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	return decode[flightEnvelope](t, w).Data
}

// ---------- tests ----------

func TestCreateAndGetFlight(t *testing.T) {
	e := newTestEnv(t)
	f := e.create(t, "Jane Doe", "aa 1234")

	if f.FlightNumber != "AA1234" || f.Origin != "JFK" || f.Status != domain.StatusUnknown {
		t.Fatalf("unexpected created flight: %+v", f)
	}
	if _, err := uuid.Parse(f.ID); err != nil {
		t.Fatalf("id not a uuid: %q", f.ID)
	}

	w := e.do(http.MethodGet, "/api/flights/"+f.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d", w.Code)
	}
	if got := decode[flightEnvelope](t, w).Data; got.ID != f.ID || got.EmployeeName != "Jane Doe" {
		t.Fatalf("get returned %+v", got)
	}
}

func TestCreateFlight_ValidationErrors(t *testing.T) {
	e := newTestEnv(t)
	cases := []struct {
		name string
		body FlightRequest
		msg  string
	}{
		{"missing employee", FlightRequest{FlightNumber: "AA1", DepartureTime: futureDeparture()}, services.ErrEmployeeRequired.Error()},
		{"missing number", FlightRequest{EmployeeName: "x", DepartureTime: futureDeparture()}, services.ErrFlightNumberRequired.Error()},
		{"bad departure", FlightRequest{EmployeeName: "x", FlightNumber: "AA1", DepartureTime: "someday"}, services.ErrInvalidDeparture.Error()},
		{"bad airport", FlightRequest{EmployeeName: "x", FlightNumber: "AA1", DepartureTime: futureDeparture(), Origin: "J-K"}, services.ErrInvalidAirport.Error()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/api/flights", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			resp := decode[ErrorResponse](t, w)
			if resp.Code != ErrCodeValidation || resp.Error != tc.msg || resp.RequestID == "" {
				t.Fatalf("unexpected error body: %+v", resp)
			}
		})
	}
}

func TestCreateFlight_DepartureDefaultsToNow(t *testing.T) {
	e := newTestEnv(t)
	before := time.Now().Add(-time.Second)
	w := e.do(http.MethodPost, "/api/flights", FlightRequest{EmployeeName: "x", FlightNumber: "AA1"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got := decode[flightEnvelope](t, w).Data; got.DepartureTime.Before(before) {
		t.Fatalf("departure not defaulted: %v", got.DepartureTime)
	}
}

func TestCreateFlight_MalformedJSON(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/flights", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != ErrCodeBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateFlight_IdempotentReplay(t *testing.T) {
	e := newTestEnv(t)
	body := FlightRequest{EmployeeName: "Jane", FlightNumber: "UA1", DepartureTime: futureDeparture()}
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "create-1"}

	w1 := e.do(http.MethodPost, "/api/flights", body, hdr)
	if w1.Code != http.StatusCreated {
		t.Fatalf("first status=%d", w1.Code)
	}
	w2 := e.do(http.MethodPost, "/api/flights", body, hdr)
	if w2.Code != http.StatusCreated {
		t.Fatalf("replay status=%d", w2.Code)
	}
	if w2.Header().Get("Idempotent-Replay") != "true" {
		t.Fatal("expected Idempotent-Replay header")
	}
	id1 := decode[flightEnvelope](t, w1).Data.ID
	id2 := decode[flightEnvelope](t, w2).Data.ID
	if id1 != id2 {
		t.Fatalf("replay returned a different flight: %s vs %s", id1, id2)
	}
	if n, _, _ := e.st.Stats(context.Background()); n != 1 {
		t.Fatalf("expected one stored flight, got %d", n)
	}

	// Deleting the flight makes the key stale.
	if w := e.do(http.MethodDelete, "/api/flights/"+id1, nil, nil); w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	w3 := e.do(http.MethodPost, "/api/flights", body, hdr)
	if w3.Code != http.StatusConflict {
		t.Fatalf("stale replay status=%d; want 409", w3.Code)
	}
}

func TestCreateFlight_BadIdempotencyKey(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/api/flights",
		FlightRequest{EmployeeName: "a", FlightNumber: "AA1", DepartureTime: futureDeparture()},
		map[string]string{middleware.HeaderIdempotencyKey: "has spaces"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestListFlights_PaginationAndETag(t *testing.T) {
	e := newTestEnv(t)
	fixed := time.Now()
	e.h.now = func() time.Time { return fixed }
	for _, n := range []string{"AA1", "AA2", "AA3"} {
		e.create(t, "Jane", n)
	}

	w := e.do(http.MethodGet, "/api/flights?page=1&page_size=2", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	env := decode[listEnvelope](t, w)
	if len(env.Data) != 2 || env.Pagination == nil || env.Pagination.Total != 3 ||
		env.Pagination.TotalPages != 2 || !env.Pagination.HasNext {
		t.Fatalf("unexpected page: %+v %+v", env.Data, env.Pagination)
	}

	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"flights:`) {
		t.Fatalf("unexpected ETag %q", etag)
	}
	w2 := e.do(http.MethodGet, "/api/flights?page=1&page_size=2", nil, map[string]string{"If-None-Match": etag})
	if w2.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w2.Code)
	}

	// A different query must not match.
	w3 := e.do(http.MethodGet, "/api/flights?page=2&page_size=2", nil, map[string]string{"If-None-Match": etag})
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200 for other page, got %d", w3.Code)
	}
}

func TestListFlights_InvalidParams(t *testing.T) {
	e := newTestEnv(t)
	for _, q := range []string{"view=later", "status=landed"} {
		w := e.do(http.MethodGet, "/api/flights?"+q, nil, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d", q, w.Code)
		}
	}
}

func TestListETag_ChangesWithInputs(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	latest := now.Add(-time.Minute)
	base := listETag(3, &latest, "view=active", now)

	if listETag(3, &latest, "view=active", now.Add(20*time.Second)) != base {
		t.Fatal("ETag should be stable within the same minute")
	}
	for name, other := range map[string]string{
		"count":  listETag(4, &latest, "view=active", now),
		"query":  listETag(3, &latest, "view=past", now),
		"minute": listETag(3, &latest, "view=active", now.Add(time.Minute)),
		"nil":    listETag(3, nil, "view=active", now),
	} {
		if other == base {
			t.Errorf("ETag did not change with %s", name)
		}
	}
}

func TestSearchFlights(t *testing.T) {
	e := newTestEnv(t)
	e.create(t, "Jane", "AA1")
	e.create(t, "Bob", "DL9")

	w := e.do(http.MethodGet, "/api/flights/search?q=dl9", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	env := decode[listEnvelope](t, w)
	if len(env.Data) != 1 || env.Data[0].EmployeeName != "Bob" {
		t.Fatalf("unexpected search result: %+v", env.Data)
	}

	for _, q := range []string{"from=soon", "to=later", "include_past=maybe"} {
		if w := e.do(http.MethodGet, "/api/flights/search?"+q, nil, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d", q, w.Code)
		}
	}
}

func TestFlightSummary(t *testing.T) {
	e := newTestEnv(t)
	e.create(t, "Jane", "AA1")

	w := e.do(http.MethodGet, "/api/flights/summary", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var env struct {
		Data services.Summary `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.Total != 1 || env.Data.Active != 1 || env.Data.ByStatus[domain.StatusUnknown] != 1 {
		t.Fatalf("unexpected summary: %+v", env.Data)
	}
}

func TestGetFlight_BadIDAndNotFound(t *testing.T) {
	e := newTestEnv(t)
	if w := e.do(http.MethodGet, "/api/flights/not-a-uuid", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status=%d", w.Code)
	}
	w := e.do(http.MethodGet, "/api/flights/"+uuid.NewString(), nil, nil)
	if w.Code != http.StatusNotFound || decode[ErrorResponse](t, w).Code != ErrCodeNotFound {
		t.Fatalf("missing id status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateFlight(t *testing.T) {
	e := newTestEnv(t)
	f := e.create(t, "Jane", "AA1")

	name := "Jane Q. Doe"
	w := e.do(http.MethodPut, "/api/flights/"+f.ID, UpdateFlightRequest{EmployeeName: &name}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got := decode[flightEnvelope](t, w).Data
	if got.EmployeeName != name || got.FlightNumber != "AA1" {
		t.Fatalf("unexpected update: %+v", got)
	}

	bad := "tomorrow-ish"
	if w := e.do(http.MethodPut, "/api/flights/"+f.ID, UpdateFlightRequest{DepartureTime: &bad}, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad departure status=%d", w.Code)
	}
	if w := e.do(http.MethodPut, "/api/flights/"+uuid.NewString(), UpdateFlightRequest{EmployeeName: &name}, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing flight status=%d", w.Code)
	}
}

func TestDeleteFlight(t *testing.T) {
	e := newTestEnv(t)
	f := e.create(t, "Jane", "AA1")

	if w := e.do(http.MethodDelete, "/api/flights/"+f.ID, nil, nil); w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	if w := e.do(http.MethodGet, "/api/flights/"+f.ID, nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", w.Code)
	}
	if w := e.do(http.MethodDelete, "/api/flights/"+f.ID, nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", w.Code)
	}
}

func TestRefreshFlight_ErrorMapping(t *testing.T) {
	e := newTestEnv(t)
	f := e.create(t, "Jane", "AA1")

	w := e.do(http.MethodPost, "/api/flights/"+f.ID+"/refresh", nil, nil)
	if w.Code != http.StatusOK || decode[flightEnvelope](t, w).Data.Status != domain.StatusOnTime {
		t.Fatalf("refresh status=%d body=%s", w.Code, w.Body.String())
	}

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{tracking.ErrProviderAuth, http.StatusBadGateway, ErrCodeProviderAuth},
		{tracking.ErrProviderRateLimited, http.StatusServiceUnavailable, ErrCodeProviderRateLimited},
		{services.ErrFlightNotFound, http.StatusNotFound, ErrCodeNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout},
		{errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		e.ref.err = tc.err
		w := e.do(http.MethodPost, "/api/flights/"+f.ID+"/refresh", nil, nil)
		if w.Code != tc.status {
			t.Errorf("%v: status=%d; want %d", tc.err, w.Code, tc.status)
			continue
		}
		resp := decode[ErrorResponse](t, w)
		if resp.Code != tc.code {
			t.Errorf("%v: code=%q; want %q", tc.err, resp.Code, tc.code)
		}
		if tc.code == ErrCodeInternal && strings.Contains(resp.Error, "disk") {
			t.Errorf("internal error leaked: %q", resp.Error)
		}
		if tc.status == http.StatusServiceUnavailable && w.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After=%q", w.Header().Get("Retry-After"))
		}
	}
}

// ---------- upload / template ----------

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/flights/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func TestUploadFlights_CSV(t *testing.T) {
	e := newTestEnv(t)
	dep := time.Now().UTC().Add(72 * time.Hour).Format("2006-01-02 15:04")
	csv := "Employee Name,Flight Number,Departure Time\n" +
		"Jane,AA1," + dep + "\n" +
		",AA2," + dep + "\n" +
		"Bob,DL3,not-a-date\n"

	w := e.upload(t, "flights.csv", []byte(csv))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var env struct {
		Data UploadResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.ImportedCount != 1 || env.Data.ErrorCount != 2 {
		t.Fatalf("unexpected result: %+v", env.Data)
	}
	if env.Data.Errors[0].Row != 3 || env.Data.Errors[1].Row != 4 {
		t.Fatalf("unexpected error rows: %+v", env.Data.Errors)
	}
}

func TestUploadFlights_Rejections(t *testing.T) {
	e := newTestEnv(t)

	if w := e.upload(t, "flights.txt", []byte("a,b")); w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("unsupported ext status=%d", w.Code)
	}
	if w := e.upload(t, "flights.csv", []byte("foo,bar\n1,2\n")); w.Code != http.StatusBadRequest ||
		decode[ErrorResponse](t, w).Code != ErrCodeBadSpreadsheet {
		t.Errorf("missing columns status=%d body=%s", w.Code, w.Body.String())
	}
	if w := e.upload(t, "flights.csv", bytes.Repeat([]byte("x"), 4<<10)); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized status=%d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/flights/upload", strings.NewReader(""))
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing file status=%d", w.Code)
	}
}

func TestDownloadTemplate(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/api/flights/template", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "flights_template.csv") ||
		!strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected headers: %v", w.Header())
	}
	if !strings.HasPrefix(w.Body.String(), "Employee Name,Flight Number,Departure Time") {
		t.Fatalf("unexpected body: %q", w.Body.String())
	}
}

// ---------- health ----------

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var env struct {
		Success bool         `json:"success"`
		Data    HealthStatus `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.Success || env.Data.Status != "ok" || env.Data.ProviderMode != "mock" {
		t.Fatalf("unexpected health: %+v", env)
	}

	e.h.health = fakePinger{err: errors.New("db gone")}
	e.h.mock = false
	w = e.do(http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status=%d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Success || env.Data.Store != "unreachable" || env.Data.ProviderMode != "live" {
		t.Fatalf("unexpected degraded health: %+v", env)
	}
}
