// Flight HTTP handlers.
//
// This file exposes REST endpoints for tracked flights:
//   - GET    /flights              (list, paginated, weak ETag)
//   - GET    /flights/search       (filtered search)
//   - GET    /flights/summary      (counts per status)
//   - GET    /flights/{id}         (get)
//   - POST   /flights              (create, Idempotency-Key replay)
//   - PUT    /flights/{id}         (partial update)
//   - DELETE /flights/{id}         (delete)
//   - POST   /flights/{id}/refresh (manual status check)
//
// Handlers are transport-thin: they parse input, call the services, and
// translate results into envelopes.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-flight-tracker/internal/domain"
	"github.com/tbourn/go-flight-tracker/internal/http/middleware"
	"github.com/tbourn/go-flight-tracker/internal/importer"
	"github.com/tbourn/go-flight-tracker/internal/services"
	"github.com/tbourn/go-flight-tracker/internal/store"
	"github.com/tbourn/go-flight-tracker/internal/utils"
)

//
// Service contracts (context-aware)
//

// FlightService defines the flight operations consumed by the handlers.
type FlightService interface {
	Create(ctx context.Context, in services.FlightInput) (*domain.Flight, error)
	Get(ctx context.Context, id string) (*domain.Flight, error)
	Update(ctx context.Context, id string, p services.FlightPatch) (*domain.Flight, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q services.ListQuery) ([]domain.Flight, int, error)
	Search(ctx context.Context, q services.SearchQuery) ([]domain.Flight, error)
	Import(ctx context.Context, rows []importer.Row) (*services.ImportResult, error)
	Summary(ctx context.Context) (*services.Summary, error)
	// Stats returns the flight count and latest update time (for ETags).
	Stats(ctx context.Context) (int64, *time.Time, error)
}

// Refresher performs a manual single-flight status check.
type Refresher interface {
	Refresh(ctx context.Context, id string) (*domain.Flight, error)
}

// IdempotencyStore records completed creates so retries can be replayed.
type IdempotencyStore interface {
	GetIdempotency(ctx context.Context, route, key string, now time.Time) (*domain.Idempotency, error)
	SaveIdempotency(ctx context.Context, route, key, resourceID string, status int, ttl time.Duration) error
}

// Pinger reports store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

//
// Handler wiring
//

// Deps bundles what the handlers need.
type Deps struct {
	Flights        FlightService
	Tracker        Refresher
	Idempotency    IdempotencyStore
	Health         Pinger
	MockMode       bool
	MaxUploadBytes int64
	IdempotencyTTL time.Duration
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	svc       FlightService
	tracker   Refresher
	idem      IdempotencyStore
	health    Pinger
	mock      bool
	maxUpload int64
	idemTTL   time.Duration
	now       func() time.Time
}

// New constructs Handlers from d.
func New(d Deps) *Handlers {
	ttl := d.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handlers{
		svc:       d.Flights,
		tracker:   d.Tracker,
		idem:      d.Idempotency,
		health:    d.Health,
		mock:      d.MockMode,
		maxUpload: maxUpload,
		idemTTL:   ttl,
		now:       time.Now,
	}
}

//
// DTOs
//

// FlightRequest is the JSON payload for creating a flight.
type FlightRequest struct {
	EmployeeName  string `json:"employee_name" example:"Jane Doe"`
	FlightNumber  string `json:"flight_number" example:"AA 1234"`
	DepartureTime string `json:"departure_time" example:"2026-10-20T14:30:00Z"`
	Origin        string `json:"origin" example:"JFK"`
	Destination   string `json:"destination" example:"LAX"`
}

// UpdateFlightRequest is the JSON payload for a partial update; omitted
// fields are left unchanged.
type UpdateFlightRequest struct {
	EmployeeName  *string `json:"employee_name,omitempty"`
	FlightNumber  *string `json:"flight_number,omitempty"`
	DepartureTime *string `json:"departure_time,omitempty"`
	Origin        *string `json:"origin,omitempty"`
	Destination   *string `json:"destination,omitempty"`
}

// UploadResult reports a spreadsheet import.
type UploadResult struct {
	ImportedCount int                 `json:"imported_count"`
	ErrorCount    int                 `json:"error_count"`
	Imported      []domain.Flight     `json:"imported"`
	Errors        []services.RowError `json:"errors"`
}

//
// Helpers
//

// parseDeparture returns the zero time for blank input. Create treats that as
// "now"; an update that blanks the field is rejected by the service.
func parseDeparture(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := utils.ParseTime(s)
	if err != nil {
		return time.Time{}, services.ErrInvalidDeparture
	}
	return t, nil
}

func parseOptionalTime(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := utils.ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseStatusParam(s string) (domain.FlightStatus, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return services.ParseStatus(s)
}

// flightID reads the :id path param and checks it is a UUID.
func flightID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "flight id must be a UUID")
		return "", false
	}
	return id, true
}

// listETag derives a weak validator from the store state, the query and the
// current minute. The minute term is there because the active/past split
// moves with the clock even when no row changes.
func listETag(count int64, latest *time.Time, rawQuery string, now time.Time) string {
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(rawQuery))
	return fmt.Sprintf(`W/"flights:%d:%d:%d:%08x"`, count, ts, now.Unix()/60, h.Sum32())
}

//
// Handlers
//

// ListFlights godoc
// @ID          listFlights
// @Summary     List flights (paginated)
// @Description Returns a page of flights in the requested view. Active flights are ordered by departure; past flights most recent first. Supports weak ETag via If-None-Match.
// @Tags        Flights
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       view           query   string  false "active | past | all"  Enums(active, past, all) default(active)
// @Param       q              query   string  false "Free-text match on employee, flight number, airports"
// @Param       status         query   string  false "Status kind"  Enums(on-time, delayed, cancelled, checking, error, unknown)
// @Param       employee       query   string  false "Exact employee name (case-insensitive)"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(200) default(50)
//
// @Success     200  {object} handlers.Envelope{data=[]domain.Flight}
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /flights [get]
func (h *Handlers) ListFlights(c *gin.Context) {
	ctx := c.Request.Context()

	view, err := services.ParseView(c.Query("view"))
	if err != nil {
		failErr(c, err)
		return
	}
	status, err := parseStatusParam(c.Query("status"))
	if err != nil {
		failErr(c, err)
		return
	}
	page, pageSize := utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), 1),
		utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize),
	)

	// ETag pre-check (best effort).
	if count, latest, err := h.svc.Stats(ctx); err == nil {
		etag := listETag(count, latest, c.Request.URL.RawQuery, h.now())
		c.Header("ETag", etag)
		c.Header("Cache-Control", "no-cache")
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.svc.List(ctx, services.ListQuery{
		View:     view,
		Query:    c.Query("q"),
		Status:   status,
		Employee: c.Query("employee"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	okPage(c, items, newPagination(page, pageSize, total))
}

// SearchFlights godoc
// @ID          searchFlights
// @Summary     Search flights
// @Description Filters by free text, status and departure range. Past flights are excluded unless include_past is true.
// @Tags        Flights
// @Produce     json
// @Param       q             query string false "Free-text match"
// @Param       status        query string false "Status kind"
// @Param       from          query string false "Departure at or after (RFC3339 or YYYY-MM-DD)"
// @Param       to            query string false "Departure at or before (RFC3339 or YYYY-MM-DD)"
// @Param       include_past  query bool   false "Include past flights"
// @Success     200  {object} handlers.Envelope{data=[]domain.Flight}
// @Failure     400  {object} handlers.ErrorResponse
// @Router      /flights/search [get]
func (h *Handlers) SearchFlights(c *gin.Context) {
	status, err := parseStatusParam(c.Query("status"))
	if err != nil {
		failErr(c, err)
		return
	}
	from, err := parseOptionalTime(c.Query("from"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "from must be a date or timestamp")
		return
	}
	to, err := parseOptionalTime(c.Query("to"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "to must be a date or timestamp")
		return
	}
	includePast := false
	if v := c.Query("include_past"); v != "" {
		if includePast, err = strconv.ParseBool(v); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeValidation, "include_past must be a boolean")
			return
		}
	}

	items, err := h.svc.Search(c.Request.Context(), services.SearchQuery{
		Query:       c.Query("q"),
		Status:      status,
		From:        from,
		To:          to,
		IncludePast: includePast,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// FlightSummary godoc
// @ID          flightSummary
// @Summary     Flight counts
// @Description Counts per status kind plus the active/past split.
// @Tags        Flights
// @Produce     json
// @Success     200  {object} handlers.Envelope{data=services.Summary}
// @Router      /flights/summary [get]
func (h *Handlers) FlightSummary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}

// GetFlight godoc
// @ID          getFlight
// @Summary     Get a flight
// @Tags        Flights
// @Produce     json
// @Param       id   path  string  true  "Flight ID (UUID)"  format(uuid)
// @Success     200  {object} handlers.Envelope{data=domain.Flight}
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse
// @Router      /flights/{id} [get]
func (h *Handlers) GetFlight(c *gin.Context) {
	id, valid := flightID(c)
	if !valid {
		return
	}
	f, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}

// CreateFlight godoc
// @ID          createFlight
// @Summary     Track a new flight
// @Description Creates a flight in the unknown state; the next sweep or a manual refresh resolves it. A repeated Idempotency-Key returns the original flight.
// @Tags        Flights
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Deduplicates retries"
// @Param       body             body    handlers.FlightRequest  true  "Flight"
// @Success     201  {object} handlers.Envelope{data=domain.Flight}
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     409  {object} handlers.ErrorResponse
// @Router      /flights [post]
func (h *Handlers) CreateFlight(c *gin.Context) {
	ctx := c.Request.Context()
	key, hasKey := middleware.GetIdempotencyKey(c)
	route := middleware.RouteKey(c)

	if hasKey && middleware.IsReplay(c) && h.idem != nil {
		rec, err := h.idem.GetIdempotency(ctx, route, key, h.now().UTC())
		if err == nil {
			f, err := h.svc.Get(ctx, rec.ResourceID)
			if errors.Is(err, services.ErrFlightNotFound) {
				fail(c, http.StatusConflict, ErrCodeConflict, "Idempotency-Key was used for a flight that no longer exists")
				return
			}
			if err != nil {
				failErr(c, err)
				return
			}
			c.Header("Idempotent-Replay", "true")
			ok(c, rec.Status, f)
			return
		}
		// Expired between middleware and handler: treat as new.
	}

	var req FlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	dep, err := parseDeparture(req.DepartureTime)
	if err != nil {
		failErr(c, err)
		return
	}

	f, err := h.svc.Create(ctx, services.FlightInput{
		EmployeeName:  req.EmployeeName,
		FlightNumber:  req.FlightNumber,
		DepartureTime: dep,
		Origin:        req.Origin,
		Destination:   req.Destination,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	if hasKey && h.idem != nil {
		if err := h.idem.SaveIdempotency(ctx, route, key, f.ID, http.StatusCreated, h.idemTTL); err != nil {
			lvl := middleware.LoggerFrom(c).Error()
			if errors.Is(err, store.ErrDuplicate) {
				lvl = middleware.LoggerFrom(c).Warn()
			}
			lvl.Err(err).Str("flight_id", f.ID).Msg("idempotency record not saved")
		}
	}
	ok(c, http.StatusCreated, f)
}

// UpdateFlight godoc
// @ID          updateFlight
// @Summary     Update a flight
// @Description Partial update. Changing the flight number or departure resets the status to unknown.
// @Tags        Flights
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Flight ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateFlightRequest  true  "Fields to change"
// @Success     200  {object} handlers.Envelope{data=domain.Flight}
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse
// @Router      /flights/{id} [put]
func (h *Handlers) UpdateFlight(c *gin.Context) {
	id, valid := flightID(c)
	if !valid {
		return
	}
	var req UpdateFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p := services.FlightPatch{
		EmployeeName: req.EmployeeName,
		FlightNumber: req.FlightNumber,
		Origin:       req.Origin,
		Destination:  req.Destination,
	}
	if req.DepartureTime != nil {
		dep, err := parseDeparture(*req.DepartureTime)
		if err != nil {
			failErr(c, err)
			return
		}
		p.DepartureTime = &dep
	}

	f, err := h.svc.Update(c.Request.Context(), id, p)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}

// DeleteFlight godoc
// @ID          deleteFlight
// @Summary     Stop tracking a flight
// @Tags        Flights
// @Param       id   path  string  true  "Flight ID (UUID)"  format(uuid)
// @Success     200  {object} handlers.Envelope
// @Failure     404  {object} handlers.ErrorResponse
// @Router      /flights/{id} [delete]
func (h *Handlers) DeleteFlight(c *gin.Context) {
	id, valid := flightID(c)
	if !valid {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// RefreshFlight godoc
// @ID          refreshFlight
// @Summary     Check a flight's status now
// @Description Resolves the flight against the provider (or the mock table) and stores the result. Provider credential failures return 502; provider throttling returns 503 with Retry-After.
// @Tags        Flights
// @Produce     json
// @Param       id   path  string  true  "Flight ID (UUID)"  format(uuid)
// @Success     200  {object} handlers.Envelope{data=domain.Flight}
// @Failure     404  {object} handlers.ErrorResponse
// @Failure     502  {object} handlers.ErrorResponse
// @Failure     503  {object} handlers.ErrorResponse
// @Router      /flights/{id}/refresh [post]
func (h *Handlers) RefreshFlight(c *gin.Context) {
	id, valid := flightID(c)
	if !valid {
		return
	}
	f, err := h.tracker.Refresh(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}
