// Package aeroapi is a small client for a FlightAware AeroAPI style flight
// status endpoint. It implements tracking.Provider: it fetches recent
// activity for an ident, picks the flight closest to the requested departure,
// and maps HTTP failures onto the tracking error kinds.
//
// The client does no logging and no retries; callers own both.
package aeroapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tbourn/go-flight-tracker/internal/tracking"
)

const (
	// DefaultBaseURL is the public AeroAPI v4 root.
	DefaultBaseURL = "https://aeroapi.flightaware.com/aeroapi"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// Client queries the provider. The zero value is not usable; use NewClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (tests point it at httptest servers).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient returns a client authenticating with apiKey. The default
// transport is wrapped with otelhttp so provider calls show up in traces.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		userAgent:  "go-flight-tracker/1.0",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type airport struct {
	Code     string `json:"code"`
	CodeIATA string `json:"code_iata"`
	CodeICAO string `json:"code_icao"`
}

func (a *airport) best() string {
	if a == nil {
		return ""
	}
	switch {
	case a.CodeIATA != "":
		return a.CodeIATA
	case a.Code != "":
		return a.Code
	default:
		return a.CodeICAO
	}
}

// flight mirrors the subset of the provider's flight object we consume.
type flight struct {
	Ident          string   `json:"ident"`
	IdentIATA      string   `json:"ident_iata"`
	Status         string   `json:"status"`
	Cancelled      bool     `json:"cancelled"`
	Diverted       bool     `json:"diverted"`
	DepartureDelay *int     `json:"departure_delay"` // seconds
	ScheduledOut   string   `json:"scheduled_out"`
	EstimatedOut   string   `json:"estimated_out"`
	ActualOut      string   `json:"actual_out"`
	ScheduledIn    string   `json:"scheduled_in"`
	EstimatedIn    string   `json:"estimated_in"`
	ActualIn       string   `json:"actual_in"`
	Origin         *airport `json:"origin"`
	Destination    *airport `json:"destination"`
	AircraftType   string   `json:"aircraft_type"`
	Operator       string   `json:"operator"`
	OperatorIATA   string   `json:"operator_iata"`
}

type flightsResponse struct {
	Flights []flight `json:"flights"`
}

// FetchFlight implements tracking.Provider.
func (c *Client) FetchFlight(ctx context.Context, ident string, departure *time.Time) (*tracking.Payload, error) {
	u, err := url.Parse(c.baseURL + "/flights/" + url.PathEscape(ident))
	if err != nil {
		return nil, fmt.Errorf("build provider url: %w", err)
	}
	q := u.Query()
	q.Set("max_pages", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, tracking.ErrProviderAuth
	case http.StatusTooManyRequests:
		return nil, tracking.ErrProviderRateLimited
	case http.StatusNotFound:
		return nil, tracking.ErrProviderNotFound
	default:
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}
	var out flightsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if len(out.Flights) == 0 {
		return nil, nil
	}

	f := pickFlight(out.Flights, departure)
	return toPayload(f), nil
}

// pickFlight returns the flight whose scheduled departure is nearest to
// departure, or the first flight when departure is nil or no schedule parses.
func pickFlight(flights []flight, departure *time.Time) flight {
	best := flights[0]
	if departure == nil {
		return best
	}
	bestDiff := time.Duration(math.MaxInt64)
	for _, f := range flights {
		t, ok := tracking.ParseTimestamp(f.ScheduledOut)
		if !ok {
			continue
		}
		diff := t.Sub(*departure)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = f, diff
		}
	}
	return best
}

func toPayload(f flight) *tracking.Payload {
	p := &tracking.Payload{
		Ident:              f.IdentIATA,
		Status:             f.Status,
		Cancelled:          f.Cancelled,
		ScheduledDeparture: f.ScheduledOut,
		EstimatedDeparture: f.EstimatedOut,
		ActualDeparture:    f.ActualOut,
		ScheduledArrival:   f.ScheduledIn,
		EstimatedArrival:   f.EstimatedIn,
		ActualArrival:      f.ActualIn,
		Origin:             f.Origin.best(),
		Destination:        f.Destination.best(),
		AircraftType:       f.AircraftType,
		Operator:           f.OperatorIATA,
	}
	if p.Ident == "" {
		p.Ident = f.Ident
	}
	if p.Operator == "" {
		p.Operator = f.Operator
	}
	if f.Diverted {
		p.Status = "Diverted"
		p.DivertedTo = p.Destination
	}
	if f.DepartureDelay != nil {
		p.DelayMinutes = int(math.Round(float64(*f.DepartureDelay) / 60))
	}
	return p
}
