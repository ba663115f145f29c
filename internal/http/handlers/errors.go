// Package handlers defines the stable, machine-readable error codes returned
// in the `code` field of failure envelopes, and the mapping from service and
// provider errors to HTTP statuses.
//
// Clients branch on codes; messages are for humans.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-flight-tracker/internal/importer"
	"github.com/tbourn/go-flight-tracker/internal/services"
	"github.com/tbourn/go-flight-tracker/internal/tracking"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_failed"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodePayloadTooLarge  = "payload_too_large"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeUnavailable      = "unavailable"
	ErrCodeTimeout          = "timeout"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeProviderAuth        = "provider_auth"
	ErrCodeProviderRateLimited = "provider_rate_limited"
	ErrCodeUnsupportedFile     = "unsupported_file"
	ErrCodeBadSpreadsheet      = "bad_spreadsheet"
)

// providerRetryAfter is advertised when the provider throttles a refresh.
const providerRetryAfter = 60

var validationErrors = []error{
	services.ErrEmployeeRequired,
	services.ErrFlightNumberRequired,
	services.ErrInvalidFlightNumber,
	services.ErrDepartureRequired,
	services.ErrInvalidDeparture,
	services.ErrInvalidAirport,
	services.ErrInvalidStatus,
	services.ErrInvalidView,
	services.ErrInvalidRange,
}

// failErr maps err to a status and code and aborts. Unknown errors become a
// generic 500 so internals never leak to clients.
func failErr(c *gin.Context, err error) {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			fail(c, http.StatusBadRequest, ErrCodeValidation, v.Error())
			return
		}
	}
	switch {
	case errors.Is(err, services.ErrFlightNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "flight not found")
	case errors.Is(err, tracking.ErrProviderAuth):
		fail(c, http.StatusBadGateway, ErrCodeProviderAuth, "flight status provider rejected credentials")
	case errors.Is(err, tracking.ErrProviderRateLimited):
		c.Header("Retry-After", strconv.Itoa(providerRetryAfter))
		fail(c, http.StatusServiceUnavailable, ErrCodeProviderRateLimited, "flight status provider rate limit exceeded")
	case errors.Is(err, importer.ErrUnsupportedFormat):
		fail(c, http.StatusUnsupportedMediaType, ErrCodeUnsupportedFile, err.Error())
	case errors.Is(err, importer.ErrNoHeader), errors.Is(err, importer.ErrMissingColumns):
		fail(c, http.StatusBadRequest, ErrCodeBadSpreadsheet, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusGatewayTimeout, ErrCodeTimeout, "request timed out")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
