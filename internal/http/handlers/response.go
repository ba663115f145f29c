// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelope shared by every endpoint:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "data": { ... }, "pagination": { ... } }
//
//	HTTP/1.1 404 Not Found
//	{ "success": false, "error": "flight not found", "code": "not_found",
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000" }
//
// fail() logs 5xx responses with the request-scoped logger; ok() and
// okPage() write successes.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-flight-tracker/internal/http/middleware"
)

// ErrorResponse is the failure envelope. It is the same shape the middleware
// writes, so clients parse one error format.
type ErrorResponse = middleware.ErrorBody

// Envelope is the success wrapper.
type Envelope struct {
	Success    bool        `json:"success" example:"true"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination carries paging metadata for list responses.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

func newPagination(page, pageSize, total int) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// fail aborts the request with an ErrorResponse; 5xx are logged.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("error", msg).
			Msg("api error")
	}
	middleware.AbortError(c, status, code, msg)
}

// Fail is the exported variant of fail for router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func okPage(c *gin.Context, data any, p Pagination) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Pagination: &p})
}
