package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-flight-tracker/internal/http/middleware"
)

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status       string    `json:"status" example:"ok"`
	Store        string    `json:"store" example:"ok"`
	ProviderMode string    `json:"provider_mode" example:"mock"`
	Time         time.Time `json:"time"`
}

const healthPingTimeout = 2 * time.Second

// Health godoc
// @ID          health
// @Summary     Liveness and store reachability
// @Tags        Health
// @Produce     json
// @Success     200  {object} handlers.Envelope{data=handlers.HealthStatus}
// @Failure     503  {object} handlers.Envelope{data=handlers.HealthStatus}
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	hs := HealthStatus{
		Status:       "ok",
		Store:        "ok",
		ProviderMode: "live",
		Time:         h.now().UTC(),
	}
	if h.mock {
		hs.ProviderMode = "mock"
	}

	code := http.StatusOK
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("store ping failed")
			hs.Status = "degraded"
			hs.Store = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, Envelope{Success: code == http.StatusOK, Data: hs})
}
