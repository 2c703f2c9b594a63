package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"checkout-flow-api/utils"
)

// Pinger is satisfied by the rate limiter's Redis connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	startTime time.Time
	redis     Pinger
}

// NewHealthHandler builds the health endpoint. redis may be nil when rate
// limiting is disabled.
func NewHealthHandler(redis Pinger) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), redis: redis}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	health := struct {
		Status    string `json:"status"`
		Time      string `json:"time"`
		Redis     string `json:"redis"`
		Uptime    string `json:"uptime"`
		GoVersion string `json:"go_version"`
	}{
		Status:    "ok",
		Time:      time.Now().Format(time.RFC3339),
		Redis:     "disabled",
		Uptime:    fmt.Sprintf("%v", time.Since(h.startTime)),
		GoVersion: runtime.Version(),
	}

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		health.Redis = "connected"
		if err := h.redis.Ping(ctx); err != nil {
			health.Status = "degraded"
			health.Redis = "error"
		}
	}

	utils.SendSuccessResponse(w, health)
}
