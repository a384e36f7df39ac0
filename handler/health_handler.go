package handler

import (
	"context"
	"go-bank-ledger/logger"
	"net/http"
	"time"
)

// HealthCheckFunc reports whether a dependency is reachable.
type HealthCheckFunc func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheckFunc
}

func NewHealthHandler(checks map[string]HealthCheckFunc) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheck godoc
// @Summary      Show the status of server
// @Description  get the status of server and its dependencies
// @Tags         health
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{"status": "API is healthy and running"}
	status := http.StatusOK
	if h != nil {
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				logger.Log.WithError(err).WithField("dependency", name).Warn("Health check failed")
				body[name] = "unavailable"
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}
	}

	writeJSON(w, status, body)
}
