package handlers

import (
	"net/http"

	"taskapi/internal/logger"

	"go.uber.org/zap"
)

const serviceName = "task-api"

type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler принимает проверки по имени компонента ("tasks", "users").
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	for name, check := range h.checks {
		if err := check.HealthCheck(r.Context()); err != nil {
			logger.Error("HTTP: Health check не пройден", err, zap.String("component", name))
			responseWithJSON(w, http.StatusServiceUnavailable,
				toPayload("status", "unavailable"),
				toPayload("service", serviceName))
			return
		}
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", serviceName))
}
