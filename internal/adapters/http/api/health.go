package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler serves liveness and the Prometheus scrape endpoint.
type HealthHandler struct {
	gatherer prometheus.Gatherer
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(g prometheus.Gatherer) *HealthHandler {
	return &HealthHandler{gatherer: g}
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics serves GET /metrics from the configured registry.
func (h *HealthHandler) Metrics() http.Handler {
	return promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})
}
