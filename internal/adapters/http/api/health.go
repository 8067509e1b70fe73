package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/app"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/metrics"
)

type healthzResponse struct {
	Status string              `json:"status"`
	Models service.ModelStatus `json:"models"`
}

// HandleHealthz handles GET /healthz. The process is live even when no
// model is loaded; the models block says which ones are.
func (s *Server) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthzResponse{Status: "ok", Models: s.deps.Models()})
}

// MetricsHandler serves the custom Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
