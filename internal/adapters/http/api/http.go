// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/app"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

const defaultMaxUploadBytes = 10 << 20

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	PredictYield(ctx context.Context, in model.YieldInput) (model.PredictionResult, error)
	PredictDisease(ctx context.Context, up service.Upload) (model.DiseaseOutcome, error)
	HealthCheck(ctx context.Context) model.HealthReport
	HistoricalSeries(ctx context.Context, crop string) []model.HistoricalPoint
	Retrain(ctx context.Context) (service.ModelInfo, error)
	Recent(ctx context.Context, kind model.RecordKind, limit int) ([]model.Record, error)
	Models() service.ModelStatus
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	deps           Dependencies
	stats          StatsProvider
	maxUploadBytes int64
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, stats StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		stats:          stats,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(RequestID(s.Recover(h)), endpoint))
	}

	route("POST /predict", "predict", s.HandlePredict)
	route("POST /health-check", "health_check", s.HandleHealthCheck)
	route("GET /historical-data", "historical_data", s.HandleHistoricalData)
	route("POST /predict-disease", "predict_disease", s.HandlePredictDisease)
	route("GET /predictions", "predictions", s.HandleRecent)
	route("POST /admin/retrain", "retrain", s.HandleRetrain)
	route("GET /healthz", "healthz", s.HandleHealthz)
	route("GET /stats", "stats", s.HandleStats)
	mux.Handle("GET /metrics", MetricsHandler())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// fail maps a service error to its status and writes it. Internal errors
// are logged and reported without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", w.Header().Get(requestIDHeader)),
			logger.Error(err))
	}
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "invalid_input"
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, model.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType, "unsupported_image"
	case errors.Is(err, model.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "model_unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
