package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/crop"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
)

const (
	maxJSONBytes = 64 << 10
	defaultCrop  = crop.Wheat
	// maxWireYield is the largest magnitude JSON clients read as an exact integer.
	maxWireYield = 1 << 53
)

// yieldRequest mirrors the body of POST /predict. Numeric fields accept JSON
// numbers or numeric strings; absent or null fields take their defaults.
type yieldRequest struct {
	Crop        string          `json:"crop"`
	SoilQuality json.RawMessage `json:"soil_quality"`
	Rainfall    json.RawMessage `json:"rainfall"`
	Temperature json.RawMessage `json:"temperature"`
	Area        json.RawMessage `json:"area"`
	Fertilizer  json.RawMessage `json:"fertilizer"`
}

func (req yieldRequest) input() (model.YieldInput, error) {
	in := model.NewYieldInput(strings.TrimSpace(req.Crop))
	if in.Crop == "" {
		return in, fmt.Errorf("%w: missing crop", ErrBadRequest)
	}
	fields := []struct {
		name string
		raw  json.RawMessage
		dst  *float64
	}{
		{"soil_quality", req.SoilQuality, &in.SoilQuality},
		{"rainfall", req.Rainfall, &in.Rainfall},
		{"temperature", req.Temperature, &in.Temperature},
		{"area", req.Area, &in.Area},
		{"fertilizer", req.Fertilizer, &in.Fertilizer},
	}
	for _, f := range fields {
		if err := parseNumber(f.name, f.raw, f.dst); err != nil {
			return in, err
		}
	}
	return in, nil
}

// parseNumber leaves dst untouched for absent or null values.
func parseNumber(name string, raw json.RawMessage, dst *float64) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		*dst = f
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("%w: %s must be a number", ErrBadRequest, name)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("%w: %s must be a number, got %q", ErrBadRequest, name, s)
	}
	*dst = f
	return nil
}

type yieldResponse struct {
	Crop   string  `json:"crop"`
	Yield  int64   `json:"yield"`
	Price  float64 `json:"price"`
	Status string  `json:"status"`
	Source string  `json:"source"`
}

// HandlePredict handles POST /predict.
func (s *Server) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var req yieldRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.deps.PredictYield(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if math.IsNaN(res.Yield) || math.Abs(res.Yield) > maxWireYield {
		s.fail(w, r, fmt.Errorf("yield %g out of integer range", res.Yield))
		return
	}
	writeJSON(w, http.StatusOK, yieldResponse{
		Crop:   res.Crop,
		Yield:  int64(res.Yield),
		Price:  res.Price,
		Status: string(res.Status),
		Source: string(res.Source),
	})
}

type healthResponse struct {
	Status          string   `json:"status"`
	Confidence      float64  `json:"confidence"`
	Recommendations []string `json:"recommendations"`
}

// HandleHealthCheck handles POST /health-check. Any body is ignored.
func (s *Server) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	rep := s.deps.HealthCheck(r.Context())
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          string(rep.Status),
		Confidence:      rep.Confidence,
		Recommendations: rep.Recommendations,
	})
}

type historyPoint struct {
	Month string `json:"month"`
	Yield int    `json:"yield"`
}

// HandleHistoricalData handles GET /historical-data?crop=<name>.
func (s *Server) HandleHistoricalData(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("crop"))
	if name == "" {
		name = defaultCrop
	}
	series := s.deps.HistoricalSeries(r.Context(), name)
	out := make([]historyPoint, len(series))
	for i, p := range series {
		out[i] = historyPoint{Month: p.Month, Yield: p.Yield}
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body must be a JSON object", ErrBadRequest)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
