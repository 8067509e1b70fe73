package loadtest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Outcomes of a single call.
const (
	outcomeSuccess   = "success"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
	outcomeViolation = "violation"
)

var (
	errContract = errors.New("contract violation")
	months      = [6]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}
)

// confidenceRanges bounds /health-check confidence per status.
var confidenceRanges = map[string][2]float64{
	"healthy": {0.8, 1.0},
	"warning": {0.6, 0.8},
	"danger":  {0.5, 0.8},
}

type predictResponse struct {
	Crop   string      `json:"crop"`
	Yield  json.Number `json:"yield"`
	Price  json.Number `json:"price"`
	Status string      `json:"status"`
	Source string      `json:"source"`
}

type historyPoint struct {
	Month string      `json:"month"`
	Yield json.Number `json:"yield"`
}

type healthResponse struct {
	Status          string   `json:"status"`
	Confidence      float64  `json:"confidence"`
	Recommendations []string `json:"recommendations"`
}

// verify classifies a response. fallback reports a yield answer served
// without a trained model.
func verify(r Request, status int, body []byte) (outcome string, fallback bool, err error) {
	if r.Kind == KindMalformed {
		if status != StatusBadRequest {
			return outcomeFailed, false, fmt.Errorf("malformed request got status %d", status)
		}
		var e struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
			return outcomeViolation, false, fmt.Errorf("%w: 400 without error message", errContract)
		}
		return outcomeRejected, false, nil
	}
	if status != StatusOK {
		return outcomeFailed, false, fmt.Errorf("%s got status %d", r.Kind, status)
	}

	switch r.Kind {
	case KindPredict:
		fallback, err = verifyPrediction(r, body)
	case KindHistory:
		err = verifyHistory(body)
	case KindHealth:
		err = verifyHealth(body)
	default:
		err = fmt.Errorf("unknown request kind %q", r.Kind)
	}
	if err != nil {
		return outcomeViolation, fallback, err
	}
	return outcomeSuccess, fallback, nil
}

func decodeNumbers(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errContract, err)
	}
	return nil
}

func verifyPrediction(r Request, body []byte) (bool, error) {
	var p predictResponse
	if err := decodeNumbers(body, &p); err != nil {
		return false, err
	}
	fallback := p.Source == "fallback"
	if p.Crop != r.Crop {
		return fallback, fmt.Errorf("%w: crop %q for request %q", errContract, p.Crop, r.Crop)
	}
	if _, err := strconv.ParseInt(p.Yield.String(), 10, 64); err != nil {
		return fallback, fmt.Errorf("%w: yield %q is not an integer", errContract, p.Yield)
	}
	price, err := p.Price.Float64()
	if err != nil || math.Abs(math.Round(price*100)/100-price) > 1e-9 {
		return fallback, fmt.Errorf("%w: price %q is not rounded to cents", errContract, p.Price)
	}
	if _, ok := confidenceRanges[p.Status]; !ok {
		return fallback, fmt.Errorf("%w: unknown status %q", errContract, p.Status)
	}
	return fallback, nil
}

func verifyHistory(body []byte) error {
	var points []historyPoint
	if err := decodeNumbers(body, &points); err != nil {
		return err
	}
	if len(points) != len(months) {
		return fmt.Errorf("%w: %d points", errContract, len(points))
	}
	prev := int64(math.MinInt64)
	for i, p := range points {
		if p.Month != months[i] {
			return fmt.Errorf("%w: point %d is %q", errContract, i, p.Month)
		}
		v, err := strconv.ParseInt(p.Yield.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: yield %q is not an integer", errContract, p.Yield)
		}
		if v < prev {
			return fmt.Errorf("%w: series decreases at %s", errContract, p.Month)
		}
		prev = v
	}
	return nil
}

func verifyHealth(body []byte) error {
	var h healthResponse
	if err := json.Unmarshal(body, &h); err != nil {
		return fmt.Errorf("%w: %w", errContract, err)
	}
	bounds, ok := confidenceRanges[h.Status]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", errContract, h.Status)
	}
	if h.Confidence < bounds[0] || h.Confidence > bounds[1] {
		return fmt.Errorf("%w: confidence %.2f outside %v for %s", errContract, h.Confidence, bounds, h.Status)
	}
	if len(h.Recommendations) == 0 {
		return fmt.Errorf("%w: no recommendations", errContract)
	}
	return nil
}
