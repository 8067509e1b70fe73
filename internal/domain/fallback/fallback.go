// Package fallback synthesizes plausible predictions when no trained model
// is available. Outputs follow the same contract as real inference but come
// from baseline tables and random draws.
package fallback

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/crop"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
)

// Status thresholds over a uniform [0,1) draw.
const (
	healthyAbove = 0.7
	warningAbove = 0.3
)

var recommendations = map[model.HealthStatus][]string{
	model.StatusHealthy: {
		"Continue with current farming practices",
		"Regular monitoring for any changes",
		"Maintain irrigation schedule",
	},
	model.StatusWarning: {
		"Increase monitoring frequency",
		"Check for pest infestations",
		"Consider adjusting irrigation",
		"Apply organic pesticides if needed",
	},
	model.StatusDanger: {
		"Immediate intervention required",
		"Apply appropriate treatments",
		"Consult with agricultural expert",
		"Consider crop rotation for next season",
	},
}

// confidenceRange is [lo, lo+span] per status.
var confidenceRange = map[model.HealthStatus][2]float64{
	model.StatusHealthy: {0.8, 0.2},
	model.StatusWarning: {0.6, 0.2},
	model.StatusDanger:  {0.5, 0.3},
}

// Synthesizer draws mock values. It is safe for concurrent use.
type Synthesizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a synthesizer seeded from the clock unless WithSeed or
// WithSource is given.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // mock values, not security sensitive
	}
	return s
}

func (s *Synthesizer) float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// intRange draws uniformly from [lo, hi].
func (s *Synthesizer) intRange(lo, hi int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Intn(hi-lo+1)
}

// MockYield returns the crop's baseline yield scaled by U(0.9, 1.1).
func (s *Synthesizer) MockYield(name string) float64 {
	return crop.BaseYield(name) * (0.9 + 0.2*s.float())
}

// MockPrice applies the inverse yield/price relationship.
func (s *Synthesizer) MockPrice(name string, yield float64) float64 {
	return crop.Price(name, yield)
}

// MockHealthStatus draws a status independently of any prediction.
func (s *Synthesizer) MockHealthStatus() model.HealthStatus {
	return StatusFromDraw(s.float())
}

// StatusFromDraw maps a uniform draw: above 0.7 healthy, above 0.3
// warning, otherwise danger.
func StatusFromDraw(u float64) model.HealthStatus {
	switch {
	case u > healthyAbove:
		return model.StatusHealthy
	case u > warningAbove:
		return model.StatusWarning
	default:
		return model.StatusDanger
	}
}

// HealthConfidence draws a confidence from the status range, rounded to two
// decimals.
func (s *Synthesizer) HealthConfidence(status model.HealthStatus) float64 {
	r, ok := confidenceRange[status]
	if !ok {
		r = confidenceRange[model.StatusDanger]
	}
	return math.Round((r[0]+r[1]*s.float())*100) / 100
}

// Recommendations returns the fixed advice list for status.
func Recommendations(status model.HealthStatus) []string {
	src := recommendations[status]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// HealthReport draws a status, its confidence and the matching advice.
func (s *Synthesizer) HealthReport() model.HealthReport {
	status := s.MockHealthStatus()
	return model.HealthReport{
		Status:          status,
		Confidence:      s.HealthConfidence(status),
		Recommendations: Recommendations(status),
	}
}

// MockHistoricalSeries returns the fixed table for tabled crops. Other crops
// get a walk starting at 2000+U{0..2000} with five U{50..200} increments.
func (s *Synthesizer) MockHistoricalSeries(name string) []model.HistoricalPoint {
	values, ok := crop.History(name)
	if !ok {
		values[0] = 2000 + s.intRange(0, 2000)
		for i := 1; i < len(values); i++ {
			values[i] = values[i-1] + s.intRange(50, 200)
		}
	}
	out := make([]model.HistoricalPoint, len(values))
	for i, v := range values {
		out[i] = model.HistoricalPoint{Month: crop.Months[i], Yield: v}
	}
	return out
}
