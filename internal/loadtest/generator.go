package loadtest

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

// crops mixes catalog crops with open-world names.
var crops = []string{"wheat", "rice", "corn", "soybeans", "cotton", "sugarcane", "quinoa", "millet"}

// generateRequests draws a deterministic request mix from cfg.Seed.
func generateRequests(ctx context.Context, cfg *Config, stats *Stats) []Request {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // load generation, not security sensitive

	out := make([]Request, cfg.Requests)
	for i := range out {
		name := crops[rng.Intn(len(crops))]
		r := Request{ID: uuid.NewString(), Crop: name}
		switch p := rng.Intn(PercentageMultiplier); {
		case p < malformedPercent:
			r.Kind = KindMalformed
			r.Body = map[string]any{"crop": name, "soil_quality": "abc"}
		case p < malformedPercent+historyPercent:
			r.Kind = KindHistory
		case p < malformedPercent+historyPercent+healthPercent:
			r.Kind = KindHealth
		default:
			r.Kind = KindPredict
			r.Body = predictBody(rng, name)
		}
		out[i] = r
	}

	stats.Generated = len(out)
	logger.Get().Info(ctx, "requests generated", logger.Int("count", len(out)), logger.Int64("seed", seed))
	return out
}

// predictBody omits some fields and sends some as strings to exercise the
// defaults and the lenient number parsing.
func predictBody(rng *rand.Rand, name string) map[string]any {
	body := map[string]any{"crop": name}
	fields := []struct {
		name     string
		min, max float64
	}{
		{"soil_quality", 1, 10},
		{"rainfall", 200, 2000},
		{"temperature", 5, 40},
		{"area", 0.5, 50},
		{"fertilizer", 0, 300},
	}
	for _, f := range fields {
		switch rng.Intn(4) {
		case 0:
			continue
		case 1:
			body[f.name] = strconv.FormatFloat(f.min+rng.Float64()*(f.max-f.min), 'f', 2, 64)
		default:
			body[f.name] = f.min + rng.Float64()*(f.max-f.min)
		}
	}
	return body
}
