package disease

import (
	"context"
	"fmt"
	"math"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/imaging"
)

// Model is a loaded image classifier backend.
type Model interface {
	// Probabilities returns one probability per class for a single-sample batch.
	Probabilities(ctx context.Context, t imaging.Tensor) ([]float32, error)
	Close() error
}

// Snapshot pairs a backend with its label table. It is immutable once built.
type Snapshot struct {
	Labels []string
	Model  Model
}

// Argmax returns the index of the largest value. Ties go to the lowest
// index. Non-finite values are an error.
func Argmax(probs []float32) (int, error) {
	if len(probs) == 0 {
		return 0, fmt.Errorf("%w: empty output", ErrShapeMismatch)
	}
	best := 0
	for i, p := range probs {
		if math.IsNaN(float64(p)) || math.IsInf(float64(p), 0) {
			return 0, fmt.Errorf("%w: non-finite output at %d", ErrBadModel, i)
		}
		if p > probs[best] {
			best = i
		}
	}
	return best, nil
}

// Softmax converts logits to probabilities.
func Softmax(logits []float32) []float32 {
	maxV := math.Inf(-1)
	for _, v := range logits {
		maxV = math.Max(maxV, float64(v))
	}
	sum := 0.0
	exp := make([]float64, len(logits))
	for i, v := range logits {
		exp[i] = math.Exp(float64(v) - maxV)
		sum += exp[i]
	}
	out := make([]float32, len(logits))
	for i := range exp {
		out[i] = float32(exp[i] / sum)
	}
	return out
}

// isDistribution reports whether v already looks like probabilities.
func isDistribution(v []float32) bool {
	sum := 0.0
	for _, p := range v {
		if p < 0 || p > 1 {
			return false
		}
		sum += float64(p)
	}
	return math.Abs(sum-1) < 1e-3
}
