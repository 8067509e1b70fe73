// Package disease identifies plant disease from preprocessed leaf images.
package disease

import (
	"context"
	"fmt"
	"time"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/imaging"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/registry"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/metrics"
)

// Backends.
const (
	BackendNative = "native"
	BackendONNX   = "onnx"
)

// Classifier maps a tensor to the most likely disease label. The model is
// loaded lazily once; a failed load is retried by the next call.
type Classifier struct {
	models *registry.Registry[Snapshot]
	log    logger.Logger
}

// NewClassifier creates a classifier filled by load.
func NewClassifier(load registry.Loader[Snapshot], opts ...Option) *Classifier {
	c := &Classifier{log: logger.Get().Named("disease")}
	for _, opt := range opts {
		opt(c)
	}
	c.models = registry.New("disease", load, registry.WithLogger(c.log))
	return c
}

// Classify returns the arg-max label and its probability. A missing or
// unusable model fails with model.ErrModelUnavailable.
func (c *Classifier) Classify(ctx context.Context, t imaging.Tensor) (model.DiseaseResult, error) {
	const op = "disease.classify"
	snap, err := c.models.Get(ctx)
	if err != nil {
		return model.DiseaseResult{}, c.unavailable(ctx, op, err)
	}

	start := time.Now()
	probs, err := snap.Model.Probabilities(ctx, t)
	if err != nil {
		return model.DiseaseResult{}, c.unavailable(ctx, op, err)
	}
	metrics.RecordInferenceLatency("disease", float64(time.Since(start).Microseconds())/1000)
	if len(probs) != len(snap.Labels) {
		return model.DiseaseResult{}, model.Wrap(op, model.ErrModelUnavailable,
			fmt.Errorf("%w: %d outputs for %d labels", ErrShapeMismatch, len(probs), len(snap.Labels)))
	}
	best, err := Argmax(probs)
	if err != nil {
		return model.DiseaseResult{}, model.Wrap(op, model.ErrModelUnavailable, err)
	}
	return ParseLabel(snap.Labels[best], float64(probs[best])), nil
}

// unavailable wraps err as model.ErrModelUnavailable unless the caller gave
// up, in which case the context error is returned as is.
func (c *Classifier) unavailable(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return model.Wrap(op, model.ErrModelUnavailable, err)
}

// Warm loads the model without classifying anything.
func (c *Classifier) Warm(ctx context.Context) error {
	if _, err := c.models.Get(ctx); err != nil {
		return model.Wrap("disease.warm", model.ErrModelUnavailable, err)
	}
	return nil
}

// Loaded reports whether a model is being served.
func (c *Classifier) Loaded() bool {
	return c.models.Loaded()
}

// Close releases the loaded backend, if any.
func (c *Classifier) Close() error {
	if snap := c.models.Current(); snap != nil {
		return snap.Model.Close()
	}
	return nil
}

// LoaderConfig locates the persisted image model.
type LoaderConfig struct {
	Backend     string
	ModelPath   string
	LabelsPath  string
	LibraryPath string
}

// FileLoader builds snapshots from disk. Labels come from LabelsPath when
// set, then from the model itself, then from DefaultLabels.
func FileLoader(cfg LoaderConfig) registry.Loader[Snapshot] {
	return func(_ context.Context) (*Snapshot, error) {
		labels := DefaultLabels
		if cfg.LabelsPath != "" {
			l, err := LoadLabels(cfg.LabelsPath)
			if err != nil {
				return nil, err
			}
			labels = l
		}

		switch cfg.Backend {
		case BackendNative, "":
			m, err := LoadNative(cfg.ModelPath)
			if err != nil {
				return nil, err
			}
			if cfg.LabelsPath == "" && len(m.Labels) > 0 {
				labels = m.Labels
			}
			if m.Classes() != len(labels) {
				return nil, fmt.Errorf("%w: %d classes for %d labels", ErrShapeMismatch, m.Classes(), len(labels))
			}
			metrics.SetModelLoaded("disease", true)
			return &Snapshot{Labels: labels, Model: m}, nil
		case BackendONNX:
			m, err := LoadONNX(cfg.ModelPath, cfg.LibraryPath, len(labels))
			if err != nil {
				return nil, err
			}
			metrics.SetModelLoaded("disease", true)
			return &Snapshot{Labels: labels, Model: m}, nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
		}
	}
}
