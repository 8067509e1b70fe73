// Package tabular serves the crop yield regressor: bundle persistence,
// synthetic training and lazily initialized inference.
package tabular

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/features"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/registry"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/metrics"
)

const metricsModel = "tabular"

// Predictor estimates crop yield from a persisted or freshly trained bundle.
// The bundle is loaded once on first use; concurrent first calls share that
// load, and with auto-training enabled at most one training run happens.
type Predictor struct {
	path      string
	autoTrain bool
	train     TrainConfig
	encoder   *features.Encoder
	log       logger.Logger

	models *registry.Registry[Bundle]
	runs   atomic.Int64
}

// NewPredictor creates a predictor backed by the bundle at path.
func NewPredictor(path string, opts ...Option) *Predictor {
	p := &Predictor{
		path:      path,
		autoTrain: true,
		train:     TrainConfig{Seed: DefaultSeed, Samples: DefaultSamples, Lambda: DefaultLambda},
		encoder:   features.NewEncoder(),
		log:       logger.Get().Named("tabular"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.models = registry.New("tabular", p.loadOrTrain, registry.WithLogger(p.log))
	return p
}

// Predict returns the yield estimate for in. Malformed input fails with
// model.ErrInvalidInput before any model work; a missing or unusable model
// fails with model.ErrModelUnavailable.
func (p *Predictor) Predict(ctx context.Context, in model.YieldInput) (float64, error) {
	const op = "tabular.predict"
	if err := features.Validate(in); err != nil {
		return 0, err
	}
	b, err := p.models.Get(ctx)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	vec, err := p.encoder.Encode(in, b.FeatureNames)
	if err != nil {
		return 0, err
	}
	y := b.Regressor.Predict(b.Scaler.Transform(vec.Values))
	metrics.RecordInferenceLatency("yield", float64(time.Since(start).Microseconds())/1000)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, model.Wrap(op, model.ErrModelUnavailable, fmt.Errorf("non-finite estimate for %q", in.Crop))
	}
	return y, nil
}

// Warm loads or trains the bundle without serving a request.
func (p *Predictor) Warm(ctx context.Context) error {
	_, err := p.models.Get(ctx)
	return err
}

// Retrain fits a fresh bundle, persists it and swaps it in atomically.
func (p *Predictor) Retrain(ctx context.Context) (*Bundle, error) {
	b, err := p.models.Replace(ctx, p.trainAndPersist)
	if err != nil {
		return nil, model.Wrap("tabular.retrain", model.ErrModelUnavailable, err)
	}
	return b, nil
}

// TrainingRuns counts training executions since construction.
func (p *Predictor) TrainingRuns() int64 {
	return p.runs.Load()
}

// Loaded reports whether a bundle is being served.
func (p *Predictor) Loaded() bool {
	return p.models.Loaded()
}

// Current returns the served bundle or nil.
func (p *Predictor) Current() *Bundle {
	return p.models.Current()
}

func (p *Predictor) loadOrTrain(ctx context.Context) (*Bundle, error) {
	const op = "tabular.load"
	b, err := LoadBundle(p.path)
	switch {
	case err == nil:
		metrics.SetModelLoaded(metricsModel, true)
		p.log.Info(ctx, "yield model loaded",
			logger.String("path", p.path),
			logger.String("version", b.Version),
			logger.Int("features", len(b.FeatureNames)))
		return b, nil
	case !errors.Is(err, ErrBundleNotFound):
		return nil, model.Wrap(op, model.ErrModelUnavailable, err)
	case !p.autoTrain:
		return nil, model.Wrap(op, model.ErrModelUnavailable, err)
	}

	p.log.Info(ctx, "no yield model on disk, training one", logger.String("path", p.path))
	b, err = p.trainAndPersist(ctx)
	if err != nil {
		return nil, model.Wrap(op, model.ErrModelUnavailable, err)
	}
	return b, nil
}

func (p *Predictor) trainAndPersist(ctx context.Context) (*Bundle, error) {
	p.runs.Add(1)
	start := time.Now()
	b, err := Train(p.train)
	if err == nil {
		err = b.Save(p.path)
	}
	took := time.Since(start)
	if err != nil {
		metrics.RecordTrainingRun("failure", float64(took.Milliseconds()))
		p.log.Error(ctx, "yield model training failed",
			logger.String("path", p.path),
			logger.Duration("took", took),
			logger.Error(err))
		return nil, err
	}
	metrics.RecordTrainingRun("success", float64(took.Milliseconds()))
	metrics.SetModelLoaded(metricsModel, true)
	p.log.Info(ctx, "yield model trained",
		logger.String("path", p.path),
		logger.String("version", b.Version),
		logger.Float64("train_r2", b.Metrics.TrainR2),
		logger.Float64("test_r2", b.Metrics.TestR2),
		logger.Duration("took", took))
	return b, nil
}
