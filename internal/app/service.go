// Package service orchestrates yield and disease prediction behind the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/cache"
	recordqueue "github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/mq/queue"
	workerpool "github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/mq/worker"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/repository"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/crop"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/disease"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/fallback"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/features"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/imaging"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/tabular"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// YieldPredictor estimates crop yield. tabular.Predictor implements it.
type YieldPredictor interface {
	Predict(ctx context.Context, in model.YieldInput) (float64, error)
	Retrain(ctx context.Context) (*tabular.Bundle, error)
	Loaded() bool
}

// DiseaseClassifier labels a leaf tensor. disease.Classifier implements it.
type DiseaseClassifier interface {
	Classify(ctx context.Context, t imaging.Tensor) (model.DiseaseResult, error)
	Loaded() bool
}

// ImageDecoder turns upload bytes into a model tensor.
type ImageDecoder interface {
	DecodeBytes(data []byte) (imaging.Tensor, error)
}

// UploadStore keeps uploaded images and returns their relative path.
type UploadStore interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// Upload is a leaf image submitted for classification.
type Upload struct {
	Filename string
	Data     []byte
}

// ModelInfo describes a freshly trained yield model.
type ModelInfo struct {
	Version   string    `json:"version"`
	Features  []string  `json:"features"`
	TrainR2   float64   `json:"train_r2"`
	TestR2    float64   `json:"test_r2"`
	Samples   int       `json:"samples"`
	TrainedAt time.Time `json:"trained_at"`
}

// ModelStatus reports which models are being served.
type ModelStatus struct {
	Tabular bool `json:"tabular"`
	Disease bool `json:"disease"`
}

// Service implements the API dependencies for the prediction system.
type Service struct {
	mu sync.RWMutex

	// Core components
	predictor   YieldPredictor
	classifier  DiseaseClassifier
	decoder     ImageDecoder
	synth       *fallback.Synthesizer
	recorder    repository.Recorder
	cache       cache.DiseaseCache
	uploads     UploadStore
	placeholder bool

	// Record pipeline
	queue       *recordqueue.InMemoryQueue
	workerPool  *workerpool.Pool
	workerCount int
	queueSize   int

	// State
	started bool

	logger logger.Logger
}

// New constructs a Service. Without a predictor every yield request is
// served by the fallback; without a classifier disease requests get the
// placeholder or fail, depending on WithPlaceholder.
func New(opts ...Option) *Service {
	s := &Service{
		decoder:     imaging.NewPreprocessor(),
		synth:       fallback.New(),
		recorder:    repository.NopRecorder{},
		placeholder: true,
		workerCount: 2,
		queueSize:   1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start launches the record pipeline. The pool outlives ctx; Stop ends it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting prediction service...")

	s.queue = recordqueue.NewInMemoryQueue(recordqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.recorder)
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "prediction service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("placeholder", s.placeholder),
	)
	return nil
}

// Stop drains pending records and closes the recorder.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping prediction service...")
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "record pipeline did not drain", logger.Error(err))
	}
	if err := s.recorder.Close(); err != nil {
		s.logger.Warn(ctx, "error closing recorder", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "prediction service stopped")
}

// PredictYield estimates yield, price and a health status for in. An
// unavailable model is replaced by a mock yield; the price formula and the
// independent status draw are the same in both branches.
func (s *Service) PredictYield(ctx context.Context, in model.YieldInput) (model.PredictionResult, error) {
	if err := features.Validate(in); err != nil {
		return model.PredictionResult{}, err
	}

	source := model.SourceModel
	y, err := s.modelYield(ctx, in)
	if err != nil {
		if !errors.Is(err, model.ErrModelUnavailable) {
			return model.PredictionResult{}, err
		}
		s.logger.Warn(ctx, "yield model unavailable, using fallback",
			logger.String("crop", in.Crop),
			logger.Error(err))
		metrics.RecordFallback("yield", "model_unavailable")
		y = s.synth.MockYield(in.Crop)
		source = model.SourceFallback
	}
	// A linear model can extrapolate below zero near the input bounds.
	y = math.Max(y, 0)

	res := model.PredictionResult{
		Crop:   in.Crop,
		Yield:  math.Round(y),
		Price:  round2(crop.Price(in.Crop, y)),
		Status: s.synth.MockHealthStatus(),
		Source: source,
	}
	metrics.RecordPrediction(string(model.KindYield), string(source))
	s.enqueue(ctx, model.Record{
		Kind:   model.KindYield,
		Source: source,
		Crop:   res.Crop,
		Yield:  res.Yield,
		Price:  res.Price,
		Status: res.Status,
	})
	return res, nil
}

func (s *Service) modelYield(ctx context.Context, in model.YieldInput) (float64, error) {
	if s.predictor == nil {
		return 0, model.Wrap("service.predict_yield", model.ErrModelUnavailable, errors.New("no yield predictor configured"))
	}
	return s.predictor.Predict(ctx, in)
}

// PredictDisease classifies an uploaded leaf image. Results are cached by
// image digest. An unavailable model yields the fixed placeholder when
// enabled and model.ErrModelUnavailable otherwise.
func (s *Service) PredictDisease(ctx context.Context, up Upload) (model.DiseaseOutcome, error) {
	const op = "service.predict_disease"
	if len(up.Data) == 0 {
		return model.DiseaseOutcome{}, model.Invalid(op, "empty upload")
	}

	key := cache.Key(up.Data)
	out, hit := s.cached(ctx, key)
	if !hit {
		var err error
		out, err = s.classify(ctx, up.Data)
		if err != nil {
			return model.DiseaseOutcome{}, err
		}
		if out.Source == model.SourceModel && s.cache != nil {
			if err := s.cache.Set(ctx, key, out.Result); err != nil {
				s.logger.Warn(ctx, "disease cache write failed", logger.Error(err))
			}
		}
	}

	if s.uploads != nil {
		path, err := s.uploads.Save(ctx, up.Filename, up.Data)
		if err != nil {
			s.logger.Warn(ctx, "upload not stored", logger.String("filename", up.Filename), logger.Error(err))
		}
		out.ImagePath = path
	}

	metrics.RecordPrediction(string(model.KindDisease), string(out.Source))
	s.enqueue(ctx, model.Record{
		Kind:       model.KindDisease,
		Source:     out.Source,
		Label:      out.Result.Label,
		Plant:      out.Result.Plant,
		Condition:  out.Result.Condition,
		Confidence: out.Result.Confidence,
		ImagePath:  out.ImagePath,
	})
	return out, nil
}

func (s *Service) cached(ctx context.Context, key string) (model.DiseaseOutcome, bool) {
	if s.cache == nil {
		return model.DiseaseOutcome{}, false
	}
	r, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "disease cache read failed", logger.Error(err))
		return model.DiseaseOutcome{}, false
	}
	if !ok {
		return model.DiseaseOutcome{}, false
	}
	return model.DiseaseOutcome{Result: r, Source: model.SourceCache}, true
}

func (s *Service) classify(ctx context.Context, data []byte) (model.DiseaseOutcome, error) {
	t, err := s.decoder.DecodeBytes(data)
	if err != nil {
		return model.DiseaseOutcome{}, err
	}

	var r model.DiseaseResult
	if s.classifier == nil {
		err = model.Wrap("service.classify", model.ErrModelUnavailable, errors.New("no disease classifier configured"))
	} else {
		r, err = s.classifier.Classify(ctx, t)
	}
	switch {
	case err == nil:
		return model.DiseaseOutcome{Result: r, Source: model.SourceModel}, nil
	case errors.Is(err, model.ErrModelUnavailable) && s.placeholder:
		s.logger.Warn(ctx, "disease model unavailable, returning placeholder", logger.Error(err))
		metrics.RecordFallback("disease", "model_unavailable")
		return model.DiseaseOutcome{Result: disease.Placeholder(), Source: model.SourcePlaceholder}, nil
	default:
		return model.DiseaseOutcome{}, err
	}
}

// HealthCheck draws a crop health status, unrelated to any prediction.
func (s *Service) HealthCheck(_ context.Context) model.HealthReport {
	metrics.RecordPrediction("health", "heuristic")
	return s.synth.HealthReport()
}

// HistoricalSeries returns six months of yield for name.
func (s *Service) HistoricalSeries(_ context.Context, name string) []model.HistoricalPoint {
	metrics.RecordPrediction("history", "heuristic")
	return s.synth.MockHistoricalSeries(name)
}

// Retrain fits a new yield model and swaps it in.
func (s *Service) Retrain(ctx context.Context) (ModelInfo, error) {
	if s.predictor == nil {
		return ModelInfo{}, model.Wrap("service.retrain", model.ErrModelUnavailable, errors.New("no yield predictor configured"))
	}
	b, err := s.predictor.Retrain(ctx)
	if err != nil {
		return ModelInfo{}, err
	}
	s.logger.Info(ctx, "yield model retrained", logger.String("version", b.Version))
	return ModelInfo{
		Version:   b.Version,
		Features:  append([]string(nil), b.FeatureNames...),
		TrainR2:   b.Metrics.TrainR2,
		TestR2:    b.Metrics.TestR2,
		Samples:   b.Samples,
		TrainedAt: b.TrainedAt,
	}, nil
}

// Recent lists the newest prediction records, optionally of one kind.
func (s *Service) Recent(ctx context.Context, kind model.RecordKind, limit int) ([]model.Record, error) {
	const op = "service.recent"
	switch kind {
	case "", model.KindYield, model.KindDisease:
	default:
		return nil, model.Invalid(op, "unknown record kind %q", kind)
	}
	if limit < 0 {
		return nil, model.Invalid(op, "limit must not be negative")
	}
	records, err := s.recorder.Recent(ctx, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

// Models reports which models are loaded.
func (s *Service) Models() ModelStatus {
	var st ModelStatus
	if s.predictor != nil {
		st.Tabular = s.predictor.Loaded()
	}
	if s.classifier != nil {
		st.Disease = s.classifier.Loaded()
	}
	return st
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	models := s.Models()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"placeholder":   s.placeholder,
		"cacheEnabled":  s.cache != nil,
		"tabularLoaded": models.Tabular,
		"diseaseLoaded": models.Disease,
	}
	if tr, ok := s.predictor.(interface{ TrainingRuns() int64 }); ok {
		stats["trainingRuns"] = tr.TrainingRuns()
	}
	if n, err := s.recorder.Count(ctx); err == nil {
		stats["recordsStored"] = n
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateRecordQueueSize(queueLen)
	}
	return stats
}

// enqueue hands r to the record pipeline without blocking. Records are
// dropped when the service is stopped or the queue is full.
func (s *Service) enqueue(ctx context.Context, r model.Record) { //nolint:gocritic // hugeParam: Record is passed by value for channel semantics
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return
	}
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC()
	if err := s.queue.Enqueue(context.WithoutCancel(ctx), r); err != nil {
		s.logger.Warn(ctx, "prediction record dropped",
			logger.String("kind", string(r.Kind)),
			logger.Error(err))
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
