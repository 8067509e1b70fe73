package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/cache"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/http/api"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/http/swagger"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/repository"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/storage"
	app "github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/app"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/config"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/disease"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/fallback"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/tabular"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

// components holds everything main owns besides the HTTP server.
type components struct {
	svc        *app.Service
	predictor  *tabular.Predictor
	classifier *disease.Classifier
	redis      *redis.Client
	uploads    *storage.Uploads
}

// build assembles the service from cfg. Only an unreachable Postgres is
// fatal; a Redis outage disables the cache.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*components, error) {
	rec, err := newRecorder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c := &components{
		predictor: tabular.NewPredictor(cfg.TabularModelPath(),
			tabular.WithAutoTrain(cfg.AutoTrain),
			tabular.WithTrainConfig(tabular.TrainConfig{
				Seed:    cfg.TrainingSeed,
				Samples: cfg.TrainingSamples,
				Lambda:  cfg.RidgeLambda,
			}),
			tabular.WithLogger(log.Named("tabular")),
		),
		classifier: disease.NewClassifier(disease.FileLoader(disease.LoaderConfig{
			Backend:     cfg.DiseaseBackend,
			ModelPath:   cfg.DiseaseModelPath(),
			LabelsPath:  cfg.DiseaseLabelsPath(),
			LibraryPath: cfg.OnnxLibraryPath,
		}), disease.WithLogger(log.Named("disease"))),
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithYieldPredictor(c.predictor),
		app.WithClassifier(c.classifier),
		app.WithSynthesizer(fallback.New(fallback.WithSeed(cfg.RandomSeed))),
		app.WithRecorder(rec),
		app.WithPlaceholder(cfg.DiseasePlaceholder),
		app.WithWorkerCount(cfg.RecordWorkers),
		app.WithQueueSize(cfg.RecordQueueSize),
	}

	if cfg.RedisURL != "" {
		client, err := cache.Dial(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn(ctx, "disease cache disabled", logger.Error(err))
		} else {
			c.redis = client
			opts = append(opts, app.WithCache(cache.NewRedisCache(client, cache.WithTTL(cfg.CacheTTL()))))
		}
	}
	if cfg.UploadDir != "" {
		c.uploads = storage.New(cfg.UploadDir, storage.WithLogger(log.Named("storage")))
		opts = append(opts, app.WithUploads(c.uploads))
	}

	c.svc = app.New(opts...)
	log.Info(ctx, "service assembled",
		logger.String("recorder", cfg.Recorder),
		logger.String("disease_backend", cfg.DiseaseBackend),
		logger.String("tabular_model", cfg.TabularModelPath()),
		logger.Bool("cache", c.redis != nil),
		logger.Bool("uploads", cfg.UploadDir != ""))
	return c, nil
}

func newRecorder(ctx context.Context, cfg *config.Config) (repository.Recorder, error) {
	switch cfg.Recorder {
	case config.RecorderNone:
		return repository.NopRecorder{}, nil
	case config.RecorderPostgres:
		db, err := repository.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		pg := repository.NewPostgresRecorder(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("prepare schema: %w", err)
		}
		return pg, nil
	default:
		return repository.NewMemoryRecorder(repository.WithCapacity(cfg.HistoryLimit)), nil
	}
}

// newHandler registers the docs, the API and, when uploads are kept, the
// stored images on a fresh mux.
func newHandler(ctx context.Context, cfg *config.Config, c *components) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(c.svc, c.svc, api.WithMaxUploadBytes(cfg.MaxUploadBytes)).Register(ctx, mux)
	if c.uploads != nil {
		mux.Handle("GET "+c.uploads.URLPrefix(), c.uploads.Handler())
	}
	return mux
}

// warmup loads both models so the first request does not pay for it.
func (c *components) warmup(ctx context.Context, log logger.Logger) {
	if err := c.predictor.Warm(ctx); err != nil {
		log.Warn(ctx, "yield model warmup failed, serving fallback until it loads", logger.Error(err))
	}
	if err := c.classifier.Warm(ctx); err != nil {
		log.Warn(ctx, "disease model warmup failed", logger.Error(err))
	}
}

func (c *components) close(ctx context.Context) {
	if err := c.classifier.Close(); err != nil {
		logger.Get().Warn(ctx, "error closing disease model", logger.Error(err))
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
}
