package service

import (
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/cache"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/repository"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/fallback"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithYieldPredictor sets the tabular model.
func WithYieldPredictor(p YieldPredictor) Option {
	return func(s *Service) {
		s.predictor = p
	}
}

// WithClassifier sets the disease model.
func WithClassifier(c DiseaseClassifier) Option {
	return func(s *Service) {
		s.classifier = c
	}
}

// WithImageDecoder replaces the default 224x224 preprocessor.
func WithImageDecoder(d ImageDecoder) Option {
	return func(s *Service) {
		if d != nil {
			s.decoder = d
		}
	}
}

// WithSynthesizer sets the fallback value source.
func WithSynthesizer(f *fallback.Synthesizer) Option {
	return func(s *Service) {
		if f != nil {
			s.synth = f
		}
	}
}

// WithRecorder sets where prediction records end up.
func WithRecorder(r repository.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithCache enables the disease result cache.
func WithCache(c cache.DiseaseCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithUploads enables upload storage.
func WithUploads(u UploadStore) Option {
	return func(s *Service) {
		s.uploads = u
	}
}

// WithPlaceholder controls whether an unavailable disease model is
// answered with the fixed placeholder result.
func WithPlaceholder(enabled bool) Option {
	return func(s *Service) {
		s.placeholder = enabled
	}
}

// WithWorkerCount sets the number of record workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the record queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
