package tabular

import (
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/features"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

// Option configures a Predictor.
type Option func(*Predictor)

// WithAutoTrain toggles training when no bundle exists on disk.
func WithAutoTrain(enabled bool) Option {
	return func(p *Predictor) {
		p.autoTrain = enabled
	}
}

// WithTrainConfig sets the synthetic training parameters.
func WithTrainConfig(cfg TrainConfig) Option {
	return func(p *Predictor) {
		p.train = cfg
	}
}

// WithEncoder replaces the feature encoder.
func WithEncoder(enc *features.Encoder) Option {
	return func(p *Predictor) {
		if enc != nil {
			p.encoder = enc
		}
	}
}

// WithLogger sets the predictor logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Predictor) {
		if l != nil {
			p.log = l
		}
	}
}
