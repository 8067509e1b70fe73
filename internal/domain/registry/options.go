package registry

import "github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"

type settings struct {
	log logger.Logger
}

// Option configures a Registry.
type Option func(*settings)

// WithLogger sets the registry logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
