package fallback

import "math/rand"

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithSeed makes draws reproducible. Zero keeps the clock seed.
func WithSeed(seed int64) Option {
	return func(s *Synthesizer) {
		if seed != 0 {
			s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // mock values, not security sensitive
		}
	}
}

// WithSource draws from src.
func WithSource(src rand.Source) Option {
	return func(s *Synthesizer) {
		if src != nil {
			s.rng = rand.New(src) //nolint:gosec // mock values, not security sensitive
		}
	}
}
