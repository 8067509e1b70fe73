package features

import "github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/crop"

// Option configures an Encoder.
type Option func(*Encoder)

// WithCategories overrides the one-hot crop categories. Names are normalized.
func WithCategories(categories ...string) Option {
	return func(e *Encoder) {
		if len(categories) == 0 {
			return
		}
		e.categories = make([]string, 0, len(categories))
		for _, c := range categories {
			e.categories = append(e.categories, crop.Normalize(c))
		}
	}
}
