package disease

import "github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the classifier logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.log = l
		}
	}
}
