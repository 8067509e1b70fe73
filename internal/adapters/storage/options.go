package storage

import "github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"

// Option configures Uploads.
type Option func(*Uploads)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(u *Uploads) {
		if l != nil {
			u.log = l
		}
	}
}
