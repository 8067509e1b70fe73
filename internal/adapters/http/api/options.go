package api

import "github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes caps the /predict-disease request body.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
