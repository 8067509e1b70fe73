package tabular

import "errors"

// Sentinel errors for bundle handling and fitting. Predictor surfaces all of
// them as model.ErrModelUnavailable.
var (
	ErrBundleNotFound = errors.New("model bundle not found")
	ErrCorruptBundle  = errors.New("model bundle corrupt")
	ErrSingular       = errors.New("normal equations not positive definite")
	ErrEmptyDataset   = errors.New("empty training set")
)
