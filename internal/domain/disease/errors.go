package disease

import "errors"

// Sentinel errors for model artifacts and training. Classifier surfaces the
// artifact errors as model.ErrModelUnavailable.
var (
	ErrModelNotFound  = errors.New("disease model not found")
	ErrBadModel       = errors.New("disease model malformed")
	ErrBadLabels      = errors.New("disease label table malformed")
	ErrShapeMismatch  = errors.New("classifier output does not match label table")
	ErrUnknownBackend = errors.New("unknown classifier backend")
	ErrNoTrainingData = errors.New("no training images")
	ErrTooFewClasses  = errors.New("training needs at least two classes")
)
