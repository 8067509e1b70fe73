package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by every component boundary. Callers branch on them
// with errors.Is.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrUnsupportedImage = errors.New("unsupported image")
)

// KindError attaches an error kind and the failing operation to a cause.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap tags err with kind. A nil err still produces a kind error.
func Wrap(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// Invalid builds an ErrInvalidInput error from a formatted message.
func Invalid(op, format string, args ...any) error {
	return Wrap(op, ErrInvalidInput, fmt.Errorf(format, args...))
}
