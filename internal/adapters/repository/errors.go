package repository

import "errors"

// Sentinel kinds for recorder errors.
var (
	ErrInvalidLimit   = errors.New("invalid history limit")
	ErrRecorderClosed = errors.New("recorder closed")
	ErrInvalidRecord  = errors.New("invalid prediction record")
)
