// Package repository keeps the prediction history.
package repository

import (
	"context"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
)

// Recorder provides write and read access to prediction history.
type Recorder interface {
	// Record stores one prediction.
	Record(ctx context.Context, r model.Record) error

	// Recent returns up to limit records, newest first. An empty kind
	// matches every kind. Returns ErrInvalidLimit for a negative limit.
	Recent(ctx context.Context, kind model.RecordKind, limit int) ([]model.Record, error)

	// Count returns how many records are stored.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

func validate(r model.Record) error { //nolint:gocritic // hugeParam: Record mirrors the Recorder signature
	if r.ID == "" {
		return ErrInvalidRecord
	}
	switch r.Kind {
	case model.KindYield, model.KindDisease:
		return nil
	}
	return ErrInvalidRecord
}
