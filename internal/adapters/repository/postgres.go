package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS prediction_records (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	source      TEXT NOT NULL,
	crop        TEXT NOT NULL DEFAULT '',
	yield       DOUBLE PRECISION NOT NULL DEFAULT 0,
	price       DOUBLE PRECISION NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT '',
	label       TEXT NOT NULL DEFAULT '',
	plant       TEXT NOT NULL DEFAULT '',
	condition   TEXT NOT NULL DEFAULT '',
	confidence  DOUBLE PRECISION NOT NULL DEFAULT 0,
	image_path  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS prediction_records_kind_created_idx
	ON prediction_records (kind, created_at DESC);`

const insertRecord = `
	INSERT INTO prediction_records (
		id, kind, source, crop, yield, price, status,
		label, plant, condition, confidence, image_path, created_at
	) VALUES (
		:id, :kind, :source, :crop, :yield, :price, :status,
		:label, :plant, :condition, :confidence, :image_path, :created_at
	)`

const selectColumns = `
	SELECT id, kind, source, crop, yield, price, status,
		label, plant, condition, confidence, image_path, created_at
	FROM prediction_records`

// PostgresRecorder stores prediction history in Postgres.
type PostgresRecorder struct {
	db *sqlx.DB
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRecorder wraps an open database handle.
func NewPostgresRecorder(db *sqlx.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// EnsureSchema creates the history table when missing.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record implements Recorder.
func (r *PostgresRecorder) Record(ctx context.Context, rec model.Record) error { //nolint:gocritic // hugeParam: matches Recorder
	if err := validate(rec); err != nil {
		return err
	}
	if _, err := r.db.NamedExecContext(ctx, insertRecord, rec); err != nil {
		return fmt.Errorf("failed to insert prediction record: %w", err)
	}
	return nil
}

// Recent implements Recorder. A zero limit defaults to 100 rows.
func (r *PostgresRecorder) Recent(ctx context.Context, kind model.RecordKind, limit int) ([]model.Record, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	if limit == 0 {
		limit = 100
	}
	out := []model.Record{}
	var err error
	if kind == "" {
		err = r.db.SelectContext(ctx, &out, selectColumns+` ORDER BY created_at DESC LIMIT $1`, limit)
	} else {
		err = r.db.SelectContext(ctx, &out, selectColumns+` WHERE kind = $1 ORDER BY created_at DESC LIMIT $2`, string(kind), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction records: %w", err)
	}
	return out, nil
}

// Count implements Recorder.
func (r *PostgresRecorder) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM prediction_records`); err != nil {
		return 0, fmt.Errorf("failed to count prediction records: %w", err)
	}
	return n, nil
}

// Close implements Recorder.
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
