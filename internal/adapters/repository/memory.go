package repository

import (
	"context"
	"sync"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
)

const defaultMemoryCapacity = 1000

// MemoryRecorder keeps the most recent records in a ring buffer.
type MemoryRecorder struct {
	mu       sync.RWMutex
	ring     []model.Record
	next     int
	size     int
	capacity int
	closed   bool
}

// NewMemoryRecorder creates an in-memory recorder.
func NewMemoryRecorder(opts ...Option) *MemoryRecorder {
	m := &MemoryRecorder{capacity: defaultMemoryCapacity}
	for _, opt := range opts {
		opt(m)
	}
	m.ring = make([]model.Record, m.capacity)
	return m
}

// Record implements Recorder.
func (m *MemoryRecorder) Record(_ context.Context, r model.Record) error { //nolint:gocritic // hugeParam: matches Recorder
	if err := validate(r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrRecorderClosed
	}
	m.ring[m.next] = r
	m.next = (m.next + 1) % m.capacity
	if m.size < m.capacity {
		m.size++
	}
	return nil
}

// Recent implements Recorder. A zero limit returns everything kept.
func (m *MemoryRecorder) Recent(_ context.Context, kind model.RecordKind, limit int) ([]model.Record, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit == 0 || limit > m.size {
		limit = m.size
	}
	out := make([]model.Record, 0, limit)
	for i := 1; i <= m.size && len(out) < limit; i++ {
		r := m.ring[(m.next-i+m.capacity)%m.capacity]
		if kind == "" || r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

// Count implements Recorder.
func (m *MemoryRecorder) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size, nil
}

// Close implements Recorder.
func (m *MemoryRecorder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// NopRecorder drops every record.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, model.Record) error { return nil } //nolint:gocritic // hugeParam: matches Recorder

// Recent implements Recorder.
func (NopRecorder) Recent(_ context.Context, _ model.RecordKind, limit int) ([]model.Record, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	return []model.Record{}, nil
}

// Count implements Recorder.
func (NopRecorder) Count(context.Context) (int, error) { return 0, nil }

// Close implements Recorder.
func (NopRecorder) Close() error { return nil }
