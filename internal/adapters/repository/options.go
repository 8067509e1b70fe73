package repository

// Option applies a configuration option to the MemoryRecorder.
type Option func(*MemoryRecorder)

// WithCapacity bounds how many records are kept. Older ones are evicted.
func WithCapacity(capacity int) Option {
	return func(m *MemoryRecorder) {
		if capacity > 0 {
			m.capacity = capacity
		}
	}
}
