package imaging

import "golang.org/x/image/draw"

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithSize sets the square output edge.
func WithSize(size int) Option {
	return func(p *Preprocessor) {
		if size > 0 {
			p.size = size
		}
	}
}

// WithMaxPixels caps the decoded image area.
func WithMaxPixels(n int) Option {
	return func(p *Preprocessor) {
		if n > 0 {
			p.maxPixels = n
		}
	}
}

// WithScaler swaps the resampling kernel, e.g. draw.NearestNeighbor.
func WithScaler(s draw.Scaler) Option {
	return func(p *Preprocessor) {
		if s != nil {
			p.scaler = s
		}
	}
}
