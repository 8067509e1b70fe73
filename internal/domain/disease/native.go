package disease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/imaging"
)

// NativeFormat tags the on-disk layout of a NativeModel.
const NativeFormat = "agri-disease/grid-softmax-v1"

// NativeModel is a linear softmax head over grid-pooled channel means. The
// image is split into Grid×Grid cells and each cell contributes its mean R,
// G and B, giving Grid*Grid*3 features.
type NativeModel struct {
	Format  string      `json:"format"`
	Labels  []string    `json:"labels,omitempty"`
	Grid    int         `json:"grid"`
	Weights [][]float32 `json:"weights"`
	Bias    []float32   `json:"bias"`
}

// LoadNative reads and validates a native head.
func LoadNative(path string) (*NativeModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, err
	}
	var m NativeModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadModel, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the head's dimensions.
func (m *NativeModel) Validate() error {
	if m.Grid <= 0 {
		return fmt.Errorf("%w: grid must be positive", ErrBadModel)
	}
	if len(m.Weights) == 0 || len(m.Weights) != len(m.Bias) {
		return fmt.Errorf("%w: %d weight rows for %d biases", ErrBadModel, len(m.Weights), len(m.Bias))
	}
	if len(m.Labels) > 0 && len(m.Labels) != len(m.Weights) {
		return fmt.Errorf("%w: %d labels for %d classes", ErrBadModel, len(m.Labels), len(m.Weights))
	}
	dims := m.Grid * m.Grid * imaging.Channels
	for i, row := range m.Weights {
		if len(row) != dims {
			return fmt.Errorf("%w: class %d has %d weights, want %d", ErrBadModel, i, len(row), dims)
		}
	}
	return nil
}

// Classes returns the number of output classes.
func (m *NativeModel) Classes() int { return len(m.Weights) }

// Probabilities implements Model.
func (m *NativeModel) Probabilities(_ context.Context, t imaging.Tensor) ([]float32, error) {
	feats, err := GridFeatures(t, m.Grid)
	if err != nil {
		return nil, err
	}
	return m.scores(feats), nil
}

func (m *NativeModel) scores(feats []float64) []float32 {
	logits := make([]float32, len(m.Weights))
	for k, row := range m.Weights {
		acc := float64(m.Bias[k])
		for j, w := range row {
			acc += float64(w) * feats[j]
		}
		logits[k] = float32(acc)
	}
	return Softmax(logits)
}

// Close implements Model.
func (m *NativeModel) Close() error { return nil }

// Save writes the head to path through a temp file and rename.
func (m *NativeModel) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return writeJSONAtomic(path, ".disease-model-*.tmp", m)
}

// GridFeatures splits t into grid×grid cells and returns each cell's mean
// R, G and B in row-major cell order.
func GridFeatures(t imaging.Tensor, grid int) ([]float64, error) {
	if grid <= 0 || t.Height() < grid || t.Width() < grid {
		return nil, fmt.Errorf("%w: %dx%d input for grid %d", ErrBadModel, t.Height(), t.Width(), grid)
	}
	h, w := t.Height(), t.Width()
	feats := make([]float64, grid*grid*imaging.Channels)
	for gy := 0; gy < grid; gy++ {
		y0, y1 := gy*h/grid, (gy+1)*h/grid
		for gx := 0; gx < grid; gx++ {
			x0, x1 := gx*w/grid, (gx+1)*w/grid
			base := (gy*grid + gx) * imaging.Channels
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					for c := 0; c < imaging.Channels; c++ {
						feats[base+c] += float64(t.At(y, x, c))
					}
				}
			}
			n := float64((y1 - y0) * (x1 - x0))
			for c := 0; c < imaging.Channels; c++ {
				feats[base+c] /= n
			}
		}
	}
	return feats, nil
}

func writeJSONAtomic(path, pattern string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish %s: %w", filepath.Base(path), err)
	}
	return nil
}
