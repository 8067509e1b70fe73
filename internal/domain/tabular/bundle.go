package tabular

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// BundleFormat tags the on-disk layout.
const BundleFormat = "agri-yield/ridge-v1"

// Metrics records goodness of fit at training time.
type Metrics struct {
	TrainR2 float64 `json:"train_r2"`
	TestR2  float64 `json:"test_r2"`
}

// Bundle is a trained yield model: canonical feature order, fitted scaler and
// regressor. A loaded bundle is never mutated.
type Bundle struct {
	Format       string    `json:"format"`
	Version      string    `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Scaler       Scaler    `json:"scaler"`
	Regressor    Regressor `json:"regressor"`
	Metrics      Metrics   `json:"metrics"`
	Seed         int64     `json:"seed"`
	Samples      int       `json:"samples"`
	TrainedAt    time.Time `json:"trained_at"`
}

// Validate checks that every parameter block matches the feature layout.
func (b *Bundle) Validate() error {
	p := len(b.FeatureNames)
	if p == 0 {
		return fmt.Errorf("%w: no feature names", ErrCorruptBundle)
	}
	seen := make(map[string]struct{}, p)
	for _, n := range b.FeatureNames {
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: duplicate feature %q", ErrCorruptBundle, n)
		}
		seen[n] = struct{}{}
	}
	if len(b.Scaler.Mean) != p || len(b.Scaler.Scale) != p || len(b.Regressor.Coefficients) != p {
		return fmt.Errorf("%w: parameter length mismatch for %d features", ErrCorruptBundle, p)
	}
	if !finite(b.Regressor.Intercept) {
		return fmt.Errorf("%w: non-finite intercept", ErrCorruptBundle)
	}
	for j := 0; j < p; j++ {
		if !finite(b.Scaler.Mean[j]) || !finite(b.Scaler.Scale[j]) || b.Scaler.Scale[j] == 0 || !finite(b.Regressor.Coefficients[j]) {
			return fmt.Errorf("%w: bad parameters for %q", ErrCorruptBundle, b.FeatureNames[j])
		}
	}
	return nil
}

// LoadBundle reads and validates a bundle from path. A path whose parent is
// not a directory counts as missing.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, path)
		}
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptBundle, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Save writes the bundle to path atomically: a temp file in the same
// directory is renamed over the target.
func (b *Bundle) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".yield-model-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish bundle: %w", err)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
