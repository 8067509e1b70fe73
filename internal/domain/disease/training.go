package disease

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/imaging"
)

// Fit defaults.
const (
	DefaultGrid         = 4
	DefaultEpochs       = 500
	DefaultLearningRate = 0.1
	DefaultL2           = 1e-4
)

// imageExts are the file types a class folder may hold.
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// FitConfig controls the softmax head fit.
type FitConfig struct {
	Grid         int
	Epochs       int
	LearningRate float64
	L2           float64
}

func (c FitConfig) withDefaults() FitConfig {
	if c.Grid <= 0 {
		c.Grid = DefaultGrid
	}
	if c.Epochs <= 0 {
		c.Epochs = DefaultEpochs
	}
	if c.LearningRate <= 0 {
		c.LearningRate = DefaultLearningRate
	}
	if c.L2 <= 0 {
		c.L2 = DefaultL2
	}
	return c
}

// Dataset holds grid features of labeled images. Targets index Labels.
type Dataset struct {
	Labels   []string
	Features [][]float64
	Targets  []int
	// Skipped lists files with an image extension that failed to decode.
	Skipped []string
}

// FitReport summarizes a finished fit.
type FitReport struct {
	Samples  int
	Epochs   int
	Loss     float64
	Accuracy float64
}

// LoadImageFolder reads a tree with one subdirectory per class. Classes
// are the subdirectory names in lexical order, the same order a
// class_indices table assigns. Images are decoded by p and pooled to grid
// features on up to workers goroutines.
func LoadImageFolder(ctx context.Context, root string, p *imaging.Preprocessor, grid, workers int) (Dataset, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset root: %w", err)
	}

	var (
		ds      Dataset
		files   []string
		targets []int
	)
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		class := len(ds.Labels)
		ds.Labels = append(ds.Labels, e.Name())
		imgs, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			return Dataset{}, fmt.Errorf("read class %q: %w", e.Name(), err)
		}
		for _, img := range imgs {
			if img.IsDir() || !imageExts[strings.ToLower(filepath.Ext(img.Name()))] {
				continue
			}
			files = append(files, filepath.Join(root, e.Name(), img.Name()))
			targets = append(targets, class)
		}
	}
	if len(ds.Labels) < 2 {
		return Dataset{}, fmt.Errorf("%w: found %d under %s", ErrTooFewClasses, len(ds.Labels), root)
	}
	if len(files) == 0 {
		return Dataset{}, fmt.Errorf("%w under %s", ErrNoTrainingData, root)
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	feats := make([][]float64, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			t, err := p.DecodeBytes(data)
			if err != nil {
				return nil // left nil and reported as skipped
			}
			f, err := GridFeatures(t, grid)
			if err != nil {
				return err
			}
			feats[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}

	for i, f := range feats {
		if f == nil {
			ds.Skipped = append(ds.Skipped, files[i])
			continue
		}
		ds.Features = append(ds.Features, f)
		ds.Targets = append(ds.Targets, targets[i])
	}
	if len(ds.Features) == 0 {
		return Dataset{}, fmt.Errorf("%w: none of %d files under %s decoded", ErrNoTrainingData, len(files), root)
	}
	return ds, nil
}

// FitNative fits a grid-softmax head to ds by full-batch gradient descent
// on L2-regularized cross-entropy. Weights start at zero, so the result is
// deterministic for a given dataset.
func FitNative(ds Dataset, cfg FitConfig) (*NativeModel, FitReport, error) {
	cfg = cfg.withDefaults()
	n, k := len(ds.Features), len(ds.Labels)
	if n == 0 || n != len(ds.Targets) {
		return nil, FitReport{}, fmt.Errorf("%w: %d samples for %d targets", ErrNoTrainingData, n, len(ds.Targets))
	}
	if k < 2 {
		return nil, FitReport{}, fmt.Errorf("%w: got %d", ErrTooFewClasses, k)
	}
	d := cfg.Grid * cfg.Grid * imaging.Channels

	x := mat.NewDense(n, d, nil)
	for i, row := range ds.Features {
		if len(row) != d {
			return nil, FitReport{}, fmt.Errorf("sample %d has %d features, want %d for grid %d", i, len(row), d, cfg.Grid)
		}
		if t := ds.Targets[i]; t < 0 || t >= k {
			return nil, FitReport{}, fmt.Errorf("sample %d targets class %d of %d", i, t, k)
		}
		x.SetRow(i, row)
	}

	w := mat.NewDense(k, d, nil)
	b := make([]float64, k)
	resid := mat.NewDense(n, k, nil)
	grad := mat.NewDense(k, d, nil)
	var reg mat.Dense
	inv := 1 / float64(n)
	loss := 0.0

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		// resid = softmax(XWᵀ + b) - onehot(y)
		resid.Mul(x, w.T())
		loss = 0
		gb := make([]float64, k)
		for i := 0; i < n; i++ {
			row := resid.RawRowView(i)
			for j := range row {
				row[j] += b[j]
			}
			softmaxInPlace(row)
			t := ds.Targets[i]
			loss -= math.Log(math.Max(row[t], 1e-12))
			row[t]--
			for j, v := range row {
				gb[j] += v
			}
		}
		loss *= inv

		grad.Mul(resid.T(), x)
		grad.Scale(inv, grad)
		reg.Scale(cfg.L2, w)
		grad.Add(grad, &reg)
		grad.Scale(cfg.LearningRate, grad)
		w.Sub(w, grad)
		for j := range b {
			b[j] -= cfg.LearningRate * gb[j] * inv
		}
	}

	m := &NativeModel{
		Format:  NativeFormat,
		Labels:  append([]string(nil), ds.Labels...),
		Grid:    cfg.Grid,
		Weights: make([][]float32, k),
		Bias:    make([]float32, k),
	}
	for c := 0; c < k; c++ {
		m.Weights[c] = make([]float32, d)
		for j := 0; j < d; j++ {
			m.Weights[c][j] = float32(w.At(c, j))
		}
		m.Bias[c] = float32(b[c])
	}
	if err := m.Validate(); err != nil {
		return nil, FitReport{}, err
	}

	return m, FitReport{
		Samples:  n,
		Epochs:   cfg.Epochs,
		Loss:     loss,
		Accuracy: Accuracy(m, ds),
	}, nil
}

// Accuracy is the share of ds that m assigns to its target class. Samples
// whose feature length does not match the head count as misses.
func Accuracy(m *NativeModel, ds Dataset) float64 {
	if len(ds.Features) == 0 {
		return 0
	}
	dims := m.Grid * m.Grid * imaging.Channels
	hits := 0
	for i, f := range ds.Features {
		if len(f) != dims {
			continue
		}
		if best, err := Argmax(m.scores(f)); err == nil && best == ds.Targets[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(ds.Features))
}

// SaveClassIndices writes labels as a class_indices object mapping each
// label to its output index.
func SaveClassIndices(path string, labels []string) error {
	indices := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, dup := indices[l]; dup {
			return fmt.Errorf("%w: duplicate label %q", ErrBadLabels, l)
		}
		indices[l] = i
	}
	return writeJSONAtomic(path, ".class-indices-*.tmp", indices)
}

func softmaxInPlace(v []float64) {
	maxV := math.Inf(-1)
	for _, x := range v {
		maxV = math.Max(maxV, x)
	}
	sum := 0.0
	for i, x := range v {
		v[i] = math.Exp(x - maxV)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}
