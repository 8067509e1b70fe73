package tabular

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/crop"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/features"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
)

// Training defaults.
const (
	DefaultSeed         = 42
	DefaultSamples      = 1000
	DefaultTestFraction = 0.2
)

// TrainConfig shapes the synthetic dataset and the fit.
type TrainConfig struct {
	Seed         int64
	Samples      int
	Lambda       float64
	TestFraction float64
}

func (c TrainConfig) withDefaults() TrainConfig {
	if c.Samples <= 0 {
		c.Samples = DefaultSamples
	}
	if c.Lambda <= 0 {
		c.Lambda = DefaultLambda
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		c.TestFraction = DefaultTestFraction
	}
	return c
}

// Dataset is a set of raw requests with their target yields.
type Dataset struct {
	Inputs []model.YieldInput
	Yields []float64
}

// GenerateDataset draws a deterministic synthetic dataset from seed.
// Columns are drawn one after another so a seed always yields the same rows.
func GenerateDataset(seed int64, n int) Dataset {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data, not security sensitive
	cats := crop.OneHotCategories()
	uniform := func(lo, hi float64) []float64 {
		col := make([]float64, n)
		for i := range col {
			col[i] = lo + rng.Float64()*(hi-lo)
		}
		return col
	}

	crops := make([]string, n)
	for i := range crops {
		crops[i] = cats[rng.Intn(len(cats))]
	}
	soil := uniform(1, 10)
	rain := uniform(500, 2000)
	temp := uniform(15, 40)
	area := uniform(1, 10)
	fert := uniform(50, 200)
	yields := uniform(1000, 8000)

	ds := Dataset{Inputs: make([]model.YieldInput, n), Yields: yields}
	for i := 0; i < n; i++ {
		ds.Inputs[i] = model.YieldInput{
			Crop:        crops[i],
			SoilQuality: soil[i],
			Rainfall:    rain[i],
			Temperature: temp[i],
			Area:        area[i],
			Fertilizer:  fert[i],
		}
	}
	return ds
}

// Train generates the dataset, splits it, fits the scaler on the training
// rows and fits a ridge regressor on the scaled rows.
func Train(cfg TrainConfig) (*Bundle, error) {
	cfg = cfg.withDefaults()
	return Fit(GenerateDataset(cfg.Seed, cfg.Samples), cfg)
}

// Fit trains a bundle on ds.
func Fit(ds Dataset, cfg TrainConfig) (*Bundle, error) {
	cfg = cfg.withDefaults()
	if len(ds.Inputs) < 2 || len(ds.Inputs) != len(ds.Yields) {
		return nil, ErrEmptyDataset
	}

	enc := features.NewEncoder()
	names := enc.Names()
	rows := make([][]float64, len(ds.Inputs))
	for i, in := range ds.Inputs {
		v, err := enc.Encode(in, names)
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
		rows[i] = v.Values
	}

	cut := len(rows) - int(float64(len(rows))*cfg.TestFraction)
	if cut < 1 {
		cut = 1
	}
	trainX, testX := rows[:cut], rows[cut:]
	trainY, testY := ds.Yields[:cut], ds.Yields[cut:]

	scaler := FitScaler(trainX)
	scaledTrain := scaler.TransformAll(trainX)
	reg, err := FitRidge(scaledTrain, trainY, cfg.Lambda)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		Format:       BundleFormat,
		Version:      uuid.NewString(),
		FeatureNames: names,
		Scaler:       scaler,
		Regressor:    reg,
		Metrics: Metrics{
			TrainR2: R2(reg, scaledTrain, trainY),
			TestR2:  R2(reg, scaler.TransformAll(testX), testY),
		},
		Seed:      cfg.Seed,
		Samples:   len(rows),
		TrainedAt: time.Now().UTC(),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
