// Command train fits the models offline and writes the artifacts the server
// loads. By default it trains the yield bundle; with -disease-data it fits
// the native leaf classifier head from a class-per-folder image tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/disease"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/imaging"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/tabular"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

// diseaseJob locates the image tree and the artifacts of a head fit.
type diseaseJob struct {
	Data      string
	Val       string
	Out       string
	LabelsOut string
	Size      int
	Workers   int
	Fit       disease.FitConfig
}

func main() {
	var (
		out     = flag.String("out", "models/yield_model.json", "Where to write the yield bundle")
		seed    = flag.Int64("seed", tabular.DefaultSeed, "Seed of the synthetic dataset")
		samples = flag.Int("samples", tabular.DefaultSamples, "Number of synthetic rows")
		lambda  = flag.Float64("lambda", tabular.DefaultLambda, "Ridge penalty")
		format  = flag.String("log-format", "text", "Log format: text or json")

		diseaseData = flag.String("disease-data", "", "Image tree with one folder per class; trains the leaf classifier instead of the yield model")
		diseaseVal  = flag.String("disease-val", "", "Optional held-out image tree with the same class folders")
		diseaseOut  = flag.String("disease-out", "models/disease_model.json", "Where to write the classifier head")
		labelsOut   = flag.String("labels-out", "models/class_indices.json", "Where to write the class index table")
		grid        = flag.Int("grid", disease.DefaultGrid, "Pooling grid edge of the classifier head")
		epochs      = flag.Int("epochs", disease.DefaultEpochs, "Gradient descent epochs")
		rate        = flag.Float64("learning-rate", disease.DefaultLearningRate, "Gradient descent step size")
		l2          = flag.Float64("l2", disease.DefaultL2, "Weight decay of the classifier head")
		workers     = flag.Int("workers", 0, "Parallel image decoders (0 = GOMAXPROCS)")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx := context.Background()
	var err error
	if *diseaseData != "" {
		err = runDisease(ctx, diseaseJob{
			Data:      *diseaseData,
			Val:       *diseaseVal,
			Out:       *diseaseOut,
			LabelsOut: *labelsOut,
			Size:      imaging.DefaultSize,
			Workers:   *workers,
			Fit:       disease.FitConfig{Grid: *grid, Epochs: *epochs, LearningRate: *rate, L2: *l2},
		})
	} else {
		err = run(ctx, *out, tabular.TrainConfig{Seed: *seed, Samples: *samples, Lambda: *lambda})
	}
	if err != nil {
		logger.Get().Error(ctx, "training failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, out string, cfg tabular.TrainConfig) error {
	log := logger.Get().Named("train")
	start := time.Now()

	b, err := tabular.Train(cfg)
	if err != nil {
		return err
	}
	if err := b.Save(out); err != nil {
		return err
	}

	log.Info(ctx, "yield model written",
		logger.String("path", out),
		logger.String("version", b.Version),
		logger.Int("samples", b.Samples),
		logger.Int("features", len(b.FeatureNames)),
		logger.Float64("train_r2", b.Metrics.TrainR2),
		logger.Float64("test_r2", b.Metrics.TestR2),
		logger.Duration("took", time.Since(start)))
	return nil
}

func runDisease(ctx context.Context, job diseaseJob) error {
	log := logger.Get().Named("train")
	start := time.Now()
	p := imaging.NewPreprocessor(imaging.WithSize(job.Size))
	grid := job.Fit.Grid
	if grid <= 0 {
		grid = disease.DefaultGrid
	}

	ds, err := disease.LoadImageFolder(ctx, job.Data, p, grid, job.Workers)
	if err != nil {
		return err
	}
	for _, path := range ds.Skipped {
		log.Warn(ctx, "skipping undecodable image", logger.String("path", path))
	}

	m, report, err := disease.FitNative(ds, job.Fit)
	if err != nil {
		return err
	}

	valAcc := -1.0
	if job.Val != "" {
		val, err := disease.LoadImageFolder(ctx, job.Val, p, grid, job.Workers)
		if err != nil {
			return fmt.Errorf("validation set: %w", err)
		}
		if !slices.Equal(val.Labels, ds.Labels) {
			return fmt.Errorf("validation classes %v do not match training classes %v", val.Labels, ds.Labels)
		}
		valAcc = disease.Accuracy(m, val)
	}

	if err := m.Save(job.Out); err != nil {
		return err
	}
	if err := disease.SaveClassIndices(job.LabelsOut, m.Labels); err != nil {
		return err
	}

	fields := []logger.Field{
		logger.String("path", job.Out),
		logger.String("labels_path", job.LabelsOut),
		logger.Int("classes", m.Classes()),
		logger.Int("samples", report.Samples),
		logger.Int("skipped", len(ds.Skipped)),
		logger.Float64("loss", report.Loss),
		logger.Float64("train_accuracy", report.Accuracy),
		logger.Duration("took", time.Since(start)),
	}
	if valAcc >= 0 {
		fields = append(fields, logger.Float64("val_accuracy", valAcc))
	}
	log.Info(ctx, "disease model written", fields...)
	return nil
}
