package tabular_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/tabular"
	. "github.com/smartystreets/goconvey/convey"
)

func smallTraining() tabular.Option {
	return tabular.WithTrainConfig(tabular.TrainConfig{Seed: 42, Samples: 200, Lambda: 1})
}

func TestPredictorLazyTraining(t *testing.T) {
	Convey("Given a predictor with no bundle on disk", t, func() {
		path := filepath.Join(t.TempDir(), "yield.json")
		p := tabular.NewPredictor(path, smallTraining())

		So(p.Loaded(), ShouldBeFalse)
		So(p.TrainingRuns(), ShouldEqual, 0)

		Convey("When many requests arrive at once", func() {
			const callers = 32
			var wg sync.WaitGroup
			estimates := make([]float64, callers)
			errs := make([]error, callers)
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					estimates[i], errs[i] = p.Predict(context.Background(), model.NewYieldInput("rice"))
				}(i)
			}
			wg.Wait()

			Convey("Then exactly one training run should happen", func() {
				So(p.TrainingRuns(), ShouldEqual, 1)
				for i := 0; i < callers; i++ {
					So(errs[i], ShouldBeNil)
					So(estimates[i], ShouldEqual, estimates[0])
				}
			})

			Convey("Then the bundle should be persisted for the next process", func() {
				_, err := os.Stat(path)
				So(err, ShouldBeNil)

				next := tabular.NewPredictor(path, smallTraining())
				y, err := next.Predict(context.Background(), model.NewYieldInput("rice"))
				So(err, ShouldBeNil)
				So(y, ShouldEqual, estimates[0])
				So(next.TrainingRuns(), ShouldEqual, 0)
			})
		})

		Convey("When predicting for an unknown crop", func() {
			y, err := p.Predict(context.Background(), model.NewYieldInput("dragonfruit"))

			Convey("Then the estimate should still be finite", func() {
				So(err, ShouldBeNil)
				So(math.IsNaN(y) || math.IsInf(y, 0), ShouldBeFalse)
			})
		})

		Convey("When the input is malformed", func() {
			in := model.NewYieldInput("rice")
			in.Rainfall = math.NaN()
			_, err := p.Predict(context.Background(), in)

			Convey("Then it should fail before any training", func() {
				So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
				So(p.TrainingRuns(), ShouldEqual, 0)
			})
		})
	})
}

func TestPredictorUnavailable(t *testing.T) {
	Convey("Given auto training is disabled and no bundle exists", t, func() {
		p := tabular.NewPredictor(filepath.Join(t.TempDir(), "yield.json"), tabular.WithAutoTrain(false))

		_, err := p.Predict(context.Background(), model.NewYieldInput("wheat"))

		So(errors.Is(err, model.ErrModelUnavailable), ShouldBeTrue)
		So(errors.Is(err, tabular.ErrBundleNotFound), ShouldBeTrue)
		So(p.TrainingRuns(), ShouldEqual, 0)
	})

	Convey("Given a corrupt bundle on disk", t, func() {
		path := filepath.Join(t.TempDir(), "yield.json")
		So(os.WriteFile(path, []byte(`{"feature_names": []}`), 0o600), ShouldBeNil)
		p := tabular.NewPredictor(path, smallTraining())

		_, err := p.Predict(context.Background(), model.NewYieldInput("wheat"))

		Convey("Then it should be unavailable and not retrain over it", func() {
			So(errors.Is(err, model.ErrModelUnavailable), ShouldBeTrue)
			So(errors.Is(err, tabular.ErrCorruptBundle), ShouldBeTrue)
			So(p.TrainingRuns(), ShouldEqual, 0)
		})
	})

	Convey("Given a model path that cannot be written", t, func() {
		blocker := filepath.Join(t.TempDir(), "blocker")
		So(os.WriteFile(blocker, []byte("x"), 0o600), ShouldBeNil)
		p := tabular.NewPredictor(filepath.Join(blocker, "yield.json"), smallTraining())

		_, first := p.Predict(context.Background(), model.NewYieldInput("wheat"))
		_, second := p.Predict(context.Background(), model.NewYieldInput("wheat"))

		Convey("Then each request should fail alone and retry training", func() {
			So(errors.Is(first, model.ErrModelUnavailable), ShouldBeTrue)
			So(errors.Is(second, model.ErrModelUnavailable), ShouldBeTrue)
			So(p.TrainingRuns(), ShouldEqual, 2)
			So(p.Loaded(), ShouldBeFalse)
		})
	})
}

func TestPredictorRetrain(t *testing.T) {
	Convey("Given a warm predictor", t, func() {
		p := tabular.NewPredictor(filepath.Join(t.TempDir(), "yield.json"), smallTraining())
		So(p.Warm(context.Background()), ShouldBeNil)
		before := p.Current()

		Convey("When it is retrained", func() {
			after, err := p.Retrain(context.Background())

			Convey("Then a new snapshot should replace the old one", func() {
				So(err, ShouldBeNil)
				So(after.Version, ShouldNotEqual, before.Version)
				So(p.Current(), ShouldEqual, after)
				So(p.TrainingRuns(), ShouldEqual, 2)
			})
		})
	})
}
