package tabular_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/tabular"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTrain(t *testing.T) {
	Convey("Given the default synthetic training setup", t, func() {
		cfg := tabular.TrainConfig{Seed: 42, Samples: 400}

		Convey("When training twice with the same seed", func() {
			a, errA := tabular.Train(cfg)
			b, errB := tabular.Train(cfg)

			Convey("Then the fitted parameters should match", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a.FeatureNames, ShouldResemble, b.FeatureNames)
				So(a.Scaler, ShouldResemble, b.Scaler)
				So(a.Regressor, ShouldResemble, b.Regressor)
				So(a.Version, ShouldNotEqual, b.Version)
				So(a.Samples, ShouldEqual, 400)
			})
		})

		Convey("When generating the dataset", func() {
			ds := tabular.GenerateDataset(42, 500)

			Convey("Then every column should stay in its range", func() {
				for i, in := range ds.Inputs {
					So(in.SoilQuality, ShouldBeBetweenOrEqual, 1, 10)
					So(in.Rainfall, ShouldBeBetweenOrEqual, 500, 2000)
					So(in.Temperature, ShouldBeBetweenOrEqual, 15, 40)
					So(in.Area, ShouldBeBetweenOrEqual, 1, 10)
					So(in.Fertilizer, ShouldBeBetweenOrEqual, 50, 200)
					So(ds.Yields[i], ShouldBeBetweenOrEqual, 1000, 8000)
					So([]string{"corn", "cotton", "rice", "soybeans", "wheat"}, ShouldContain, in.Crop)
				}
			})
		})
	})
}

func TestBundlePersistence(t *testing.T) {
	Convey("Given a trained bundle", t, func() {
		b, err := tabular.Train(tabular.TrainConfig{Seed: 7, Samples: 200})
		So(err, ShouldBeNil)
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "yield.json")

		Convey("When it is saved", func() {
			So(b.Save(path), ShouldBeNil)

			Convey("Then it should load back intact and leave no temp files", func() {
				loaded, err := tabular.LoadBundle(path)
				So(err, ShouldBeNil)
				So(loaded.FeatureNames, ShouldResemble, b.FeatureNames)
				So(loaded.Regressor, ShouldResemble, b.Regressor)

				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := tabular.LoadBundle(filepath.Join(dir, "missing.json"))
			So(errors.Is(err, tabular.ErrBundleNotFound), ShouldBeTrue)
		})

		Convey("When a parent of the path is a regular file", func() {
			blocker := filepath.Join(dir, "blocker")
			So(os.WriteFile(blocker, []byte("x"), 0o600), ShouldBeNil)
			under := filepath.Join(blocker, "yield.json")

			_, err := tabular.LoadBundle(under)
			So(errors.Is(err, tabular.ErrBundleNotFound), ShouldBeTrue)
			So(b.Save(under), ShouldNotBeNil)
		})

		Convey("When the file is not JSON", func() {
			bad := filepath.Join(dir, "bad.json")
			So(os.WriteFile(bad, []byte("{not json"), 0o600), ShouldBeNil)

			_, err := tabular.LoadBundle(bad)
			So(errors.Is(err, tabular.ErrCorruptBundle), ShouldBeTrue)
		})

		Convey("When parameter lengths disagree with the feature names", func() {
			b.Regressor.Coefficients = b.Regressor.Coefficients[:3]
			So(errors.Is(b.Validate(), tabular.ErrCorruptBundle), ShouldBeTrue)
		})

		Convey("When a feature name repeats", func() {
			b.FeatureNames[1] = b.FeatureNames[0]
			So(errors.Is(b.Validate(), tabular.ErrCorruptBundle), ShouldBeTrue)
		})
	})
}
