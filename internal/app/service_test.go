package service_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"sync"
	"testing"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/repository"
	service "github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/app"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/crop"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/fallback"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/imaging"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/tabular"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakePredictor struct {
	yield float64
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakePredictor) Predict(context.Context, model.YieldInput) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.yield, f.err
}

func (f *fakePredictor) Retrain(context.Context) (*tabular.Bundle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tabular.Bundle{Version: "v2", FeatureNames: []string{"soil_quality"}, Samples: 10}, nil
}

func (f *fakePredictor) Loaded() bool { return f.err == nil }

type fakeClassifier struct {
	result model.DiseaseResult
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(context.Context, imaging.Tensor) (model.DiseaseResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeClassifier) Loaded() bool { return f.err == nil }

type mapCache struct {
	entries map[string]model.DiseaseResult
	getErr  error
}

func (c *mapCache) Get(_ context.Context, key string) (model.DiseaseResult, bool, error) {
	if c.getErr != nil {
		return model.DiseaseResult{}, false, c.getErr
	}
	r, ok := c.entries[key]
	return r, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, r model.DiseaseResult) error {
	c.entries[key] = r
	return nil
}

type fakeUploads struct {
	saved []string
}

func (u *fakeUploads) Save(_ context.Context, filename string, _ []byte) (string, error) {
	u.saved = append(u.saved, filename)
	return "uploads/" + filename, nil
}

func seeded() *fallback.Synthesizer {
	return fallback.New(fallback.WithSource(rand.NewSource(7)))
}

func leafPNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.NRGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

var unavailable = model.Wrap("test", model.ErrModelUnavailable, errors.New("no bundle"))

func TestPredictYield(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a working model", t, func() {
		p := &fakePredictor{yield: 6000}
		svc := service.New(service.WithYieldPredictor(p), service.WithSynthesizer(seeded()))

		Convey("When the estimate equals the crop baseline", func() {
			res, err := svc.PredictYield(ctx, model.NewYieldInput("rice"))

			Convey("Then the price should be the base price", func() {
				So(err, ShouldBeNil)
				So(res.Yield, ShouldEqual, 6000)
				So(res.Price, ShouldEqual, 28)
				So(res.Source, ShouldEqual, model.SourceModel)
				So(res.Status.Valid(), ShouldBeTrue)
			})
		})

		Convey("When the estimate has a fraction", func() {
			p.yield = 4949.6
			res, err := svc.PredictYield(ctx, model.NewYieldInput("wheat"))

			Convey("Then yield should be whole and price rounded to cents", func() {
				So(err, ShouldBeNil)
				So(res.Yield, ShouldEqual, 4950)
				So(res.Price, ShouldEqual, 21.78)
			})
		})

		Convey("When the input is malformed", func() {
			in := model.NewYieldInput("rice")
			in.Rainfall = -1
			_, err := svc.PredictYield(ctx, in)

			Convey("Then it should fail as invalid without reaching the model", func() {
				So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
				So(p.calls, ShouldEqual, 0)
			})
		})

		Convey("When a field is far outside its agronomic range", func() {
			huge := model.NewYieldInput("rice")
			huge.Rainfall = 1e30
			cold := model.NewYieldInput("rice")
			cold.Temperature = -1e9
			rich := model.NewYieldInput("rice")
			rich.Fertilizer = 1e12

			Convey("Then each should be rejected before inference", func() {
				for _, in := range []model.YieldInput{huge, cold, rich} {
					_, err := svc.PredictYield(ctx, in)
					So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
				}
				So(p.calls, ShouldEqual, 0)
			})
		})

		Convey("When the model extrapolates below zero", func() {
			p.yield = -250
			res, err := svc.PredictYield(ctx, model.NewYieldInput("rice"))

			Convey("Then the yield should floor at zero and price follow it", func() {
				So(err, ShouldBeNil)
				So(res.Yield, ShouldEqual, 0)
				So(res.Price, ShouldEqual, 30.8)
			})
		})
	})

	Convey("Given a service whose model is unavailable", t, func() {
		svc := service.New(service.WithYieldPredictor(&fakePredictor{err: unavailable}), service.WithSynthesizer(seeded()))

		Convey("Then rice should get a mock near its baseline", func() {
			for i := 0; i < 50; i++ {
				res, err := svc.PredictYield(ctx, model.NewYieldInput("rice"))
				So(err, ShouldBeNil)
				So(res.Source, ShouldEqual, model.SourceFallback)
				So(res.Yield, ShouldBeBetweenOrEqual, 5400, 6600)
				So(res.Price, ShouldBeBetweenOrEqual, 27.72, 28.28)
				So(res.Status.Valid(), ShouldBeTrue)
			}
		})

		Convey("Then an unknown crop should use the default baseline", func() {
			res, err := svc.PredictYield(ctx, model.NewYieldInput("quinoa"))
			So(err, ShouldBeNil)
			So(res.Yield, ShouldBeBetweenOrEqual, 0.9*crop.DefaultBaseYield, 1.1*crop.DefaultBaseYield)
		})
	})

	Convey("Given a service without any predictor", t, func() {
		svc := service.New()

		res, err := svc.PredictYield(ctx, model.NewYieldInput("corn"))
		So(err, ShouldBeNil)
		So(res.Source, ShouldEqual, model.SourceFallback)
	})

	Convey("Given a model failing for another reason", t, func() {
		boom := errors.New("boom")
		svc := service.New(service.WithYieldPredictor(&fakePredictor{err: boom}))

		_, err := svc.PredictYield(ctx, model.NewYieldInput("corn"))
		So(errors.Is(err, boom), ShouldBeTrue)
	})
}

func TestPredictDisease(t *testing.T) {
	ctx := context.Background()
	leaf := service.Upload{Filename: "leaf.png", Data: leafPNG()}
	blight := model.DiseaseResult{Label: "Potato___Late_blight", Plant: "Potato", Condition: "Potato___Late_blight", Confidence: 0.91}

	Convey("Given a service with a classifier, cache and upload store", t, func() {
		c := &fakeClassifier{result: blight}
		mc := &mapCache{entries: map[string]model.DiseaseResult{}}
		up := &fakeUploads{}
		svc := service.New(service.WithClassifier(c), service.WithCache(mc), service.WithUploads(up))

		Convey("When the same image is classified twice", func() {
			first, err := svc.PredictDisease(ctx, leaf)
			So(err, ShouldBeNil)
			second, err := svc.PredictDisease(ctx, leaf)
			So(err, ShouldBeNil)

			Convey("Then the second answer should come from the cache", func() {
				So(first.Result, ShouldResemble, blight)
				So(first.Source, ShouldEqual, model.SourceModel)
				So(second.Result, ShouldResemble, blight)
				So(second.Source, ShouldEqual, model.SourceCache)
				So(c.calls, ShouldEqual, 1)
			})

			Convey("Then both uploads should be stored", func() {
				So(up.saved, ShouldResemble, []string{"leaf.png", "leaf.png"})
				So(first.ImagePath, ShouldEqual, "uploads/leaf.png")
			})
		})

		Convey("When the cache is down", func() {
			mc.getErr = errors.New("connection refused")
			out, err := svc.PredictDisease(ctx, leaf)

			Convey("Then the model should still answer", func() {
				So(err, ShouldBeNil)
				So(out.Source, ShouldEqual, model.SourceModel)
				So(c.calls, ShouldEqual, 1)
			})
		})

		Convey("When the upload is not an image", func() {
			_, err := svc.PredictDisease(ctx, service.Upload{Filename: "notes.txt", Data: []byte("hello")})

			Convey("Then it should fail as unsupported", func() {
				So(errors.Is(err, model.ErrUnsupportedImage), ShouldBeTrue)
				So(c.calls, ShouldEqual, 0)
				So(up.saved, ShouldBeEmpty)
			})
		})

		Convey("When the upload is empty", func() {
			_, err := svc.PredictDisease(ctx, service.Upload{Filename: "leaf.png"})
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given an unavailable disease model", t, func() {
		c := &fakeClassifier{err: unavailable}
		mc := &mapCache{entries: map[string]model.DiseaseResult{}}

		Convey("When the placeholder is enabled", func() {
			svc := service.New(service.WithClassifier(c), service.WithCache(mc))
			out, err := svc.PredictDisease(ctx, leaf)

			Convey("Then the fixed placeholder should be returned and not cached", func() {
				So(err, ShouldBeNil)
				So(out.Source, ShouldEqual, model.SourcePlaceholder)
				So(out.Result.Label, ShouldEqual, "Tomato___Early_blight")
				So(out.Result.Plant, ShouldEqual, "Tomato")
				So(out.Result.Confidence, ShouldEqual, 0.85)
				So(mc.entries, ShouldBeEmpty)
			})
		})

		Convey("When the placeholder is disabled", func() {
			svc := service.New(service.WithClassifier(c), service.WithPlaceholder(false))
			_, err := svc.PredictDisease(ctx, leaf)

			Convey("Then unavailability should surface", func() {
				So(errors.Is(err, model.ErrModelUnavailable), ShouldBeTrue)
			})
		})
	})

	Convey("Given a classification abandoned by its caller", t, func() {
		svc := service.New(service.WithClassifier(&fakeClassifier{err: context.Canceled}))

		_, err := svc.PredictDisease(ctx, leaf)

		Convey("Then no placeholder should be served", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestHeuristics(t *testing.T) {
	ctx := context.Background()
	svc := service.New(service.WithSynthesizer(seeded()))

	Convey("Given the health heuristic", t, func() {
		r := svc.HealthCheck(ctx)

		So(r.Status.Valid(), ShouldBeTrue)
		So(r.Confidence, ShouldBeBetweenOrEqual, 0.5, 1.0)
		So(r.Recommendations, ShouldResemble, fallback.Recommendations(r.Status))
	})

	Convey("Given the historical series", t, func() {
		wheat := svc.HistoricalSeries(ctx, "wheat")
		So(wheat, ShouldResemble, []model.HistoricalPoint{
			{Month: "Jan", Yield: 3800}, {Month: "Feb", Yield: 3900}, {Month: "Mar", Yield: 4100},
			{Month: "Apr", Yield: 4300}, {Month: "May", Yield: 4400}, {Month: "Jun", Yield: 4500},
		})

		other := svc.HistoricalSeries(ctx, "unknown-crop")
		So(len(other), ShouldEqual, 6)
		So(other[0].Yield, ShouldBeBetweenOrEqual, 2000, 4000)
		for i := 1; i < len(other); i++ {
			So(other[i].Yield, ShouldBeGreaterThanOrEqualTo, other[i-1].Yield)
		}
	})
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	leaf := service.Upload{Filename: "leaf.png", Data: leafPNG()}

	Convey("Given a started service with a memory recorder", t, func() {
		rec := repository.NewMemoryRecorder()
		svc := service.New(
			service.WithYieldPredictor(&fakePredictor{yield: 4500}),
			service.WithClassifier(&fakeClassifier{result: model.DiseaseResult{Label: "Tomato___healthy", Plant: "Tomato", Condition: "Tomato___healthy", Confidence: 0.99}}),
			service.WithRecorder(rec),
			service.WithWorkerCount(3),
			service.WithQueueSize(64),
		)
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.GetStats()["started"], ShouldEqual, true)

		Convey("When predictions are served and the service stops", func() {
			for i := 0; i < 5; i++ {
				_, err := svc.PredictYield(ctx, model.NewYieldInput("wheat"))
				So(err, ShouldBeNil)
			}
			_, err := svc.PredictDisease(ctx, leaf)
			So(err, ShouldBeNil)
			svc.Stop()

			Convey("Then every record should have reached the recorder", func() {
				all, err := svc.Recent(ctx, "", 0)
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 6)

				diseases, err := svc.Recent(ctx, model.KindDisease, 10)
				So(err, ShouldBeNil)
				So(len(diseases), ShouldEqual, 1)
				So(diseases[0].Label, ShouldEqual, "Tomato___healthy")
				So(diseases[0].ID, ShouldNotBeEmpty)
				So(diseases[0].CreatedAt.IsZero(), ShouldBeFalse)

				yields, err := svc.Recent(ctx, model.KindYield, 2)
				So(err, ShouldBeNil)
				So(len(yields), ShouldEqual, 2)
				So(yields[0].Price, ShouldEqual, 22)
			})

			Convey("Then stats should show it stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
				So(stats["recordsStored"], ShouldEqual, 6)
			})
		})

		Convey("When listing with bad arguments", func() {
			_, err := svc.Recent(ctx, "weather", 1)
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)

			_, err = svc.Recent(ctx, model.KindYield, -1)
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
			svc.Stop()
		})
	})

	Convey("Given a stopped service", t, func() {
		rec := repository.NewMemoryRecorder()
		svc := service.New(service.WithRecorder(rec))

		_, err := svc.PredictYield(ctx, model.NewYieldInput("rice"))
		So(err, ShouldBeNil)
		svc.Stop()

		n, err := rec.Count(ctx)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 0)
	})
}

func TestRetrain(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a predictor", t, func() {
		svc := service.New(service.WithYieldPredictor(&fakePredictor{yield: 1}))

		info, err := svc.Retrain(ctx)
		So(err, ShouldBeNil)
		So(info.Version, ShouldEqual, "v2")
		So(info.Features, ShouldResemble, []string{"soil_quality"})
		So(svc.Models().Tabular, ShouldBeTrue)
	})

	Convey("Given a service without a predictor", t, func() {
		_, err := service.New().Retrain(ctx)
		So(errors.Is(err, model.ErrModelUnavailable), ShouldBeTrue)
		So(service.New().Models(), ShouldResemble, service.ModelStatus{})
	})
}
