package loadtest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/http/api"
	service "github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/app"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/fallback"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	svc := service.New(service.WithSynthesizer(fallback.New(fallback.WithSeed(11))))
	if err := svc.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a service without a trained model", t, func() {
		srv := newTestServer(t)
		out := filepath.Join(t.TempDir(), "runs", "requests.json")
		cfg := &Config{
			BaseURL:    srv.URL,
			Requests:   200,
			Workers:    4,
			Timeout:    5 * time.Second,
			Seed:       99,
			OutputFile: out,
		}

		Convey("When a load run completes", func() {
			stats, err := Run(context.Background(), cfg)

			Convey("Then every response should honor the contract", func() {
				So(err, ShouldBeNil)
				So(stats.Generated, ShouldEqual, 200)
				So(stats.Submitted, ShouldEqual, 200)
				So(stats.Violations, ShouldEqual, 0)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Succeeded+stats.Rejected, ShouldEqual, 200)
				So(stats.Fallbacks, ShouldBeGreaterThan, 0)
				_, statErr := os.Stat(out)
				So(statErr, ShouldBeNil)
			})
		})
	})

	Convey("Given no service", t, func() {
		cfg := &Config{BaseURL: "http://127.0.0.1:1", Requests: 1, Workers: 1, Timeout: time.Second}

		_, err := Run(context.Background(), cfg)
		So(err, ShouldNotBeNil)
	})
}

func TestGenerateRequests(t *testing.T) {
	Convey("Given a seed", t, func() {
		cfg := &Config{Requests: 500, Seed: 5}

		a := generateRequests(context.Background(), cfg, &Stats{})
		b := generateRequests(context.Background(), cfg, &Stats{})

		Convey("Then the mix should be reproducible and cover every kind", func() {
			kinds := map[string]int{}
			for i := range a {
				So(a[i].Kind, ShouldEqual, b[i].Kind)
				So(a[i].Crop, ShouldEqual, b[i].Crop)
				kinds[a[i].Kind]++
			}
			So(kinds[KindPredict], ShouldBeGreaterThan, 0)
			So(kinds[KindMalformed], ShouldBeGreaterThan, 0)
			So(kinds[KindHistory], ShouldBeGreaterThan, 0)
			So(kinds[KindHealth], ShouldBeGreaterThan, 0)
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given yield responses", t, func() {
		r := Request{Kind: KindPredict, Crop: "rice"}

		Convey("Then a well formed fallback answer should pass", func() {
			outcome, fb, err := verify(r, 200, []byte(`{"crop":"rice","yield":6010,"price":28.01,"status":"warning","source":"fallback"}`))
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, outcomeSuccess)
			So(fb, ShouldBeTrue)
		})

		Convey("Then a fractional yield should be a violation", func() {
			outcome, _, err := verify(r, 200, []byte(`{"crop":"rice","yield":6010.5,"price":28,"status":"warning","source":"model"}`))
			So(errors.Is(err, errContract), ShouldBeTrue)
			So(outcome, ShouldEqual, outcomeViolation)
		})

		Convey("Then an unrounded price should be a violation", func() {
			outcome, _, _ := verify(r, 200, []byte(`{"crop":"rice","yield":6010,"price":28.001,"status":"warning","source":"model"}`))
			So(outcome, ShouldEqual, outcomeViolation)
		})

		Convey("Then an unknown status should be a violation", func() {
			outcome, _, _ := verify(r, 200, []byte(`{"crop":"rice","yield":6010,"price":28,"status":"sick","source":"model"}`))
			So(outcome, ShouldEqual, outcomeViolation)
		})

		Convey("Then a server error should count as failed", func() {
			outcome, _, err := verify(r, 503, []byte(`{"error":"x"}`))
			So(err, ShouldNotBeNil)
			So(outcome, ShouldEqual, outcomeFailed)
		})
	})

	Convey("Given malformed requests", t, func() {
		r := Request{Kind: KindMalformed}

		outcome, _, err := verify(r, 400, []byte(`{"error":"soil_quality must be a number","code":"invalid_input"}`))
		So(err, ShouldBeNil)
		So(outcome, ShouldEqual, outcomeRejected)

		outcome, _, _ = verify(r, 400, []byte(`{}`))
		So(outcome, ShouldEqual, outcomeViolation)

		outcome, _, _ = verify(r, 200, []byte(`{}`))
		So(outcome, ShouldEqual, outcomeFailed)
	})

	Convey("Given history responses", t, func() {
		r := Request{Kind: KindHistory, Crop: "wheat"}
		good := `[{"month":"Jan","yield":4200},{"month":"Feb","yield":4350},{"month":"Mar","yield":4500},` +
			`{"month":"Apr","yield":4650},{"month":"May","yield":4800},{"month":"Jun","yield":4950}]`
		short := `[{"month":"Jan","yield":4200}]`
		falling := `[{"month":"Jan","yield":4200},{"month":"Feb","yield":4100},{"month":"Mar","yield":4500},` +
			`{"month":"Apr","yield":4650},{"month":"May","yield":4800},{"month":"Jun","yield":4950}]`

		outcome, _, _ := verify(r, 200, []byte(good))
		So(outcome, ShouldEqual, outcomeSuccess)
		outcome, _, _ = verify(r, 200, []byte(short))
		So(outcome, ShouldEqual, outcomeViolation)
		outcome, _, _ = verify(r, 200, []byte(falling))
		So(outcome, ShouldEqual, outcomeViolation)
	})

	Convey("Given health responses", t, func() {
		r := Request{Kind: KindHealth}

		outcome, _, _ := verify(r, 200, []byte(`{"status":"danger","confidence":0.74,"recommendations":["Immediate intervention required"]}`))
		So(outcome, ShouldEqual, outcomeSuccess)
		outcome, _, _ = verify(r, 200, []byte(`{"status":"healthy","confidence":0.5,"recommendations":["x"]}`))
		So(outcome, ShouldEqual, outcomeViolation)
		outcome, _, _ = verify(r, 200, []byte(`{"status":"warning","confidence":0.7,"recommendations":[]}`))
		So(outcome, ShouldEqual, outcomeViolation)
	})
}
