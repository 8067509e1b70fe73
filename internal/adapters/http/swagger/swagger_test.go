package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/knadh/koanf/parsers/yaml"
	. "github.com/smartystreets/goconvey/convey"
)

// served lists every route the serving binary mounts, keyed by document path.
var served = map[string][]string{
	"/predict":         {"post"},
	"/health-check":    {"post"},
	"/historical-data": {"get"},
	"/predict-disease": {"post"},
	"/uploads/{name}":  {"get"},
	"/predictions":     {"get"},
	"/admin/retrain":   {"post"},
	"/healthz":         {"get"},
	"/stats":           {"get"},
	"/metrics":         {"get"},
}

func docsMux() *http.ServeMux {
	mux := http.NewServeMux()
	Register(context.Background(), mux)
	return mux
}

func get(mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, path, http.NoBody))
	return w
}

func TestDocsPage(t *testing.T) {
	Convey("Given the docs routes", t, func() {
		mux := docsMux()

		Convey("When the ReDoc page is requested", func() {
			w := get(mux, http.MethodGet, "/api-docs")

			Convey("Then it should render HTML pointing at the served document", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "<title>Smart Agriculture API - ReDoc</title>")
				So(w.Body.String(), ShouldContainSubstring, "Redoc.init('/openapi.yaml'")
			})
		})

		Convey("When a docs route is posted to", func() {
			Convey("Then the mux should reject the method", func() {
				So(get(mux, http.MethodPost, "/api-docs").Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(get(mux, http.MethodDelete, "/openapi.yaml").Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestOpenAPIDocument(t *testing.T) {
	Convey("Given the served OpenAPI document", t, func() {
		w := get(docsMux(), http.MethodGet, "/openapi.yaml")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Header().Get("Content-Type"), ShouldStartWith, "application/yaml")
		So(w.Body.Bytes(), ShouldResemble, OpenAPI)

		doc, err := yaml.Parser().Unmarshal(w.Body.Bytes())
		So(err, ShouldBeNil)

		Convey("Then it should parse as OpenAPI 3", func() {
			version, _ := doc["openapi"].(string)
			So(strings.HasPrefix(version, "3."), ShouldBeTrue)
		})

		Convey("Then every served route should be documented with its method", func() {
			paths, ok := doc["paths"].(map[string]any)
			So(ok, ShouldBeTrue)
			for path, methods := range served {
				item, ok := paths[path].(map[string]any)
				So(ok, ShouldBeTrue)
				for _, m := range methods {
					So(item, ShouldContainKey, m)
				}
			}
		})

		Convey("Then it should not document routes the binary does not serve", func() {
			paths := doc["paths"].(map[string]any)
			for path := range paths {
				So(served, ShouldContainKey, path)
			}
		})
	})
}

func TestRegisterNilMux(t *testing.T) {
	Convey("Registering on a nil mux should panic", t, func() {
		So(func() { Register(context.Background(), nil) }, ShouldPanic)
	})
}
