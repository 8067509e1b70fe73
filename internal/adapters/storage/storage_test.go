package storage_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/adapters/storage"
	. "github.com/smartystreets/goconvey/convey"
)

func TestUploads(t *testing.T) {
	Convey("Given an upload store in a temp directory", t, func() {
		root := t.TempDir()
		dir := filepath.Join(root, "uploads")
		u := storage.New(dir)
		ctx := context.Background()

		Convey("When saving a payload", func() {
			rel, err := u.Save(ctx, "Leaf.JPG", []byte("jpeg bytes"))

			Convey("Then it should be stored under a random name", func() {
				So(err, ShouldBeNil)
				So(rel, ShouldStartWith, "uploads/")
				So(rel, ShouldEndWith, ".jpg")

				data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "jpeg bytes")
			})

			Convey("Then a second save should not collide", func() {
				other, err := u.Save(ctx, "Leaf.JPG", []byte("more"))
				So(err, ShouldBeNil)
				So(other, ShouldNotEqual, rel)

				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
			})
		})

		Convey("When saving nothing", func() {
			_, err := u.Save(ctx, "leaf.png", nil)
			So(err, ShouldEqual, storage.ErrEmptyUpload)
		})
	})

	Convey("Given client file names", t, func() {
		So(storage.Ext("a.PNG"), ShouldEqual, ".png")
		So(storage.Ext("archive.tar.gz"), ShouldEqual, ".gz")
		So(storage.Ext("noext"), ShouldEqual, "")
		So(storage.Ext("evil.p/hp"), ShouldEqual, "")
		So(storage.Ext("x."+strings.Repeat("a", 10)), ShouldEqual, "")
		So(storage.Ext("../../etc/passwd.sh!"), ShouldEqual, "")
	})
}

func TestUploadsHandler(t *testing.T) {
	Convey("Given a stored upload", t, func() {
		dir := filepath.Join(t.TempDir(), "uploads")
		u := storage.New(dir)
		rel, err := u.Save(context.Background(), "leaf.png", []byte("png bytes"))
		So(err, ShouldBeNil)

		mux := http.NewServeMux()
		mux.Handle("GET "+u.URLPrefix(), u.Handler())
		So(u.URLPrefix(), ShouldEqual, "/uploads/")

		Convey("When its image path is requested", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+rel, http.NoBody))

			Convey("Then the file should be served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "png bytes")
			})
		})

		Convey("When the directory itself is requested", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When an unknown file is requested", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
