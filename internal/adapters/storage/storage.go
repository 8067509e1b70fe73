// Package storage keeps uploaded leaf images on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

// ErrEmptyUpload is returned for zero-length payloads.
var ErrEmptyUpload = errors.New("empty upload")

const maxExtLen = 5

// Uploads writes each payload under dir with a random name.
type Uploads struct {
	dir string
	log logger.Logger
}

// New creates an upload store rooted at dir.
func New(dir string, opts ...Option) *Uploads {
	u := &Uploads{dir: dir, log: logger.Get().Named("storage")}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Dir returns the root directory.
func (u *Uploads) Dir() string { return u.dir }

// URLPrefix is the URL path under which Handler serves the paths Save
// returns, e.g. "/uploads/".
func (u *Uploads) URLPrefix() string {
	return "/" + filepath.Base(u.dir) + "/"
}

// Handler serves stored uploads below URLPrefix. Directory listings are
// refused.
func (u *Uploads) Handler() http.Handler {
	files := http.StripPrefix(u.URLPrefix(), http.FileServer(http.Dir(u.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// Save stores data and returns its path relative to the parent of the
// upload directory, e.g. "uploads/3f2c...e1.jpg".
func (u *Uploads) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyUpload
	}
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + Ext(filename)
	tmp, err := os.CreateTemp(u.dir, ".upload-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp upload: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(u.dir, name)); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	rel := path.Join(filepath.Base(u.dir), name)
	u.log.Debug(ctx, "upload stored", logger.String("path", rel), logger.Int("bytes", len(data)))
	return rel, nil
}

// Ext returns the lower-cased extension of a client file name, or "" when
// it is missing or not a short alphanumeric suffix.
func Ext(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > maxExtLen+1 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
