package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 500
)

// HandleRecent handles GET /predictions?kind=yield|disease&limit=N.
func (s *Server) HandleRecent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultRecentLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRecentLimit {
			s.fail(w, r, fmt.Errorf("%w: limit must be between 1 and %d", ErrBadRequest, maxRecentLimit))
			return
		}
		limit = n
	}
	records, err := s.deps.Recent(r.Context(), model.RecordKind(q.Get("kind")), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if records == nil {
		records = []model.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleRetrain handles POST /admin/retrain.
func (s *Server) HandleRetrain(w http.ResponseWriter, r *http.Request) {
	info, err := s.deps.Retrain(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
