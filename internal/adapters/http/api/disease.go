package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	service "github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/app"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/metrics"
)

// uploadFields are the multipart fields searched for the image, in order.
var uploadFields = []string{"file", "image"}

type diseasePrediction struct {
	Plant      string  `json:"plant"`
	Condition  string  `json:"condition"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// diseaseResponse carries the prediction under both keys used by clients.
type diseaseResponse struct {
	Success    bool               `json:"success"`
	Prediction *diseasePrediction `json:"prediction,omitempty"`
	Result     *diseasePrediction `json:"result,omitempty"`
	Source     string             `json:"source,omitempty"`
	ImagePath  string             `json:"image_path,omitempty"`
	Error      string             `json:"error,omitempty"`
	Code       string             `json:"code,omitempty"`
}

// HandlePredictDisease handles POST /predict-disease with a multipart image.
func (s *Server) HandlePredictDisease(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.failDisease(w, r, err)
		return
	}
	out, err := s.deps.PredictDisease(r.Context(), up)
	if err != nil {
		s.failDisease(w, r, err)
		return
	}
	p := &diseasePrediction{
		Plant:      out.Result.Plant,
		Condition:  out.Result.Condition,
		Label:      out.Result.Label,
		Confidence: out.Result.Confidence,
	}
	writeJSON(w, http.StatusOK, diseaseResponse{
		Success:    true,
		Prediction: p,
		Result:     p,
		Source:     string(out.Source),
		ImagePath:  out.ImagePath,
	})
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (service.Upload, error) {
	if r.ContentLength > s.maxUploadBytes {
		return service.Upload{}, &http.MaxBytesError{Limit: s.maxUploadBytes}
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return service.Upload{}, err
		}
		return service.Upload{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp files only

	for _, field := range uploadFields {
		file, hdr, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return service.Upload{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return readPart(file, hdr)
	}
	return service.Upload{}, fmt.Errorf("%w: %w", ErrBadRequest, ErrMissingFile)
}

func readPart(file multipart.File, hdr *multipart.FileHeader) (service.Upload, error) {
	defer file.Close() //nolint:errcheck // read only
	data, err := io.ReadAll(file)
	if err != nil {
		return service.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	metrics.RecordUploadBytes(len(data))
	return service.Upload{Filename: hdr.Filename, Data: data}, nil
}

func (s *Server) failDisease(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	switch {
	case errors.Is(err, model.ErrModelUnavailable):
		msg = "disease model unavailable"
	case status >= http.StatusInternalServerError:
		s.logger.Error(r.Context(), "disease prediction failed",
			logger.String("request_id", w.Header().Get(requestIDHeader)),
			logger.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, diseaseResponse{Success: false, Error: msg, Code: code})
}
