// Package model contains domain models passed between layers.
package model

import "time"

// HealthStatus is the three-way crop health category.
type HealthStatus string

// Health statuses in decreasing order of wellbeing.
const (
	StatusHealthy HealthStatus = "healthy"
	StatusWarning HealthStatus = "warning"
	StatusDanger  HealthStatus = "danger"
)

// Valid reports whether s is one of the known statuses.
func (s HealthStatus) Valid() bool {
	switch s {
	case StatusHealthy, StatusWarning, StatusDanger:
		return true
	}
	return false
}

// Source tells where a prediction value came from.
type Source string

// Prediction sources.
const (
	SourceModel       Source = "model"
	SourceFallback    Source = "fallback"
	SourcePlaceholder Source = "placeholder"
	SourceCache       Source = "cache"
)

// Default agronomic inputs applied when a request omits a field.
const (
	DefaultSoilQuality = 5.0
	DefaultRainfall    = 1000.0
	DefaultTemperature = 25.0
	DefaultArea        = 1.0
	DefaultFertilizer  = 100.0
)

// YieldInput is a raw yield prediction request.
type YieldInput struct {
	Crop        string
	SoilQuality float64
	Rainfall    float64
	Temperature float64
	Area        float64
	Fertilizer  float64
}

// NewYieldInput returns an input for crop with every numeric field defaulted.
func NewYieldInput(crop string) YieldInput {
	return YieldInput{
		Crop:        crop,
		SoilQuality: DefaultSoilQuality,
		Rainfall:    DefaultRainfall,
		Temperature: DefaultTemperature,
		Area:        DefaultArea,
		Fertilizer:  DefaultFertilizer,
	}
}

// PredictionResult is the outcome of a yield prediction. Status is an
// independent draw and carries no information about Yield.
type PredictionResult struct {
	Crop   string
	Yield  float64
	Price  float64
	Status HealthStatus
	Source Source
}

// DiseaseResult is the outcome of a leaf image classification.
type DiseaseResult struct {
	Label      string  `json:"label"`
	Plant      string  `json:"plant"`
	Condition  string  `json:"condition"`
	Confidence float64 `json:"confidence"`
}

// DiseaseOutcome wraps a DiseaseResult with serving metadata.
type DiseaseOutcome struct {
	Result    DiseaseResult
	Source    Source
	ImagePath string
}

// HealthReport is the response of the crop health heuristic.
type HealthReport struct {
	Status          HealthStatus
	Confidence      float64
	Recommendations []string
}

// HistoricalPoint is one period of a historical yield series.
type HistoricalPoint struct {
	Month string
	Yield int
}

// RecordKind distinguishes prediction history entries.
type RecordKind string

// Record kinds.
const (
	KindYield   RecordKind = "yield"
	KindDisease RecordKind = "disease"
)

// Record is a prediction history entry handed to the recorder.
type Record struct {
	ID         string       `json:"id" db:"id"`
	Kind       RecordKind   `json:"kind" db:"kind"`
	Source     Source       `json:"source" db:"source"`
	Crop       string       `json:"crop,omitempty" db:"crop"`
	Yield      float64      `json:"yield,omitempty" db:"yield"`
	Price      float64      `json:"price,omitempty" db:"price"`
	Status     HealthStatus `json:"status,omitempty" db:"status"`
	Label      string       `json:"label,omitempty" db:"label"`
	Plant      string       `json:"plant,omitempty" db:"plant"`
	Condition  string       `json:"condition,omitempty" db:"condition"`
	Confidence float64      `json:"confidence,omitempty" db:"confidence"`
	ImagePath  string       `json:"image_path,omitempty" db:"image_path"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}
