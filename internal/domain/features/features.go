// Package features turns yield requests into the positional vectors the
// regressor was trained on.
package features

import (
	"math"
	"strings"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/crop"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
)

// Numeric feature names in encoding order.
const (
	SoilQuality = "soil_quality"
	Rainfall    = "rainfall"
	Temperature = "temperature"
	Area        = "area"
	Fertilizer  = "fertilizer"
)

// Range is the closed interval a numeric feature must fall in.
type Range struct {
	Min, Max float64
}

// Ranges bounds every numeric feature. Values outside them are rejected
// before they reach a model.
var Ranges = map[string]Range{
	SoilQuality: {0, 10},
	Rainfall:    {0, 10000},
	Temperature: {-50, 60},
	Area:        {0, 10000},
	Fertilizer:  {0, 1000},
}

// CropPrefix prefixes one-hot crop indicator names, e.g. crop_rice.
const CropPrefix = "crop_"

// NumericNames lists the numeric features in encoding order.
var NumericNames = []string{SoilQuality, Rainfall, Temperature, Area, Fertilizer}

// Vector is an ordered named feature vector. Names and Values have equal length.
type Vector struct {
	Names  []string
	Values []float64
}

// Len returns the number of entries.
func (v Vector) Len() int { return len(v.Values) }

// Get returns the value stored under name.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Encoder builds feature vectors. It holds no mutable state and is safe for
// concurrent use.
type Encoder struct {
	categories []string
}

// NewEncoder returns an encoder over the catalog's one-hot crops unless
// WithCategories says otherwise.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{categories: crop.OneHotCategories()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Names returns the full computed layout: numeric features then one
// indicator per category.
func (e *Encoder) Names() []string {
	names := make([]string, 0, len(NumericNames)+len(e.categories))
	names = append(names, NumericNames...)
	for _, c := range e.categories {
		names = append(names, CropPrefix+c)
	}
	return names
}

// Encode validates in, computes every feature and projects the result onto
// order. Names in order that were not computed are zero. An unknown crop
// leaves every indicator at zero.
func (e *Encoder) Encode(in model.YieldInput, order []string) (Vector, error) {
	if err := Validate(in); err != nil {
		return Vector{}, err
	}
	return Project(order, e.compute(in)), nil
}

func (e *Encoder) compute(in model.YieldInput) map[string]float64 {
	computed := map[string]float64{
		SoilQuality: in.SoilQuality,
		Rainfall:    in.Rainfall,
		Temperature: in.Temperature,
		Area:        in.Area,
		Fertilizer:  in.Fertilizer,
	}
	name := crop.Normalize(in.Crop)
	for _, c := range e.categories {
		v := 0.0
		if c == name {
			v = 1.0
		}
		computed[CropPrefix+c] = v
	}
	return computed
}

// Project lays computed values out positionally along order, defaulting
// absent names to zero.
func Project(order []string, computed map[string]float64) Vector {
	v := Vector{
		Names:  make([]string, len(order)),
		Values: make([]float64, len(order)),
	}
	copy(v.Names, order)
	for i, name := range order {
		v.Values[i] = computed[name]
	}
	return v
}

// Validate rejects inputs that must not reach a model.
func Validate(in model.YieldInput) error {
	const op = "features.validate"
	if strings.TrimSpace(in.Crop) == "" {
		return model.Invalid(op, "crop is required")
	}
	numeric := []struct {
		name  string
		value float64
	}{
		{SoilQuality, in.SoilQuality},
		{Rainfall, in.Rainfall},
		{Temperature, in.Temperature},
		{Area, in.Area},
		{Fertilizer, in.Fertilizer},
	}
	for _, f := range numeric {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return model.Invalid(op, "%s must be a finite number", f.name)
		}
		r := Ranges[f.name]
		if f.value < r.Min || f.value > r.Max {
			return model.Invalid(op, "%s must be between %g and %g", f.name, r.Min, r.Max)
		}
	}
	return nil
}
