package disease

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
)

// labelSeparator splits plant and condition in PlantVillage class names.
const labelSeparator = "___"

// DefaultLabels is the PlantVillage class table in training folder order.
var DefaultLabels = []string{
	"Pepper__bell___Bacterial_spot",
	"Pepper__bell___healthy",
	"Potato___Early_blight",
	"Potato___Late_blight",
	"Potato___healthy",
	"Tomato___Bacterial_spot",
	"Tomato___Early_blight",
	"Tomato___Late_blight",
	"Tomato___Leaf_Mold",
	"Tomato___Septoria_leaf_spot",
	"Tomato___Spider_mites Two-spotted_spider_mite",
	"Tomato___Target_Spot",
	"Tomato___Tomato_Yellow_Leaf_Curl_Virus",
	"Tomato___Tomato_mosaic_virus",
	"Tomato___healthy",
}

// PlaceholderLabel and PlaceholderConfidence make up the fixed answer
// served while no image model is loaded.
const (
	PlaceholderLabel      = "Tomato___Early_blight"
	PlaceholderConfidence = 0.85
)

// Placeholder returns the fixed stand-in result.
func Placeholder() model.DiseaseResult {
	return ParseLabel(PlaceholderLabel, PlaceholderConfidence)
}

// ParseLabel splits a class name into a result. Condition keeps the full
// class name; plant is the part before the separator with underscores as
// spaces, e.g. Pepper__bell___healthy -> "Pepper bell".
func ParseLabel(label string, confidence float64) model.DiseaseResult {
	plant := label
	if i := strings.Index(label, labelSeparator); i >= 0 {
		plant = label[:i]
	}
	plant = strings.Join(strings.FieldsFunc(plant, func(r rune) bool { return r == '_' }), " ")
	return model.DiseaseResult{
		Label:      label,
		Plant:      plant,
		Condition:  label,
		Confidence: math.Round(confidence*10000) / 10000,
	}
}

// LoadLabels reads a label table. Two layouts are accepted: a JSON array in
// index order, or a class_indices object mapping label to index. Indices
// must cover 0..n-1 exactly once.
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadLabels, err)
	}
	return ParseLabels(data)
}

// ParseLabels decodes either label table layout.
func ParseLabels(data []byte) ([]string, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: empty table", ErrBadLabels)
		}
		return list, nil
	}

	var indices map[string]int
	if err := json.Unmarshal(data, &indices); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadLabels, err)
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrBadLabels)
	}
	labels := make([]string, len(indices))
	for label, idx := range indices {
		if idx < 0 || idx >= len(labels) || labels[idx] != "" {
			return nil, fmt.Errorf("%w: index %d for %q", ErrBadLabels, idx, label)
		}
		labels[idx] = label
	}
	return labels, nil
}
