// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and the environment on top of New().
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Disease classifier backends.
const (
	BackendNative = "native"
	BackendONNX   = "onnx"
)

// Prediction recorders.
const (
	RecorderMemory   = "memory"
	RecorderPostgres = "postgres"
	RecorderNone     = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// ModelDir is where relative model file names are resolved.
	ModelDir string `koanf:"model_dir"`

	// TabularModelFile is the persisted yield model bundle.
	TabularModelFile string `koanf:"tabular_model_file"`

	// AutoTrain trains and persists a yield model on first use when none exists.
	AutoTrain bool `koanf:"auto_train"`

	// TrainingSeed and TrainingSamples shape the synthetic training set.
	TrainingSeed    int64 `koanf:"training_seed"`
	TrainingSamples int   `koanf:"training_samples"`

	// RidgeLambda is the L2 penalty of the yield regressor.
	RidgeLambda float64 `koanf:"ridge_lambda"`

	// Warmup loads both models at startup instead of on first request.
	Warmup bool `koanf:"warmup"`

	// DiseaseBackend selects the classifier runtime: native or onnx.
	DiseaseBackend string `koanf:"disease_backend"`

	// DiseaseModelFile is the persisted image classifier.
	DiseaseModelFile string `koanf:"disease_model_file"`

	// DiseaseLabelsFile optionally overrides the built-in label table.
	DiseaseLabelsFile string `koanf:"disease_labels_file"`

	// OnnxLibraryPath points at the onnxruntime shared library.
	OnnxLibraryPath string `koanf:"onnx_library_path"`

	// DiseasePlaceholder answers with a fixed result when no image model is loaded.
	DiseasePlaceholder bool `koanf:"disease_placeholder"`

	// MaxUploadBytes caps the multipart body of /predict-disease.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// UploadDir keeps uploaded leaf images when set.
	UploadDir string `koanf:"upload_dir"`

	// Recorder selects where prediction history goes: memory, postgres or none.
	Recorder string `koanf:"recorder"`

	// PostgresDSN is required by the postgres recorder.
	PostgresDSN string `koanf:"postgres_dsn"`

	// HistoryLimit bounds the in-memory recorder and GET /predictions?limit.
	HistoryLimit int `koanf:"history_limit"`

	// RecordQueueSize and RecordWorkers size the history pipeline.
	RecordQueueSize int `koanf:"record_queue_size"`
	RecordWorkers   int `koanf:"record_workers"`

	// RedisURL enables the disease result cache when set.
	RedisURL string `koanf:"redis_url"`

	// CacheTTLSeconds is the lifetime of cached disease results.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// RandomSeed seeds the fallback generator. Zero seeds from the clock.
	RandomSeed int64 `koanf:"random_seed"`

	// MetricsNamespace and MetricsSubsystem prefix every exported series.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// LatencyBucketsMs overrides the latency histogram buckets (YAML list).
	LatencyBucketsMs []float64 `koanf:"latency_buckets_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":5000",
		ModelDir:           "models",
		TabularModelFile:   "yield_model.json",
		AutoTrain:          true,
		TrainingSeed:       42,
		TrainingSamples:    1000,
		RidgeLambda:        1.0,
		DiseaseBackend:     BackendNative,
		DiseaseModelFile:   "disease_model.json",
		DiseasePlaceholder: true,
		MaxUploadBytes:     10 << 20,
		Recorder:           RecorderMemory,
		HistoryLimit:       1000,
		RecordQueueSize:    1024,
		RecordWorkers:      2,
		CacheTTLSeconds:    3600,
		MetricsNamespace:   "agri",
		MetricsSubsystem:   "serving",
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.DiseaseBackend {
	case BackendNative, BackendONNX:
	default:
		return fmt.Errorf("%w: unknown disease_backend %q", ErrInvalidConfig, c.DiseaseBackend)
	}
	switch c.Recorder {
	case RecorderMemory, RecorderNone:
	case RecorderPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres recorder needs postgres_dsn", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown recorder %q", ErrInvalidConfig, c.Recorder)
	}
	if c.TrainingSamples < 10 {
		return fmt.Errorf("%w: training_samples must be at least 10", ErrInvalidConfig)
	}
	if c.RidgeLambda < 0 {
		return fmt.Errorf("%w: ridge_lambda must not be negative", ErrInvalidConfig)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	if !metricName.MatchString(c.MetricsNamespace) || !metricName.MatchString(c.MetricsSubsystem) {
		return fmt.Errorf("%w: metrics_namespace and metrics_subsystem must be metric name tokens", ErrInvalidConfig)
	}
	for i := 1; i < len(c.LatencyBucketsMs); i++ {
		if c.LatencyBucketsMs[i] <= c.LatencyBucketsMs[i-1] {
			return fmt.Errorf("%w: latency_buckets_ms must increase strictly", ErrInvalidConfig)
		}
	}
	return nil
}

// TabularModelPath resolves the yield model bundle location.
func (c *Config) TabularModelPath() string {
	return c.resolve(c.TabularModelFile)
}

// DiseaseModelPath resolves the image classifier location.
func (c *Config) DiseaseModelPath() string {
	return c.resolve(c.DiseaseModelFile)
}

// DiseaseLabelsPath resolves the label table override, if any.
func (c *Config) DiseaseLabelsPath() string {
	if c.DiseaseLabelsFile == "" {
		return ""
	}
	return c.resolve(c.DiseaseLabelsFile)
}

// CacheTTL returns the disease cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ModelDir, name)
}
