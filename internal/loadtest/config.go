// Package loadtest drives the prediction API concurrently and checks every
// response against the wire contract.
package loadtest

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Requests   int           // Number of requests to generate
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Seed       int64         // Seed of the request generator; zero uses the clock
	OutputFile string        // Where generated requests are saved, if set
	LogFile    string        // Log file for test output
	Verbose    bool          // Log every violation
}

// Request kinds.
const (
	KindPredict   = "predict"
	KindMalformed = "malformed"
	KindHistory   = "history"
	KindHealth    = "health"
)

// Request is one generated call.
type Request struct {
	ID   string         `json:"id"`
	Kind string         `json:"kind"`
	Crop string         `json:"crop,omitempty"`
	Body map[string]any `json:"body,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Succeeded  int
	Rejected   int // malformed requests answered with 4xx, as expected
	Failed     int // transport errors and unexpected status codes
	Violations int // 2xx/4xx bodies breaking the contract
	Fallbacks  int // yield answers served by the fallback
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
