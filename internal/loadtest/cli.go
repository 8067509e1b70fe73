package loadtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

// SetupLogging sends logs to both stdout and a file. If logFile is empty a
// timestamped name is generated.
func SetupLogging(logFile string) (string, error) {
	if logFile == "" {
		logFile = "loadtest_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logFile, nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	os.Stdout.WriteString(`Smart Agriculture Load Tool
===========================

Drives /predict, /historical-data and /health-check concurrently and checks
every response against the API contract.

Usage:
  go run ./cmd/loadtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:5000")
  -requests int
        Number of requests to generate (default 2000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed int
        Seed of the request mix (default: clock)
  -output string
        Save the generated requests to this JSON file
  -log string
        Log file (default: loadtest_TIMESTAMP.log)
  -verbose
        Log every failed or violating response
  -help
        Show this help message

Exit status is non-zero when any response breaks the contract.
`)
}
