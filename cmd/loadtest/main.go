package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/loadtest"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

// Default configuration constants.
const (
	defaultRequests = 2000
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultTimeout  = 30 * time.Second
	defaultRunLimit = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:5000", "Base URL of the service")
		requests   = flag.Int("requests", defaultRequests, "Number of requests to generate")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Int64("seed", 0, "Seed of the request mix (default: clock)")
		outputFile = flag.String("output", "", "Save the generated requests to this JSON file")
		logFile    = flag.String("log", "", "Log file (default: loadtest_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Log every failed or violating response")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	path, err := loadtest.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:    *baseURL,
		Requests:   *requests,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		OutputFile: *outputFile,
		LogFile:    path,
		Verbose:    *verbose,
	}

	if _, err := loadtest.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: cancel is called explicitly above
	}
}
