package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// ErrViolations is returned when any response broke the contract.
var ErrViolations = fmt.Errorf("%w found", errContract)

// Run executes a complete load run and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("loadtest")

	log.Info(ctx, "starting load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := newHTTPClient(cfg.Timeout)
	if err := checkServiceHealth(ctx, client, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	requests := generateRequests(ctx, cfg, stats)
	submit(ctx, client, cfg, requests, stats)

	if cfg.OutputFile != "" {
		if err := saveRequests(cfg.OutputFile, requests); err != nil {
			log.Warn(ctx, "failed to save requests", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Violations > 0 {
		return stats, fmt.Errorf("%d %w", stats.Violations, ErrViolations)
	}
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, cfg *Config) error {
	status, _, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	return nil
}

// submit sends requests through a pool of cfg.Workers goroutines.
func submit(ctx context.Context, client *HTTPClient, cfg *Config, requests []Request, stats *Stats) {
	log := logger.Get().Named("loadtest")
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var succeeded, rejected, failed, violations, fallbacks, submitted int64
	ch := make(chan Request, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range ch {
				status, body, err := call(ctx, client, cfg.BaseURL, r)
				atomic.AddInt64(&submitted, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "request failed", logger.String("id", r.ID), logger.Error(err))
					}
					continue
				}
				outcome, fb, verr := verify(r, status, body)
				if fb {
					atomic.AddInt64(&fallbacks, 1)
				}
				switch outcome {
				case outcomeSuccess:
					atomic.AddInt64(&succeeded, 1)
				case outcomeRejected:
					atomic.AddInt64(&rejected, 1)
				case outcomeFailed:
					atomic.AddInt64(&failed, 1)
				case outcomeViolation:
					atomic.AddInt64(&violations, 1)
				}
				if verr != nil && cfg.Verbose {
					log.Warn(ctx, "unexpected response",
						logger.String("id", r.ID),
						logger.String("kind", r.Kind),
						logger.Int("status", status),
						logger.Error(verr))
				}
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, r := range requests {
			select {
			case <-ctx.Done():
				return
			case ch <- r:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Succeeded = int(atomic.LoadInt64(&succeeded))
	stats.Rejected = int(atomic.LoadInt64(&rejected))
	stats.Failed = int(atomic.LoadInt64(&failed))
	stats.Violations = int(atomic.LoadInt64(&violations))
	stats.Fallbacks = int(atomic.LoadInt64(&fallbacks))
}

func call(ctx context.Context, client *HTTPClient, base string, r Request) (int, []byte, error) {
	switch r.Kind {
	case KindPredict, KindMalformed:
		return client.Post(ctx, base+"/predict", r.Body)
	case KindHistory:
		return client.Get(ctx, base+"/historical-data?crop="+url.QueryEscape(r.Crop))
	case KindHealth:
		return client.Post(ctx, base+"/health-check", nil)
	default:
		return 0, nil, fmt.Errorf("unknown request kind %q", r.Kind)
	}
}

// saveRequests writes the generated requests as a JSON array.
func saveRequests(filename string, requests []Request) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(requests, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal requests: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Succeeded+stats.Rejected) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", stats.Violations),
		logger.Int("fallbacks", stats.Fallbacks),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", perSecond))
}
