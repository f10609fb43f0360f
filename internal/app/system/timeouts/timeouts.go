// Package timeouts holds the process-wide deadlines for health pings,
// HTTP requests and background jobs. Values are set once from AppConfig
// during startup; the accessors are safe for concurrent use.
package timeouts

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing    = 2 * time.Second
	DefaultRequest = 30 * time.Second
	DefaultJob     = 5 * time.Minute
)

var (
	mu      sync.RWMutex
	ping    = DefaultPing
	request = DefaultRequest
	job     = DefaultJob
)

// Ping returns the deadline for database health pings.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Request returns the per-request deadline enforced by the router.
func Request() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return request
}

// Job returns the deadline for a single run of a background job.
func Job() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return job
}

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping    time.Duration
	Request time.Duration
	Job     time.Duration
}

// Configure applies the non-zero values of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Request > 0 {
		request = cfg.Request
	}
	if cfg.Job > 0 {
		job = cfg.Job
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, request, job = DefaultPing, DefaultRequest, DefaultJob
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Request: request, Job: job}
}

// WithTimeout derives a context bounded by timeout. The returned cancel
// logs a warning when the deadline, not the parent, ended the operation.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
