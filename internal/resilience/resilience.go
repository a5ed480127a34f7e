// Package resilience wraps outbound calls with a circuit breaker and
// jittered exponential retry.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrExhaustedRetries wraps the last error after the final attempt.
	ErrExhaustedRetries = errors.New("retry attempts exhausted")
)

// BreakerConfig configures a Breaker. Zero values take defaults.
type BreakerConfig struct {
	Name          string
	MaxFailures   uint32
	OpenTimeout   time.Duration
	HalfOpenLimit uint32
	ResetInterval time.Duration
	// Ignore reports errors that are answers rather than faults.
	// They are returned to the caller without counting as failures.
	Ignore func(error) bool
}

// Breaker is a named circuit breaker.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreaker creates a Breaker.
func NewBreaker(cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenLimit == 0 {
		cfg.HalfOpenLimit = 1
	}
	if cfg.ResetInterval <= 0 {
		cfg.ResetInterval = time.Minute
	}
	log := logger.With("component", "circuit_breaker", "breaker", cfg.Name)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenLimit,
		Interval:    cfg.ResetInterval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	}
	if cfg.Ignore != nil {
		ignore := cfg.Ignore
		settings.IsSuccessful = func(err error) bool {
			return err == nil || ignore(err)
		}
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), logger: log}
}

// State returns the breaker state name (closed, half-open, open).
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Execute runs op unless the circuit is open.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, op(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return err
}

// RetryConfig configures Retry.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	RandomFactor    float64
}

// DefaultRetryConfig suits short HTTP lookups.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
		RandomFactor:    0.1,
	}
}

// Retry runs op until it succeeds, retryable rejects its error, the context
// ends or the attempts run out.
func Retry(ctx context.Context, cfg RetryConfig, retryable func(error) bool, op func(context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	interval := cfg.InitialInterval

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrCircuitOpen) || (retryable != nil && !retryable(err)) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		slog.Debug("Operation failed, retrying", "attempt", attempt, "next_interval", interval, "error", err)
		timer := time.NewTimer(jitter(interval, cfg.RandomFactor))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		interval = time.Duration(float64(interval) * cfg.Multiplier)
		if cfg.MaxInterval > 0 && interval > cfg.MaxInterval {
			interval = cfg.MaxInterval
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhaustedRetries, cfg.MaxAttempts, lastErr)
}

func jitter(d time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return d
	}
	return time.Duration(float64(d) * (1 + factor*(2*rand.Float64()-1)))
}
