package database

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"net"
	"time"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration

	// BackoffMultiplier grows the delay after each failed attempt.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the startup ping schedule: 5 attempts over about 3 seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialDelay:      200 * time.Millisecond,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryResult reports every attempt of a retried operation.
type RetryResult struct {
	Attempts  int
	LastError error
	Errors    []error
	Success   bool
}

// String provides a human-readable summary of the retry result.
func (r RetryResult) String() string {
	if r.Success {
		if r.Attempts == 1 {
			return "succeeded on first attempt"
		}
		return fmt.Sprintf("succeeded after %d attempts", r.Attempts)
	}
	return fmt.Sprintf("failed after %d attempts: %v", r.Attempts, r.LastError)
}

// IsRetryable reports whether err looks transient: network failures and connections
// the driver marked bad. Context errors and everything the server answered are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if stderrors.Is(err, driver.ErrBadConn) {
		return true
	}

	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var opErr *net.OpError
	return stderrors.As(err, &opErr)
}

// Retry runs fn until it succeeds, returns a non-retryable error, or attempts run out.
func Retry(ctx context.Context, config RetryConfig, fn func(ctx context.Context) error) RetryResult {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}

	result := RetryResult{
		Errors: make([]error, 0, config.MaxAttempts),
	}

	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		result.Attempts = attempt

		if err := ctx.Err(); err != nil {
			result.LastError = err
			result.Errors = append(result.Errors, err)
			return result
		}

		err := fn(ctx)
		if err == nil {
			result.Success = true
			result.LastError = nil
			return result
		}

		result.LastError = err
		result.Errors = append(result.Errors, err)

		if !IsRetryable(err) || attempt == config.MaxAttempts {
			return result
		}

		select {
		case <-ctx.Done():
			result.LastError = ctx.Err()
			result.Errors = append(result.Errors, ctx.Err())
			return result
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * config.BackoffMultiplier)
			if config.MaxDelay > 0 && delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}
	}

	return result
}

// PingWithRetry pings c on the retry schedule and returns the first successful result.
func PingWithRetry(ctx context.Context, c Connector, config RetryConfig) (*PingResult, RetryResult) {
	var res *PingResult
	result := Retry(ctx, config, func(ctx context.Context) error {
		var err error
		res, err = c.Ping(ctx)
		return err
	})
	if !result.Success {
		return nil, result
	}
	return res, result
}
