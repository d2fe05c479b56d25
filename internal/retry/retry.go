package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Operation is a fallible unit of work, typically an outbound push or delete.
type Operation func(ctx context.Context) error

// ExhaustedError reports that every attempt failed. It wraps the last error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Executor retries an operation with exponential backoff: the wait before
// attempt n+1 is BaseDelay x 2^n, optionally spread by Jitter (a fraction of
// the wait, 0 disables).
type Executor struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      float64
}

func NewExecutor() *Executor {
	return &Executor{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Jitter:      0.2,
	}
}

// Do runs op until it succeeds or MaxAttempts consecutive failures occur.
func (e *Executor) Do(ctx context.Context, op Operation) error {
	attempts := e.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts-1 {
			break
		}

		wait := e.backoff(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}

func (e *Executor) backoff(attempt int) time.Duration {
	wait := e.BaseDelay * time.Duration(1<<uint(attempt))
	if e.Jitter > 0 {
		spread := (rand.Float64()*2 - 1) * e.Jitter
		wait = time.Duration(float64(wait) * (1 + spread))
	}
	return wait
}
