package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Classifier reports whether an error is worth another attempt
type Classifier func(err error) bool

// RetryHook is called before each retry with the failed attempt number
type RetryHook func(operation string, attempt int, err error)

type Executor struct {
	cfg     Config
	onRetry RetryHook
}

func NewExecutor(cfg Config) *Executor {
	return &Executor{cfg: cfg.normalize()}
}

// OnRetry registers a hook observed before every retry
func (e *Executor) OnRetry(hook RetryHook) {
	e.onRetry = hook
}

// Config returns the normalized configuration in use
func (e *Executor) Config() Config {
	return e.cfg
}

// Execute runs fn until it succeeds, returns a non-retryable error,
// or exhausts MaxAttempts. The last error is returned unchanged, except when
// ctx ends while waiting to retry, where ctx.Err() is returned.
func (e *Executor) Execute(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classifier Classifier,
) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classifier == nil {
		classifier = RetryAll
	}

	backoff := e.cfg.InitialBackoff
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !classifier(err) || attempt == e.cfg.MaxAttempts {
			return err
		}

		wait := backoff
		if wait > e.cfg.MaxBackoff {
			wait = e.cfg.MaxBackoff
		}
		slog.Warn("retry_attempt",
			"operation", op,
			"attempt", attempt,
			"max_attempts", e.cfg.MaxAttempts,
			"backoff_ms", float64(wait.Microseconds())/1000.0,
			"error", err,
		)
		if e.onRetry != nil {
			e.onRetry(op, attempt, err)
		}

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		backoff = time.Duration(float64(backoff) * e.cfg.Multiplier)
	}

	return nil
}

// RetryAll treats every error as retryable except context cancellation
func RetryAll(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
