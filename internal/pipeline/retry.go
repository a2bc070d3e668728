package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/docoutline/internal/pathstore"
)

// MaxRetries is the number of publish attempts per job.
const MaxRetries = 3

// IsRetryable reports whether err carries a transient pathstore failure.
func IsRetryable(err error) bool {
	var retryErr *pathstore.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retry attempt n (0-indexed): 500ms doubling
// up to 10s, plus up to 50% jitter.
func Backoff(attempt int) time.Duration {
	base := min(500*time.Millisecond<<uint(min(attempt, 8)), 10*time.Second)
	return base + time.Duration(rand.Int64N(int64(base)/2))
}

// retry runs fn until it succeeds, fails permanently or MaxRetries attempts
// are spent. It does not sleep after the last attempt.
func retry(ctx context.Context, log *slog.Logger, backoff func(int) time.Duration, fn func() error) error {
	var err error
	for attempt := range MaxRetries {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable error", "attempt", attempt+1, "error", err)
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
