package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	backendMaxAttempts    = 3
	backendInitialBackoff = 4 * time.Second
	backendMaxBackoff     = 10 * time.Second
)

// newBackOff builds the backend retry schedule: exponential, starting at 4s,
// capped at 10s. Declared as a variable so tests can substitute a zero wait.
var newBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = backendInitialBackoff
	b.MaxInterval = backendMaxBackoff
	return b
}

// retryBackend wraps a single backend call in the bounded retry policy of at
// most 3 attempts. Only the backend call goes through here; validation
// failures are deterministic and must never be retried. A missing row is not
// transient, so sql.ErrNoRows aborts the retry immediately.
func retryBackend[T any](ctx context.Context, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && errors.Is(err, sql.ErrNoRows) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(newBackOff()), backoff.WithMaxTries(backendMaxAttempts))
}
