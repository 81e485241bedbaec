// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"time"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

const defaultMaxAttempts = 3

// Retry invokes fn up to maxAttempts times, waiting 2^attempt * backoffBase
// between attempts (2 s, 4 s, ...). Authentication failures are never
// retried. When maxAttempts is <= 0 the default (3) is used. The wait honors
// ctx cancellation. The last failure is returned when all attempts fail.
func Retry(ctx context.Context, maxAttempts int, fn func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var authErr *AuthError
		if errors.As(lastErr, &authErr) {
			return lastErr
		}

		if attempt < maxAttempts {
			backoff := time.Duration(1<<uint(attempt)) * backoffBase
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
