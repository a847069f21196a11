package ingest

import (
	"context"
	"time"

	"wire-sync/internal/wire"
)

// withRetry runs op, retrying transient wire errors up to attempts times
// with exponential backoff. Permanent errors and context cancellation
// return immediately.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := backoff
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if !wire.IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
