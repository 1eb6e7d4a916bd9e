package mission

import (
	"context"
	"fmt"
)

// Retry calls fn up to attempts times, stopping at the first success. There
// is no backoff. It returns the number of attempts made; when all of them
// fail the error wraps both ErrRetriesExhausted and the last failure.
// A cancelled ctx stops retrying and returns ctx's error.
func Retry(ctx context.Context, attempts int, fn func(ctx context.Context, attempt int) error) (int, error) {
	if attempts < 1 {
		attempts = 1
	}
	var last error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return i - 1, err
		}
		if last = fn(ctx, i); last == nil {
			return i, nil
		}
	}
	return attempts, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, last)
}
