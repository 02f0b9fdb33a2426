package camera

import (
	"context"
	"time"
)

const (
	DefaultBaseDelay = 1000 * time.Millisecond
	DefaultMaxDelay  = 5000 * time.Millisecond
)

// BackoffDelay is the wait after the given failed attempt (1-based): base doubled per
// attempt, capped at max.
func BackoffDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
