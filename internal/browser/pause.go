package browser

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pause waits a random duration in [min, max), or until ctx is done.
// SSO forms reject input that arrives faster than a person could type it.
func Pause(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += rand.N(max - min)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
