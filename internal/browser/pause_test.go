package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPause(t *testing.T) {
	start := time.Now()
	assert.NoError(t, Pause(context.Background(), 20*time.Millisecond, 40*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	// max <= min waits exactly min
	start = time.Now()
	assert.NoError(t, Pause(context.Background(), 10*time.Millisecond, 0))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestPause_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Pause(ctx, time.Hour, 2*time.Hour), context.Canceled)
}
