package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterFirstRequestImmediate(t *testing.T) {
	l := NewLimiter(5 * time.Second)
	var slept time.Duration
	l.sleepFn = func(_ context.Context, d time.Duration) error {
		slept += d
		return nil
	}

	require.NoError(t, l.Wait(context.Background()))
	assert.Zero(t, slept, "first request must not wait")
}

func TestLimiterEnforcesGap(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewLimiter(6 * time.Second)
	l.nowFn = func() time.Time { return now }

	var slept []time.Duration
	l.sleepFn = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}

	require.NoError(t, l.Wait(context.Background()))
	now = now.Add(1500 * time.Millisecond) // caller does 1.5s of work
	require.NoError(t, l.Wait(context.Background()))

	require.Len(t, slept, 1)
	assert.Equal(t, 4500*time.Millisecond, slept[0])
}

func TestLimiterCancelledContext(t *testing.T) {
	l := NewLimiter(time.Hour)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestLimiterDefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultMinInterval, NewLimiter(0).MinInterval())
	assert.Equal(t, DefaultMinInterval, NewLimiter(-time.Second).MinInterval())
}

func TestBackoffSchedule(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, 2 * time.Second},
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{4, 32 * time.Second},
		{5, 60 * time.Second}, // 64s capped
		{31, 60 * time.Second},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, Backoff(tc.attempt), "attempt %d", tc.attempt)
	}
}
