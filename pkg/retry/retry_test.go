package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.Multiplier)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(2), func() error {
		calls++
		return errors.New("still down")
	})

	require.EqualError(t, err, "still down")
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	authErr := errors.New("password authentication failed")
	calls := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		calls++
		return Permanent(authErr)
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, authErr)
	assert.False(t, IsPermanent(err), "the marker is stripped from the returned error")
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 10, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}

	calls := 0
	err := Do(ctx, cfg, func() error {
		calls++
		cancel()
		return errors.New("down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoWithResult_ReturnsValue(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("starting up")
		}
		return "pool", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "pool", got)
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestNextDelay_CapsAtMax(t *testing.T) {
	cfg := &Config{Multiplier: 10, MaxDelay: 50 * time.Millisecond}
	assert.Equal(t, 50*time.Millisecond, nextDelay(10*time.Millisecond, cfg))
	assert.Equal(t, 20*time.Millisecond, nextDelay(2*time.Millisecond, cfg))
}

func TestApplyJitter_StaysInRange(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := applyJitter(base, 0.1)
		assert.GreaterOrEqual(t, d, 90*time.Millisecond)
		assert.LessOrEqual(t, d, 110*time.Millisecond)
	}
	assert.Equal(t, base, applyJitter(base, 0))
}
