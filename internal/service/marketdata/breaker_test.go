package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	for i := 0; i < 2; i++ {
		b.Failure()
		require.True(t, b.Allow())
	}
	b.Failure()
	require.False(t, b.Allow())
	require.Equal(t, float64(stateOpen), b.State())
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()
	require.True(t, b.Allow())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, 10*time.Second)
	b.now = func() time.Time { return now }

	b.Failure()
	require.False(t, b.Allow())

	// cooldown elapses, a single probe is admitted
	now = now.Add(11 * time.Second)
	require.True(t, b.Allow())
	require.Equal(t, float64(stateHalfOpen), b.State())
	require.False(t, b.Allow())

	b.Success()
	require.Equal(t, float64(stateClosed), b.State())
	require.True(t, b.Allow())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, 10*time.Second)
	b.now = func() time.Time { return now }

	b.Failure()
	now = now.Add(11 * time.Second)
	require.True(t, b.Allow())

	b.Failure()
	require.Equal(t, float64(stateOpen), b.State())
	require.False(t, b.Allow())
}
