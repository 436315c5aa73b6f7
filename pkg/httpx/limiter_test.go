package httpx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterSetRefillAndEviction(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	set := newLimiterSet(RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}, clock)
	require.Equal(t, 5*time.Minute, set.idleTTL)

	ok, _ := set.allow("a")
	require.True(t, ok)
	ok, _ = set.allow("a")
	require.True(t, ok)

	ok, delay := set.allow("a")
	require.False(t, ok)
	require.InDelta(t, 30*time.Second, delay, float64(time.Second))

	// A denied request does not consume a token.
	now = now.Add(30 * time.Second)
	ok, _ = set.allow("a")
	require.True(t, ok)

	ok, _ = set.allow("b")
	require.True(t, ok)
	require.Equal(t, 2, set.size())

	// "b" stays active, "a" goes idle past the TTL.
	now = now.Add(4 * time.Minute)
	set.allow("b")
	now = now.Add(2 * time.Minute)
	set.allow("b")
	require.Equal(t, 1, set.size())
}

func TestLimiterSetLongRefill(t *testing.T) {
	set := newLimiterSet(RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 10}, time.Now)
	require.Equal(t, 10*time.Hour, set.idleTTL)
}
