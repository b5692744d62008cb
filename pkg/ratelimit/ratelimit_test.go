package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewLoginRateLimiter(3, time.Minute)
	t.Cleanup(rl.Close)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("198.51.100.1"), "attempt %d", i+1)
	}
	assert.False(t, rl.Allow("198.51.100.1"))

	// Başka IP etkilenmez.
	assert.True(t, rl.Allow("198.51.100.2"))
}

func TestResetClearsCounter(t *testing.T) {
	rl := NewLoginRateLimiter(2, time.Minute)
	t.Cleanup(rl.Close)

	rl.Allow("198.51.100.1")
	rl.Allow("198.51.100.1")
	require.False(t, rl.Allow("198.51.100.1"))

	rl.Reset("198.51.100.1")
	assert.True(t, rl.Allow("198.51.100.1"))
}

func TestWindowExpiryResetsCounter(t *testing.T) {
	rl := NewLoginRateLimiter(1, 30*time.Millisecond)
	t.Cleanup(rl.Close)

	require.True(t, rl.Allow("198.51.100.1"))
	require.False(t, rl.Allow("198.51.100.1"))

	time.Sleep(50 * time.Millisecond)
	assert.True(t, rl.Allow("198.51.100.1"))
}

func TestRetryAfterSeconds(t *testing.T) {
	rl := NewLoginRateLimiter(1, time.Minute)
	t.Cleanup(rl.Close)

	assert.Equal(t, 0, rl.RetryAfterSeconds("198.51.100.1"))

	rl.Allow("198.51.100.1")
	after := rl.RetryAfterSeconds("198.51.100.1")
	assert.Greater(t, after, 0)
	assert.LessOrEqual(t, after, 61)
}

func TestExtractIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	assert.Equal(t, "203.0.113.7", ExtractIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.9")
	assert.Equal(t, "198.51.100.9", ExtractIP(req))

	// X-Forwarded-For öncelikli; ilk değer gerçek client'tır.
	req.Header.Set("X-Forwarded-For", "192.0.2.1, 10.0.0.1")
	assert.Equal(t, "192.0.2.1", ExtractIP(req))
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "45 second(s)", FormatRetryMessage(45))
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(120))
}
