package clients

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brianfending/contact-service/internal/platform/config"
)

func fixedRand(v float64) func() float64 { return func() float64 { return v } }

func TestBackoff_Delay(t *testing.T) {
	b := newBackoff(config.RetryConfig{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2,
		JitterFactor:    0.5,
	})

	tests := []struct {
		name    string
		attempt int
		rand    float64
		want    time.Duration
	}{
		{"first retry without jitter", 1, 0.5, 100 * time.Millisecond},
		{"doubles", 2, 0.5, 200 * time.Millisecond},
		{"capped", 10, 0.5, time.Second},
		{"lowest jitter", 1, 0, 50 * time.Millisecond},
		{"highest jitter", 2, 1, 300 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.rand = fixedRand(tt.rand)
			assert.Equal(t, tt.want, b.delay(tt.attempt))
		})
	}
}

func TestNewBackoff_Defaults(t *testing.T) {
	b := newBackoff(config.RetryConfig{})

	assert.Equal(t, defaultInitialInterval, b.initial)
	assert.InDelta(t, defaultMultiplier, b.multiplier, 0)
	assert.InDelta(t, defaultJitterFactor, b.jitter, 0)
	assert.Zero(t, b.max)
}

func TestBackoff_WaitHonoursRetryAfter(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	b := newBackoff(config.RetryConfig{InitialInterval: 100 * time.Millisecond, MaxInterval: 3 * time.Second})
	b.rand = fixedRand(0.5)

	withHeader := func(v string) *http.Response {
		return &http.Response{Header: http.Header{"Retry-After": {v}}}
	}

	tests := []struct {
		name string
		resp *http.Response
		want time.Duration
	}{
		{"no response", nil, 100 * time.Millisecond},
		{"no header", &http.Response{Header: http.Header{}}, 100 * time.Millisecond},
		{"seconds", withHeader("2"), 2 * time.Second},
		{"capped at max interval", withHeader("120"), 3 * time.Second},
		{"http date", withHeader(now.Add(time.Second).Format(http.TimeFormat)), time.Second},
		{"date in the past", withHeader(now.Add(-time.Hour).Format(http.TimeFormat)), 100 * time.Millisecond},
		{"garbage", withHeader("soon"), 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.wait(1, tt.resp, now))
		})
	}
}
