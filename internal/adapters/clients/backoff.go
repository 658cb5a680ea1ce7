package clients

import (
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/brianfending/contact-service/internal/platform/config"
)

const (
	defaultInitialInterval = 100 * time.Millisecond
	defaultMultiplier      = 2.0
	defaultJitterFactor    = 0.25
)

// backoff spaces out retries exponentially with symmetric jitter.
type backoff struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64
	rand       func() float64
}

func newBackoff(cfg config.RetryConfig) backoff {
	b := backoff{
		initial:    cfg.InitialInterval,
		max:        cfg.MaxInterval,
		multiplier: cfg.Multiplier,
		jitter:     cfg.JitterFactor,
		rand:       rand.Float64,
	}

	if b.initial <= 0 {
		b.initial = defaultInitialInterval
	}

	if b.multiplier < 1 {
		b.multiplier = defaultMultiplier
	}

	if b.jitter <= 0 {
		b.jitter = defaultJitterFactor
	}

	return b
}

// delay returns the wait after the given failed attempt, counting from 1.
func (b backoff) delay(attempt int) time.Duration {
	d := float64(b.initial) * math.Pow(b.multiplier, float64(attempt-1))
	if b.max > 0 && d > float64(b.max) {
		d = float64(b.max)
	}

	// rand in [0,1) becomes a factor in [-jitter, +jitter).
	d += d * b.jitter * (2*b.rand() - 1)

	return time.Duration(d)
}

// wait honours a Retry-After header when it asks for longer than the
// computed delay, capped at the maximum interval.
func (b backoff) wait(attempt int, resp *http.Response, now time.Time) time.Duration {
	d := b.delay(attempt)

	after := retryAfter(resp, now)
	if after <= d {
		return d
	}

	if b.max > 0 && after > b.max {
		return b.max
	}

	return after
}

// retryAfter reads Retry-After as delta seconds or an HTTP date.
func retryAfter(resp *http.Response, now time.Time) time.Duration {
	if resp == nil {
		return 0
	}

	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}

	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}

	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}

	return 0
}
