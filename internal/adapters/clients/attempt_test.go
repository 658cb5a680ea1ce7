package clients

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{ timeout bool }

func (e timeoutErr) Error() string   { return "i/o" }
func (e timeoutErr) Timeout() bool   { return e.timeout }
func (e timeoutErr) Temporary() bool { return false }

func TestShouldRetry(t *testing.T) {
	status := func(code int) *http.Response { return &http.Response{StatusCode: code} }

	tests := []struct {
		name  string
		resp  *http.Response
		err   error
		retry bool
	}{
		{"created", status(http.StatusCreated), nil, false},
		{"bad request", status(http.StatusBadRequest), nil, false},
		{"unauthorized", status(http.StatusUnauthorized), nil, false},
		{"rate limited", status(http.StatusTooManyRequests), nil, true},
		{"server error", status(http.StatusInternalServerError), nil, true},
		{"unavailable", status(http.StatusServiceUnavailable), nil, true},
		{"attempt timeout", nil, timeoutErr{timeout: true}, true},
		{"other net error", nil, timeoutErr{}, false},
		{"connection refused", nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
		{"plain error", nil, errors.New("tls: bad certificate"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retry, shouldRetry(context.Background(), tt.resp, tt.err))
		})
	}
}

func TestShouldRetry_CallerDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, shouldRetry(ctx, &http.Response{StatusCode: http.StatusServiceUnavailable}, nil))
	assert.False(t, shouldRetry(ctx, nil, timeoutErr{timeout: true}))
}

func TestRewind(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "http://example.com", strings.NewReader("payload"))
	require.NoError(t, err)

	_, _ = io.ReadAll(req.Body)
	require.NoError(t, rewind(req))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	noBody, err := http.NewRequest(http.MethodGet, "http://example.com", http.NoBody)
	require.NoError(t, err)
	assert.NoError(t, rewind(noBody))
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}
