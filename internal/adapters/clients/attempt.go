package clients

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

// drainLimit bounds how much of a discarded response is read so the
// connection can be reused.
const drainLimit = 4 << 10

// shouldRetry reports whether an attempt is worth repeating: timeouts,
// connection failures, 429 and 5xx. Nothing is retried once the caller's
// context is done; a per-attempt timeout on a live context is retried.
func shouldRetry(ctx context.Context, resp *http.Response, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}

		var opErr *net.OpError

		return errors.As(err, &opErr)
	}

	return downstreamFailed(resp.StatusCode)
}

// downstreamFailed reports whether a status counts against the breaker.
// A 4xx other than 429 is the caller's problem, not the downstream's.
func downstreamFailed(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// discard drains and closes a response that will not be returned.
func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}

	_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
	_ = resp.Body.Close()
}

// rewind resets the body for another attempt. http.NewRequest sets GetBody
// for bytes, strings and bytes.Buffer readers.
func rewind(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}

	body, err := req.GetBody()
	if err != nil {
		return err
	}

	req.Body = body

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
