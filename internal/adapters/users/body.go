package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

var (
	// ErrBodyTimeout reports a request body that did not finish arriving in time.
	ErrBodyTimeout = errors.New("request body read timed out")
	// ErrBodyTooLarge reports a request body over the configured limit.
	ErrBodyTooLarge = errors.New("request body too large")
	// ErrMalformedBody reports a request body that is not valid JSON.
	ErrMalformedBody = errors.New("request body is not valid JSON")
)

type readResult struct {
	raw []byte
	err error
}

// readBody reads body to completion. The read runs on its own goroutine so a
// stalled client is abandoned after timeout; the server closes the body once
// the handler returns, which unblocks the reader.
func readBody(ctx context.Context, body io.Reader, timeout time.Duration) ([]byte, error) {
	if body == nil || body == http.NoBody {
		return nil, nil
	}
	done := make(chan readResult, 1)
	go func() {
		raw, err := io.ReadAll(body)
		done <- readResult{raw: raw, err: err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-done:
		if res.err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(res.err, &tooLarge) {
				return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, tooLarge.Limit)
			}
			return nil, fmt.Errorf("read request body: %w", res.err)
		}
		return res.raw, nil
	case <-expired:
		return nil, ErrBodyTimeout
	case <-ctx.Done():
		return nil, fmt.Errorf("read request body: %w", ctx.Err())
	}
}

// parsePayload decodes raw into generic JSON values; numbers become float64.
func parsePayload(raw []byte) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return v, nil
}
