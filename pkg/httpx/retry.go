package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v5"
)

// retryingDoer retries transient failures with exponential backoff.
type retryingDoer struct {
	next     Doer
	maxTries uint
}

// Retrying wraps next so that transport errors and retryable statuses
// (429 and 5xx) are retried with exponential backoff, up to maxTries
// attempts. When retries are exhausted on a retryable status, the last
// response is returned so callers still see the server's body. Requests
// whose body cannot be replayed (GetBody unset) are never retried. The
// backoff honors the request context.
func Retrying(next Doer, maxTries uint) Doer {
	if maxTries == 0 {
		maxTries = 3
	}
	return &retryingDoer{next: next, maxTries: maxTries}
}

func (d *retryingDoer) Do(req *http.Request) (*http.Response, error) {
	replayable := req.Body == nil || req.GetBody != nil

	var lastResp *http.Response

	operation := func() (*http.Response, error) {
		r := req
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			r = req.Clone(req.Context())
			r.Body = body
		}

		resp, err := d.next.Do(r)
		if err != nil {
			if !replayable {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}

		if replayable && retryableStatus(resp.StatusCode) {
			// Buffer the body so the final attempt's response stays
			// readable after the connection is released.
			b, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr == nil {
				resp.Body = io.NopCloser(bytes.NewReader(b))
				lastResp = resp
			}
			return nil, &retryableStatusError{code: resp.StatusCode}
		}

		return resp, nil
	}

	resp, err := backoff.Retry(
		req.Context(),
		operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(d.maxTries),
	)
	if err != nil {
		var se *retryableStatusError
		if errors.As(err, &se) && lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}
	return resp, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// retryableStatusError marks an attempt that ended in a retryable
// status, prompting another try.
type retryableStatusError struct {
	code int
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("retryable status %d", e.code)
}
