// Package httpx provides the HTTP transport capability used by the
// smartauth package, plus composable client-side decorators for rate
// limiting, retry with backoff, and request logging.
//
// The smartauth package never retries and never throttles on its own;
// those policies belong to a wrapping transport. Compose them here:
//
//	transport := httpx.Logging(
//		httpx.RateLimited(http.DefaultClient, rate.Every(time.Second), 5),
//		logger,
//	)
package httpx

import "net/http"

// Doer is the abstract "perform request" contract. *http.Client
// satisfies it; decorators in this package wrap it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to the Doer interface.
type DoerFunc func(req *http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }
