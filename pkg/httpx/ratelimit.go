package httpx

import (
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimitedDoer throttles outgoing requests with a token bucket.
type rateLimitedDoer struct {
	next    Doer
	limiter *rate.Limiter
}

// RateLimited wraps next so that requests wait for the token bucket
// before being sent. Token endpoints commonly throttle clients hard;
// a client-side limit keeps a busy host app from tripping 429s.
// The wait honors the request context.
func RateLimited(next Doer, limit rate.Limit, burst int) Doer {
	return &rateLimitedDoer{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (d *rateLimitedDoer) Do(req *http.Request) (*http.Response, error) {
	if err := d.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return d.next.Do(req)
}
