package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingDoer logs each request at debug level and failures at warn.
type loggingDoer struct {
	next   Doer
	logger *slog.Logger
}

// Logging wraps next so that every request is logged with method, URL,
// status and duration. A nil logger falls back to slog.Default().
func Logging(next Doer, logger *slog.Logger) Doer {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingDoer{next: next, logger: logger}
}

func (d *loggingDoer) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := d.next.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		d.logger.WarnContext(req.Context(), "http request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"duration", elapsed,
			"error", err,
		)
		return nil, err
	}

	d.logger.DebugContext(req.Context(), "http request",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration", elapsed,
	)
	return resp, nil
}
