package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/immo/pkg/idx"
)

// HeaderRequestID correlates a client request with backend logs.
const HeaderRequestID = "X-Request-ID"

// Transport logs every outgoing request once its response (or error) is
// known, stamping an X-Request-ID when the caller did not set one. The
// request context receives a logger scoped to that request id.
func Transport(base *slog.Logger) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripper(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			reqID := r.Header.Get(HeaderRequestID)
			if reqID == "" {
				reqID = idx.New().String()
			}

			logger := base.With(
				"req_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
			)

			r = r.Clone(WithContext(r.Context(), logger))
			r.Header.Set(HeaderRequestID, reqID)

			resp, err := next.RoundTrip(r)
			duration := time.Since(start).Milliseconds()
			if err != nil {
				logger.Warn("http_request_failed", "duration_ms", duration, "error", err)
				return nil, err
			}

			logger.Debug("http_request",
				"status", resp.StatusCode,
				"duration_ms", duration,
			)
			return resp, nil
		})
	}
}

type roundTripper func(*http.Request) (*http.Response, error)

func (f roundTripper) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
