// Package httpx holds client-side HTTP plumbing: composable RoundTripper
// middleware for credential attachment, authentication-failure handling
// and outbound rate limiting.
package httpx

import (
	"net/http"
	"strings"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Middleware wraps a RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain composes middleware around base. The first middleware is the
// outermost, so it sees the request first and the response last.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		base = mws[i](base)
	}
	return base
}

// Only applies mw to requests matching pred. Others bypass it.
func Only(pred func(*http.Request) bool, mw Middleware) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		wrapped := mw(next)
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if pred(r) {
				return wrapped.RoundTrip(r)
			}
			return next.RoundTrip(r)
		})
	}
}

// PathPrefix matches requests whose URL path starts with prefix.
func PathPrefix(prefix string) func(*http.Request) bool {
	return func(r *http.Request) bool { return strings.HasPrefix(r.URL.Path, prefix) }
}
