package httpx

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/immo/pkg/slogx"
)

// TokenSource yields the credential to attach to outgoing requests. An empty
// token means no credential is held.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Bearer attaches "Authorization: Bearer <token>" to every outgoing request
// when src holds a token. The token is read per request, so a credential
// saved or cleared mid-session is picked up by the next call. Requests that
// already carry an Authorization header, or whose context was marked with
// SkipCredentials, pass through unchanged.
func Bearer(src TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			ctx := r.Context()
			if credentialsSkipped(ctx) || r.Header.Get("Authorization") != "" {
				return next.RoundTrip(r)
			}

			token, err := src.Token(ctx)
			if err != nil {
				slogx.FromContext(ctx).Warn("bearer: token lookup failed, sending without credential", "error", err)
				return next.RoundTrip(r)
			}
			if token == "" {
				return next.RoundTrip(r)
			}

			// RoundTrippers must not mutate the caller's request.
			r = r.Clone(ctx)
			r.Header.Set("Authorization", "Bearer "+token)
			return next.RoundTrip(r)
		})
	}
}
