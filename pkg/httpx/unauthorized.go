package httpx

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/immo/pkg/jwtx"
)

// UnauthorizedHandler reacts to a 401 response. credential is the bearer
// token the failed request carried, or "" when it carried none.
type UnauthorizedHandler func(ctx context.Context, r *http.Request, credential string)

// InterceptUnauthorized invokes h once for every 401 response. The response
// itself is still returned to the caller, who sees the failure as usual.
//
// It must sit inside Bearer in the chain so the attached credential is
// visible on the request it observes.
func InterceptUnauthorized(h UnauthorizedHandler) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(r)
			if err != nil {
				return resp, err
			}
			if resp.StatusCode == http.StatusUnauthorized && h != nil {
				h(r.Context(), r, jwtx.BearerToken(r.Header.Get("Authorization")))
			}
			return resp, nil
		})
	}
}
