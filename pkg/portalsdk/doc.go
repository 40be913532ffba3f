/*
Package portalsdk is a typed client for the real-estate marketplace backend's
account endpoints: login, registration, email verification, password
management, the current user's profile and visit tracking.

# Credentials

The client does not store or attach tokens. Wrap HTTPClient's transport with
the httpx middleware chain instead:

	store := ... // anything implementing httpx.TokenSource
	rt := httpx.Chain(http.DefaultTransport,
		httpx.Bearer(store),
		httpx.InterceptUnauthorized(onUnauthorized),
	)
	client := portalsdk.NewClient("https://api.example.com").WithTransport(rt)

Public endpoints (login, register, verification, password reset) strip any
stored credential via httpx.SkipCredentials.

# Errors

Non-2xx answers are *APIError values that unwrap to a sentinel:

	_, err := client.Login(ctx, req)
	switch {
	case errors.Is(err, portalsdk.ErrInvalidCredentials):
		// wrong email or password
	case errors.Is(err, portalsdk.ErrEmailNotVerified):
		// account exists, address unconfirmed
	case portalsdk.IsNetworkError(err):
		// backend unreachable or timed out
	}

Requests are validated before they are sent; failures are *ValidationError
with one entry per offending JSON field.
*/
package portalsdk
