package httpx

import "context"

type ctxKey string

const ctxKeySkipCredentials ctxKey = "skip_credentials"

// SkipCredentials marks ctx so Bearer leaves outgoing requests untouched.
// Used for public endpoints such as login and registration.
func SkipCredentials(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKeySkipCredentials, true)
}

func credentialsSkipped(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeySkipCredentials).(bool)
	return v
}
