package portalsdk

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/immo/pkg/httpx"
)

const (
	opLogin              = "login"
	opRegister           = "register"
	opVerifyEmail        = "verify email"
	opResendVerification = "resend verification"
	opForgotPassword     = "forgot password"
	opChangePassword     = "change password"
)

// Login exchanges credentials for a bearer token and the user snapshot.
// A 401 is ErrInvalidCredentials, a 403 is ErrEmailNotVerified.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := c.call(httpx.SkipCredentials(ctx), opLogin, http.MethodPost, "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. It never yields a session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := c.call(httpx.SkipCredentials(ctx), opRegister, http.MethodPost, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail redeems the token sent by email.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*MessageResponse, error) {
	if token == "" {
		return nil, &ValidationError{Fields: map[string]string{"token": "required"}}
	}

	path := "/api/auth/verify-email?" + url.Values{"token": {token}}.Encode()

	var out MessageResponse
	if err := c.call(httpx.SkipCredentials(ctx), opVerifyEmail, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResendVerification(ctx context.Context, email string) (*MessageResponse, error) {
	return c.emailAction(ctx, opResendVerification, "/api/auth/resend-verification", email)
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*MessageResponse, error) {
	return c.emailAction(ctx, opForgotPassword, "/api/auth/forgot-password", email)
}

// ChangePassword requires a bearer credential on the transport.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) (*MessageResponse, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	var out MessageResponse
	if err := c.call(ctx, opChangePassword, http.MethodPost, "/api/auth/change-password", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) emailAction(ctx context.Context, op, path, email string) (*MessageResponse, error) {
	req := EmailRequest{Email: email}
	if err := Validate(req); err != nil {
		return nil, err
	}

	var out MessageResponse
	if err := c.call(httpx.SkipCredentials(ctx), op, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
