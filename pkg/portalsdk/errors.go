package portalsdk

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
)

// Conditions callers branch on with errors.Is.
var (
	// ErrInvalidCredentials is a rejected login (backend 401 on login).
	ErrInvalidCredentials = errors.New("portalsdk: invalid credentials")

	// ErrEmailNotVerified is a login refused because the address is not
	// confirmed yet (backend 403 on login).
	ErrEmailNotVerified = errors.New("portalsdk: email not verified")

	// ErrAuthenticationFailure is a 401 on any endpoint other than login:
	// the bearer token is missing, expired or revoked.
	ErrAuthenticationFailure = errors.New("portalsdk: authentication failure")

	ErrForbidden = errors.New("portalsdk: forbidden")
	ErrNotFound  = errors.New("portalsdk: not found")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Op         string
	StatusCode int
	Message    string

	kind error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, msg)
}

// NewAPIError builds the error the client returns for status on op.
func NewAPIError(op string, status int, message string) *APIError {
	return &APIError{Op: op, StatusCode: status, Message: message, kind: kindFor(op, status)}
}

// Unwrap exposes the sentinel matching the status, if any.
func (e *APIError) Unwrap() error { return e.kind }

// NetworkError is a request that never produced a response: connection
// failure, timeout or cancellation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request ran out of time.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// ValidationError is a request rejected client-side before it was sent.
// Fields maps the JSON field name to the failed rule.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// errorBody covers both error shapes the backend uses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// kindFor maps a status to its sentinel. Login answers 401/403 with
// credential-specific meanings.
func kindFor(op string, status int) error {
	if op == opLogin {
		switch status {
		case http.StatusUnauthorized:
			return ErrInvalidCredentials
		case http.StatusForbidden:
			return ErrEmailNotVerified
		}
	}
	switch status {
	case http.StatusUnauthorized:
		return ErrAuthenticationFailure
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
