package portalsdk

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
)

const (
	opGetProfile    = "get profile"
	opUpdateProfile = "update profile"
	opTrackVisit    = "track visit"
)

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.call(ctx, opGetProfile, http.MethodGet, "/api/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateMe applies a partial profile update and returns the new profile.
func (c *Client) UpdateMe(ctx context.Context, req UpdateProfileRequest) (*domain.User, error) {
	if req.Empty() {
		return nil, &ValidationError{Fields: map[string]string{"request": "required"}}
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	var u domain.User
	if err := c.call(ctx, opUpdateProfile, http.MethodPut, "/api/users/me", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// TrackVisit records a page view for analytics. The bearer credential is
// attached when present so the backend can link the visit to the user.
func (c *Client) TrackVisit(ctx context.Context, req VisitRequest) error {
	if req.UserAgent == "" {
		req.UserAgent = c.UserAgent
	}
	if err := Validate(req); err != nil {
		return err
	}
	return c.call(ctx, opTrackVisit, http.MethodPost, "/api/visits", req, nil)
}

// IsAuthFailure reports whether err means the bearer credential was refused.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthenticationFailure)
}
