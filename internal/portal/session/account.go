package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
	"github.com/aussiebroadwan/immo/pkg/portalsdk"
)

var errUserMismatch = errors.New("session: user does not match the current session")

// Register creates an account. It never logs the new user in.
func (s *Service) Register(ctx context.Context, req portalsdk.RegisterRequest) (*portalsdk.RegisterResponse, error) {
	done := s.startLoading()
	defer done()

	resp, err := s.backend.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("registered account", "role", req.UserType, "email_verification_required", resp.EmailVerificationRequired)
	return resp, nil
}

// VerifyEmail redeems a verification token. When a session is held the
// profile is refetched so the verified flag becomes visible immediately.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*portalsdk.MessageResponse, error) {
	resp, err := s.backend.VerifyEmail(ctx, token)
	if err != nil {
		return nil, err
	}

	if resp.Success && s.IsAuthenticated(ctx) {
		if _, err := s.RefreshProfile(ctx); err != nil {
			s.log.Warn("refresh after email verification failed", "error", err)
		}
	}
	return resp, nil
}

func (s *Service) ResendVerification(ctx context.Context, email string) (*portalsdk.MessageResponse, error) {
	return s.backend.ResendVerification(ctx, email)
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*portalsdk.MessageResponse, error) {
	return s.backend.RequestPasswordReset(ctx, email)
}

// ChangePassword requires an authenticated session.
func (s *Service) ChangePassword(ctx context.Context, req portalsdk.ChangePasswordRequest) (*portalsdk.MessageResponse, error) {
	if !s.IsAuthenticated(ctx) {
		return nil, ErrNoSession
	}
	return s.backend.ChangePassword(ctx, req)
}

// UpdateProfile applies a partial update and replaces the cached user with
// the backend's answer. A session that is no longer valid is logged out
// before any request is made and ErrExpiredSession is returned.
func (s *Service) UpdateProfile(ctx context.Context, req portalsdk.UpdateProfileRequest) (*domain.User, error) {
	if !s.IsAuthenticated(ctx) {
		return nil, s.purge(ctx, ErrExpiredSession)
	}

	token, err := s.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	done := s.startLoading()
	defer done()

	user, err := s.backend.UpdateMe(ctx, req)
	if err != nil {
		if portalsdk.IsAuthFailure(err) {
			s.Invalidate(ctx, token)
		}
		return nil, err
	}
	if err := s.commitUser(ctx, token, user); err != nil {
		return nil, err
	}

	s.log.Info("profile updated", "user_id", user.ID)
	return user, nil
}

// ApplyUser replaces the cached user with a representation obtained
// elsewhere, e.g. an admin action on the current account reflected back.
func (s *Service) ApplyUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("session: user is required")
	}
	if current := s.CurrentUser(); current != nil && current.ID != user.ID {
		return errUserMismatch
	}

	token, err := s.creds.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNoSession
	}
	return s.commitUser(ctx, token, user)
}

// TrackVisit records a page view under the session-scoped analytics id.
func (s *Service) TrackVisit(ctx context.Context, page string) error {
	sid, err := s.creds.SessionID(ctx)
	if err != nil {
		return fmt.Errorf("track visit: session id: %w", err)
	}
	return s.backend.TrackVisit(ctx, portalsdk.VisitRequest{Page: page, SessionID: sid})
}

func (s *Service) trackBestEffort(ctx context.Context, page string) {
	if err := s.TrackVisit(ctx, page); err != nil {
		s.log.Debug("visit tracking failed", "page", page, "error", err)
	}
}
