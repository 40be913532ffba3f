package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
	"github.com/aussiebroadwan/immo/internal/portal/session"
	"github.com/aussiebroadwan/immo/pkg/portalsdk"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	t.Run("stores and publishes the user", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		user := verifiedUser(1, &domain.ClientDetails{SubscriptionType: "PREMIUM"})

		var seen []*domain.User
		cancel := h.svc.UserStream().Subscribe(func(u *domain.User) { seen = append(seen, u) })
		defer cancel()

		token := h.loginAs(t, user)

		require.Equal(t, []*domain.User{nil, user}, seen)
		require.Equal(t, user, h.svc.CurrentUser())
		require.True(t, h.svc.IsAuthenticated(ctx))
		require.True(t, h.svc.HasRole(domain.RoleClient))

		stored, err := h.creds.Token(ctx)
		require.NoError(t, err)
		require.Equal(t, token, stored)

		cached, err := h.creds.User(ctx)
		require.NoError(t, err)
		require.Equal(t, user.ID, cached.ID)

		require.Len(t, h.backend.visits, 1)
		require.NotEmpty(t, h.backend.visits[0].SessionID)
	})

	failures := []struct {
		name string
		resp *portalsdk.LoginResponse
		err  error
		want error
	}{
		{name: "invalid credentials", err: portalsdk.NewAPIError("login", 401, ""), want: portalsdk.ErrInvalidCredentials},
		{name: "network error", err: &portalsdk.NetworkError{Op: "login", Err: context.DeadlineExceeded}, want: context.DeadlineExceeded},
		{name: "malformed token", resp: &portalsdk.LoginResponse{Token: "not-a-jwt", User: verifiedUser(9, nil)}, want: session.ErrInvalidSession},
		{name: "missing user", resp: &portalsdk.LoginResponse{Token: "a.b.c"}, want: session.ErrInvalidSession},
	}
	for _, tt := range failures {
		t.Run(tt.name+" leaves the previous session intact", func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			previous := verifiedUser(1, nil)
			token := h.loginAs(t, previous)

			h.backend.login = func(portalsdk.LoginRequest) (*portalsdk.LoginResponse, error) { return tt.resp, tt.err }
			_, err := h.svc.Login(ctx, portalsdk.LoginRequest{Email: "x@example.com", Password: "p"})
			require.Error(t, err)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			}

			require.Equal(t, previous, h.svc.CurrentUser())
			stored, err := h.creds.Token(ctx)
			require.NoError(t, err)
			require.Equal(t, token, stored)
		})
	}

	t.Run("rejected login surfaces invalid credentials", func(t *testing.T) {
		h := newHarness(t)
		h.backend.login = func(portalsdk.LoginRequest) (*portalsdk.LoginResponse, error) {
			return nil, portalsdk.ErrInvalidCredentials
		}
		_, err := h.svc.Login(context.Background(), portalsdk.LoginRequest{})
		require.ErrorIs(t, err, portalsdk.ErrInvalidCredentials)
		require.Nil(t, h.svc.CurrentUser())
	})
}

func TestLoadingStream(t *testing.T) {
	h := newHarness(t)

	var states []bool
	cancel := h.svc.Loading().Subscribe(func(v bool) { states = append(states, v) })
	defer cancel()

	h.loginAs(t, verifiedUser(1, nil))
	require.Equal(t, []bool{false, true, false}, states)
}

func TestLogout(t *testing.T) {
	t.Run("matches a fresh session", func(t *testing.T) {
		ctx := context.Background()
		fresh := newHarness(t)
		h := newHarness(t)
		h.loginAs(t, verifiedUser(3, &domain.AgencyDetails{Verified: false}))
		_, err := h.creds.SessionID(ctx)
		require.NoError(t, err)

		require.NoError(t, h.svc.Logout(ctx))

		require.Equal(t, fresh.svc.Snapshot(ctx), h.svc.Snapshot(ctx))
		for _, role := range domain.Roles() {
			require.Equal(t, fresh.svc.HasRole(role), h.svc.HasRole(role))
		}
		require.Nil(t, h.svc.Claims(ctx))
	})

	t.Run("idempotent", func(t *testing.T) {
		h := newHarness(t)
		var emissions int
		cancel := h.svc.UserStream().Subscribe(func(*domain.User) { emissions++ })
		defer cancel()

		require.NoError(t, h.svc.Logout(context.Background()))
		require.NoError(t, h.svc.Logout(context.Background()))
		require.Equal(t, 1, emissions) // replay only
	})
}

func TestIsAuthenticated(t *testing.T) {
	t.Run("expired token with cached user", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, mintToken(t, domain.RoleUser, t0.Add(-time.Second)), verifiedUser(1, nil))
		require.False(t, h.svc.IsAuthenticated(context.Background()))
	})

	t.Run("expiry equal to now", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, mintToken(t, domain.RoleUser, t0), verifiedUser(1, nil))
		require.False(t, h.svc.IsAuthenticated(context.Background()))
	})

	t.Run("mid-session expiry is seen on the next check", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		h.loginAs(t, verifiedUser(1, nil))
		require.True(t, h.svc.IsAuthenticated(ctx))

		h.clock.Advance(time.Hour)
		require.False(t, h.svc.IsAuthenticated(ctx))
	})

	t.Run("token cleared out of band", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		h.loginAs(t, verifiedUser(1, nil))

		require.NoError(t, h.creds.Clear(ctx))
		require.False(t, h.svc.IsAuthenticated(ctx))
	})

	t.Run("malformed token", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, "garbage", verifiedUser(1, nil))
		require.False(t, h.svc.IsAuthenticated(context.Background()))
	})
}

func TestInvalidate(t *testing.T) {
	t.Run("clears and redirects once", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		token := h.loginAs(t, verifiedUser(1, nil))

		require.True(t, h.svc.Invalidate(ctx, token))
		require.False(t, h.svc.Invalidate(ctx, token))

		require.Equal(t, []domain.Redirect{domain.LoginRedirect("/agency/properties")}, h.nav.Redirects())
		require.Nil(t, h.svc.CurrentUser())
		require.False(t, h.svc.IsAuthenticated(ctx))
	})

	t.Run("concurrent failures redirect once", func(t *testing.T) {
		h := newHarness(t)
		token := h.loginAs(t, verifiedUser(1, nil))

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.svc.Invalidate(context.Background(), token)
			}()
		}
		wg.Wait()

		require.Len(t, h.nav.Redirects(), 1)
	})

	t.Run("stale credential does not end a newer session", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		old := h.loginAs(t, verifiedUser(1, nil))
		h.clock.Advance(time.Minute)
		h.loginAs(t, verifiedUser(2, nil))

		require.False(t, h.svc.Invalidate(ctx, old))
		require.True(t, h.svc.IsAuthenticated(ctx))
		require.Empty(t, h.nav.Redirects())
	})

	t.Run("request without credential", func(t *testing.T) {
		h := newHarness(t)
		h.loginAs(t, verifiedUser(1, nil))
		require.False(t, h.svc.Invalidate(context.Background(), ""))
		require.Empty(t, h.nav.Redirects())
	})
}

func TestRefreshProfile(t *testing.T) {
	t.Run("replaces the cached user", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		h.loginAs(t, verifiedUser(3, &domain.AgencyDetails{Verified: false}))
		require.True(t, h.svc.IsAgencyVerificationRequired())

		server := verifiedUser(3, &domain.AgencyDetails{Verified: true})
		h.backend.me = func(context.Context) (*domain.User, error) { return server, nil }

		got, err := h.svc.RefreshProfile(ctx)
		require.NoError(t, err)
		require.Equal(t, server, got)
		require.Equal(t, server, h.svc.CurrentUser())
		require.False(t, h.svc.IsAgencyVerificationRequired())

		cached, err := h.creds.User(ctx)
		require.NoError(t, err)
		require.Equal(t, server, cached)
	})

	t.Run("without a session", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.RefreshProfile(context.Background())
		require.ErrorIs(t, err, session.ErrNoSession)
		require.Zero(t, h.backend.meCalls.Load())
	})

	t.Run("authentication failure invalidates", func(t *testing.T) {
		h := newHarness(t)
		h.loginAs(t, verifiedUser(1, nil))
		h.backend.me = func(context.Context) (*domain.User, error) {
			return nil, portalsdk.NewAPIError("get profile", 401, "token expired")
		}

		_, err := h.svc.RefreshProfile(context.Background())
		require.Error(t, err)
		require.Nil(t, h.svc.CurrentUser())
		require.Len(t, h.nav.Redirects(), 1)
	})

	t.Run("network failure leaves session untouched", func(t *testing.T) {
		h := newHarness(t)
		user := verifiedUser(1, nil)
		h.loginAs(t, user)

		_, err := h.svc.RefreshProfile(context.Background())
		require.True(t, portalsdk.IsNetworkError(err))
		require.Equal(t, user, h.svc.CurrentUser())
		require.Empty(t, h.nav.Redirects())
	})

	t.Run("concurrent calls share one fetch", func(t *testing.T) {
		h := newHarness(t)
		h.loginAs(t, verifiedUser(1, nil))

		release := make(chan struct{})
		h.backend.me = func(context.Context) (*domain.User, error) {
			<-release
			return verifiedUser(1, nil), nil
		}

		var wg sync.WaitGroup
		errs := make(chan error, 5)
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.svc.RefreshProfile(context.Background())
				errs <- err
			}()
		}
		require.Eventually(t, func() bool { return h.backend.meCalls.Load() == 1 }, time.Second, time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		require.Equal(t, int32(1), h.backend.meCalls.Load())
	})

	t.Run("cancelled caller does not fail the shared fetch", func(t *testing.T) {
		h := newHarness(t)
		h.loginAs(t, verifiedUser(1, nil))

		release := make(chan struct{})
		h.backend.me = func(ctx context.Context) (*domain.User, error) {
			select {
			case <-release:
				return verifiedUser(1, nil), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		first, cancel := context.WithCancel(context.Background())
		firstErr := make(chan error, 1)
		go func() {
			_, err := h.svc.RefreshProfile(first)
			firstErr <- err
		}()
		require.Eventually(t, func() bool { return h.backend.meCalls.Load() == 1 }, time.Second, time.Millisecond)

		secondErr := make(chan error, 1)
		go func() {
			_, err := h.svc.RefreshProfile(context.Background())
			secondErr <- err
		}()

		cancel()
		require.ErrorIs(t, <-firstErr, context.Canceled)

		close(release)
		require.NoError(t, <-secondErr)
		require.Equal(t, int32(1), h.backend.meCalls.Load())
	})

	t.Run("logout during fetch wins", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		h.loginAs(t, verifiedUser(1, nil))

		h.backend.me = func(context.Context) (*domain.User, error) {
			require.NoError(t, h.svc.Logout(ctx))
			return verifiedUser(1, nil), nil
		}

		_, err := h.svc.RefreshProfile(ctx)
		require.ErrorIs(t, err, session.ErrNoSession)
		require.Nil(t, h.svc.CurrentUser())
		user, err := h.creds.User(ctx)
		require.NoError(t, err)
		require.Nil(t, user)
	})
}

func TestRestore(t *testing.T) {
	t.Run("no stored session", func(t *testing.T) {
		h := newHarness(t)
		user, err := h.svc.Restore(context.Background())
		require.NoError(t, err)
		require.Nil(t, user)
	})

	t.Run("valid stored session", func(t *testing.T) {
		h := newHarness(t)
		stored := verifiedUser(4, &domain.AdminDetails{AdminLevel: "SUPPORT"})
		h.seed(t, mintToken(t, domain.RoleAdmin, t0.Add(time.Hour)), stored)

		user, err := h.svc.Restore(context.Background())
		require.NoError(t, err)
		require.Equal(t, stored.ID, user.ID)
		require.True(t, h.svc.CanAccessAdmin())
		require.Len(t, h.backend.visits, 1)
	})

	cases := []struct {
		name  string
		token func(t *testing.T) string
		want  error
	}{
		{"expired token is purged", func(t *testing.T) string { return mintToken(t, domain.RoleUser, t0.Add(-time.Minute)) }, session.ErrExpiredSession},
		{"malformed token is purged", func(t *testing.T) string { return "x.y" }, session.ErrInvalidSession},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			h.seed(t, tt.token(t), verifiedUser(1, nil))

			user, err := h.svc.Restore(ctx)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, user)

			token, err := h.creds.Token(ctx)
			require.NoError(t, err)
			require.Empty(t, token)
			cached, err := h.creds.User(ctx)
			require.NoError(t, err)
			require.Nil(t, cached)
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	addr := "Sousse"

	t.Run("replaces the user wholesale", func(t *testing.T) {
		h := newHarness(t)
		h.loginAs(t, verifiedUser(1, nil))
		updated := verifiedUser(1, nil)
		updated.Adresse = addr
		h.backend.updateMe = func(req portalsdk.UpdateProfileRequest) (*domain.User, error) {
			require.Equal(t, addr, *req.Adresse)
			return updated, nil
		}

		got, err := h.svc.UpdateProfile(context.Background(), portalsdk.UpdateProfileRequest{Adresse: &addr})
		require.NoError(t, err)
		require.Equal(t, updated, got)
		require.Equal(t, updated, h.svc.CurrentUser())
	})

	t.Run("expired session logs out without calling the backend", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		h.loginAs(t, verifiedUser(1, nil))
		h.clock.Advance(2 * time.Hour)

		_, err := h.svc.UpdateProfile(ctx, portalsdk.UpdateProfileRequest{Adresse: &addr})
		require.ErrorIs(t, err, session.ErrExpiredSession)
		require.Zero(t, h.backend.updateCalls.Load())
		require.Nil(t, h.svc.CurrentUser())
	})
}

func TestApplyUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.ErrorIs(t, h.svc.ApplyUser(ctx, verifiedUser(1, nil)), session.ErrNoSession)

	h.loginAs(t, verifiedUser(1, nil))
	require.Error(t, h.svc.ApplyUser(ctx, verifiedUser(2, nil)))

	disabled := verifiedUser(1, nil)
	disabled.Enabled = false
	require.NoError(t, h.svc.ApplyUser(ctx, disabled))
	require.False(t, h.svc.IsAccountEnabled())
}

func TestVerifyEmailRefreshesProfile(t *testing.T) {
	h := newHarness(t)
	unverified := verifiedUser(1, nil)
	unverified.EmailVerified = false
	h.loginAs(t, unverified)
	require.True(t, h.svc.IsEmailVerificationRequired())

	h.backend.verify = func(string) (*portalsdk.MessageResponse, error) {
		return &portalsdk.MessageResponse{Success: true}, nil
	}
	h.backend.me = func(context.Context) (*domain.User, error) { return verifiedUser(1, nil), nil }

	_, err := h.svc.VerifyEmail(context.Background(), "tok")
	require.NoError(t, err)
	require.False(t, h.svc.IsEmailVerificationRequired())
}

func TestChangePasswordRequiresSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.ChangePassword(context.Background(), portalsdk.ChangePasswordRequest{})
	require.ErrorIs(t, err, session.ErrNoSession)

	h.loginAs(t, verifiedUser(1, nil))
	resp, err := h.svc.ChangePassword(context.Background(), portalsdk.ChangePasswordRequest{})
	require.NoError(t, err)
	require.True(t, resp.Success)
}

func TestErrorsAreDistinct(t *testing.T) {
	require.False(t, errors.Is(session.ErrExpiredSession, session.ErrNoSession))
	require.False(t, errors.Is(session.ErrInvalidSession, session.ErrExpiredSession))
}
