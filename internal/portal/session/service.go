// Package session is the authoritative in-memory session: who is logged in,
// whether their token is still good, and the reactive stream every consumer
// reads the current user from.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
	"github.com/aussiebroadwan/immo/pkg/jwtx"
	"github.com/aussiebroadwan/immo/pkg/observable"
	"github.com/aussiebroadwan/immo/pkg/portalsdk"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNoSession is returned by operations that need a logged-in user.
	ErrNoSession = errors.New("session: no active session")

	// ErrExpiredSession means the stored token's exp has passed. The
	// session has already been cleared when it is returned.
	ErrExpiredSession = errors.New("session: expired, please log in again")

	// ErrInvalidSession means the stored or issued token cannot be decoded,
	// or the cached snapshot is unusable. Treated like no session.
	ErrInvalidSession = errors.New("session: invalid token")
)

// Backend is the slice of the marketplace API the session needs.
// *portalsdk.Client implements it.
type Backend interface {
	Login(ctx context.Context, req portalsdk.LoginRequest) (*portalsdk.LoginResponse, error)
	Register(ctx context.Context, req portalsdk.RegisterRequest) (*portalsdk.RegisterResponse, error)
	VerifyEmail(ctx context.Context, token string) (*portalsdk.MessageResponse, error)
	ResendVerification(ctx context.Context, email string) (*portalsdk.MessageResponse, error)
	RequestPasswordReset(ctx context.Context, email string) (*portalsdk.MessageResponse, error)
	ChangePassword(ctx context.Context, req portalsdk.ChangePasswordRequest) (*portalsdk.MessageResponse, error)
	Me(ctx context.Context) (*domain.User, error)
	UpdateMe(ctx context.Context, req portalsdk.UpdateProfileRequest) (*domain.User, error)
	TrackVisit(ctx context.Context, req portalsdk.VisitRequest) error
}

// CredentialStore persists the session. *store.Credentials implements it.
type CredentialStore interface {
	Token(ctx context.Context) (string, error)
	User(ctx context.Context) (*domain.User, error)
	SaveSession(ctx context.Context, token string, user *domain.User, refreshToken string) error
	SaveUser(ctx context.Context, user *domain.User) error
	Clear(ctx context.Context) error
	SessionID(ctx context.Context) (string, error)
}

// Navigator performs the redirect after a forced logout.
type Navigator interface {
	CurrentPath() string
	Navigate(to domain.Redirect)
}

// Service is the session. Create one per application with New.
//
// Mutations (login, logout, invalidation, profile commits) are serialised
// and publish to the user stream while still serialised, so the stream never
// disagrees with the credential store. Stream subscribers must therefore not
// call mutating methods synchronously from their callback.
//
// The durable store may be shared with other processes. The published user
// always belongs to the token it was committed with; when the stored token
// changes underneath, the next read re-hydrates the user from the store.
type Service struct {
	backend      Backend
	creds        CredentialStore
	nav          Navigator
	log          *slog.Logger
	now          func() time.Time
	fetchTimeout time.Duration

	user    *observable.Subject[*domain.User]
	loading *observable.Subject[bool]

	// committed is the token the published user belongs to.
	committed atomic.Pointer[string]

	mu       sync.Mutex
	loadMu   sync.Mutex
	inFlight int
	refresh  singleflight.Group
}

type Option func(*Service)

func WithNavigator(nav Navigator) Option {
	return func(s *Service) { s.nav = nav }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFetchTimeout bounds a shared profile fetch, which outlives the
// context of whichever caller started it.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) { s.fetchTimeout = d }
}

func New(backend Backend, creds CredentialStore, opts ...Option) *Service {
	s := &Service{
		backend:      backend,
		creds:        creds,
		log:          slog.Default(),
		now:          time.Now,
		fetchTimeout: 30 * time.Second,
		user:    observable.NewSubject[*domain.User](nil),
		loading: observable.NewSubject(false),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserStream replays the current user (nil when logged out) to each new
// subscriber, then every change.
func (s *Service) UserStream() observable.Stream[*domain.User] { return s.user }

// Loading is true while a login, registration or profile call is running.
func (s *Service) Loading() observable.Stream[bool] { return s.loading }

// CurrentUser is the user the stored token belongs to, nil when logged out.
// It is also the latest value of UserStream.
func (s *Service) CurrentUser() *domain.User {
	if _, err := s.resync(context.Background()); err != nil {
		s.log.Warn("session store unreadable, serving cached user", "error", err)
	}
	return s.user.Value()
}

// Restore hydrates the session from the credential store at startup. A
// stored token that is expired or unreadable is purged eagerly and reported
// as ErrExpiredSession or ErrInvalidSession. No stored token is not an
// error and yields a nil user.
func (s *Service) Restore(ctx context.Context) (*domain.User, error) {
	token, err := s.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	claims, err := jwtx.Decode(token)
	if err != nil {
		s.log.Warn("stored token is malformed, clearing session", "error", err)
		return nil, s.purge(ctx, ErrInvalidSession)
	}
	if err := claims.ValidateExpiry(s.now()); err != nil {
		s.log.Warn("stored token expired, clearing session", "expired_at", claims.ExpiresAtTime())
		return nil, s.purge(ctx, ErrExpiredSession)
	}

	user, err := s.creds.User(ctx)
	if err != nil || user == nil {
		s.log.Warn("cached user missing or unreadable, clearing session", "error", err)
		return nil, s.purge(ctx, ErrInvalidSession)
	}
	if !issuedFor(claims, user) {
		s.log.Warn("cached user does not match the stored token, clearing session",
			"token_role", claims.UserType, "user_role", user.Role())
		return nil, s.purge(ctx, ErrInvalidSession)
	}

	s.mu.Lock()
	s.setCommitted(token)
	s.user.Publish(user)
	s.mu.Unlock()

	s.trackBestEffort(ctx, domain.PathDashboard)
	return user, nil
}

// Login authenticates against the backend and, on success, stores token and
// user together and publishes the user. Any failure leaves the session as it
// was: a rejected login is portalsdk.ErrInvalidCredentials (or
// ErrEmailNotVerified), an unreachable backend a *portalsdk.NetworkError.
func (s *Service) Login(ctx context.Context, req portalsdk.LoginRequest) (*domain.User, error) {
	done := s.startLoading()
	defer done()

	resp, err := s.backend.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, fmt.Errorf("%w: login response without token or user", ErrInvalidSession)
	}
	if _, err := jwtx.Decode(resp.Token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	s.mu.Lock()
	if err := s.creds.SaveSession(ctx, resp.Token, resp.User, resp.RefreshToken); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("login: persist session: %w", err)
	}
	s.setCommitted(resp.Token)
	s.user.Publish(resp.User)
	s.mu.Unlock()

	s.log.Info("logged in", "user_id", resp.User.ID, "role", resp.User.Role())
	s.trackBestEffort(ctx, domain.PathLogin)
	return resp.User, nil
}

// Logout clears every stored credential and publishes nil. Calling it
// without a session is a no-op.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearLocked(ctx); err != nil {
		return err
	}
	s.log.Info("logged out")
	return nil
}

// Invalidate is the authentication-failure path. It clears the session and
// redirects to login only if credential is still the stored token, so a
// burst of failures carrying the same token produces one redirect, and a
// late failure from a previous session never logs out a newer one. It
// reports whether it acted.
func (s *Service) Invalidate(ctx context.Context, credential string) bool {
	if credential == "" {
		return false
	}

	s.mu.Lock()
	current, err := s.creds.Token(ctx)
	if err != nil {
		s.log.Warn("invalidate: token lookup failed, clearing anyway", "error", err)
		current = credential
	}
	if current != credential {
		s.mu.Unlock()
		return false
	}
	if err := s.clearLocked(ctx); err != nil {
		s.log.Error("invalidate: clear failed", "error", err)
	}
	s.mu.Unlock()

	s.log.Warn("session invalidated by backend")
	if s.nav != nil {
		s.nav.Navigate(domain.LoginRedirect(s.nav.CurrentPath()))
	}
	return true
}

// HandleUnauthorized adapts Invalidate to httpx.UnauthorizedHandler.
func (s *Service) HandleUnauthorized(ctx context.Context, _ *http.Request, credential string) {
	s.Invalidate(ctx, credential)
}

// RefreshProfile refetches the user from the backend and replaces the
// cached snapshot. Concurrent calls for the same token share one request,
// which is not cancelled when one of the waiting callers gives up. An
// authentication failure invalidates the session.
func (s *Service) RefreshProfile(ctx context.Context) (*domain.User, error) {
	token, err := s.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh profile: %w", err)
	}
	if token == "" {
		return nil, ErrNoSession
	}

	ch := s.refresh.DoChan(token, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		user, err := s.backend.Me(fetchCtx)
		if err != nil {
			if portalsdk.IsAuthFailure(err) {
				s.Invalidate(fetchCtx, token)
			}
			return nil, err
		}
		if err := s.commitUser(fetchCtx, token, user); err != nil {
			return nil, err
		}
		return user, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.User), nil
	}
}

// IsAuthenticated is true iff a token is stored, its exp is strictly in the
// future, and a user issued that token is held. It re-reads and re-decodes
// the token on every call.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	token, err := s.resync(ctx)
	if err != nil || token == "" {
		return false
	}
	claims, err := jwtx.Decode(token)
	if err != nil || claims.ValidateExpiry(s.now()) != nil {
		return false
	}
	return s.user.Value() != nil
}

// Claims decodes the stored token. Nil when there is none or it is
// malformed.
func (s *Service) Claims(ctx context.Context) *jwtx.Claims {
	token, err := s.creds.Token(ctx)
	if err != nil || token == "" {
		return nil
	}
	claims, err := jwtx.Decode(token)
	if err != nil {
		return nil
	}
	return &claims
}

// commitUser stores and publishes user unless the session changed since
// token was read. A logout racing a profile fetch therefore wins.
func (s *Service) commitUser(ctx context.Context, token string, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.creds.Token(ctx)
	if err != nil {
		return err
	}
	if current == "" || current != token {
		return ErrNoSession
	}
	if err := s.creds.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	s.user.Publish(user)
	return nil
}

// resync re-hydrates the published user when the stored token is no longer
// the one it was committed with, e.g. another process logged in or out on a
// shared store. It returns the stored token.
func (s *Service) resync(ctx context.Context) (string, error) {
	token, err := s.creds.Token(ctx)
	if err != nil {
		return "", err
	}
	if token == s.committedToken() {
		return token, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	token, err = s.creds.Token(ctx)
	if err != nil {
		return "", err
	}
	if token == s.committedToken() {
		return token, nil
	}

	user := s.hydrate(ctx, token)
	s.setCommitted(token)
	if user != nil || s.user.Value() != nil {
		s.user.Publish(user)
	}
	s.log.Info("session changed in the store", "authenticated", user != nil)
	return token, nil
}

// hydrate loads the cached user for token. Nil unless the token is readable,
// unexpired and was issued for that user's role.
func (s *Service) hydrate(ctx context.Context, token string) *domain.User {
	if token == "" {
		return nil
	}
	claims, err := jwtx.Decode(token)
	if err != nil || claims.ValidateExpiry(s.now()) != nil {
		return nil
	}
	user, err := s.creds.User(ctx)
	if err != nil || user == nil || !issuedFor(claims, user) {
		return nil
	}
	return user
}

// issuedFor reports whether the token's role claim names the user's role.
// Tokens without the claim are accepted.
func issuedFor(claims jwtx.Claims, user *domain.User) bool {
	return claims.UserType == "" || claims.UserType == string(user.Role())
}

func (s *Service) committedToken() string {
	if p := s.committed.Load(); p != nil {
		return *p
	}
	return ""
}

func (s *Service) setCommitted(token string) { s.committed.Store(&token) }

// clearLocked must be called with mu held.
func (s *Service) clearLocked(ctx context.Context) error {
	if err := s.creds.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.setCommitted("")
	if s.user.Value() != nil {
		s.user.Publish(nil)
	}
	return nil
}

func (s *Service) purge(ctx context.Context, cause error) error {
	if err := s.Logout(ctx); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (s *Service) startLoading() (done func()) {
	s.loadMu.Lock()
	s.inFlight++
	if s.inFlight == 1 {
		s.loading.Publish(true)
	}
	s.loadMu.Unlock()

	return func() {
		s.loadMu.Lock()
		s.inFlight--
		if s.inFlight == 0 {
			s.loading.Publish(false)
		}
		s.loadMu.Unlock()
	}
}
