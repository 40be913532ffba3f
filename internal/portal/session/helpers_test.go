package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
	"github.com/aussiebroadwan/immo/internal/portal/session"
	"github.com/aussiebroadwan/immo/internal/portal/store"
	"github.com/aussiebroadwan/immo/internal/portal/store/drivers/memory"
	"github.com/aussiebroadwan/immo/pkg/jwtx"
	"github.com/aussiebroadwan/immo/pkg/portalsdk"
	"github.com/aussiebroadwan/immo/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func mintToken(t *testing.T, role domain.Role, exp time.Time) string {
	t.Helper()
	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user@example.com",
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserType: string(role),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return raw
}

func verifiedUser(id int64, details domain.Details) *domain.User {
	return &domain.User{ID: id, Prenom: "Sami", Nom: "Ben Ali", Email: "user@example.com", Enabled: true, EmailVerified: true, Details: details}
}

// fakeBackend answers with canned values. Unset funcs fail the call.
type fakeBackend struct {
	login    func(portalsdk.LoginRequest) (*portalsdk.LoginResponse, error)
	me       func(context.Context) (*domain.User, error)
	updateMe func(portalsdk.UpdateProfileRequest) (*domain.User, error)
	verify   func(string) (*portalsdk.MessageResponse, error)

	meCalls     atomic.Int32
	updateCalls atomic.Int32

	mu     sync.Mutex
	visits []portalsdk.VisitRequest
}

var errUnset = &portalsdk.NetworkError{Op: "fake", Err: context.DeadlineExceeded}

func (f *fakeBackend) Login(_ context.Context, req portalsdk.LoginRequest) (*portalsdk.LoginResponse, error) {
	if f.login == nil {
		return nil, errUnset
	}
	return f.login(req)
}

func (f *fakeBackend) Register(_ context.Context, req portalsdk.RegisterRequest) (*portalsdk.RegisterResponse, error) {
	return &portalsdk.RegisterResponse{Message: "ok", EmailVerificationRequired: true}, nil
}

func (f *fakeBackend) VerifyEmail(_ context.Context, token string) (*portalsdk.MessageResponse, error) {
	if f.verify == nil {
		return nil, errUnset
	}
	return f.verify(token)
}

func (f *fakeBackend) ResendVerification(context.Context, string) (*portalsdk.MessageResponse, error) {
	return &portalsdk.MessageResponse{Success: true}, nil
}

func (f *fakeBackend) RequestPasswordReset(context.Context, string) (*portalsdk.MessageResponse, error) {
	return &portalsdk.MessageResponse{Success: true}, nil
}

func (f *fakeBackend) ChangePassword(context.Context, portalsdk.ChangePasswordRequest) (*portalsdk.MessageResponse, error) {
	return &portalsdk.MessageResponse{Success: true}, nil
}

func (f *fakeBackend) Me(ctx context.Context) (*domain.User, error) {
	f.meCalls.Add(1)
	if f.me == nil {
		return nil, errUnset
	}
	return f.me(ctx)
}

func (f *fakeBackend) UpdateMe(_ context.Context, req portalsdk.UpdateProfileRequest) (*domain.User, error) {
	f.updateCalls.Add(1)
	if f.updateMe == nil {
		return nil, errUnset
	}
	return f.updateMe(req)
}

func (f *fakeBackend) TrackVisit(_ context.Context, req portalsdk.VisitRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visits = append(f.visits, req)
	return nil
}

type recordingNavigator struct {
	mu        sync.Mutex
	path      string
	redirects []domain.Redirect
}

func (n *recordingNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *recordingNavigator) Navigate(to domain.Redirect) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, to)
}

func (n *recordingNavigator) Redirects() []domain.Redirect {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Redirect(nil), n.redirects...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	svc     *session.Service
	backend *fakeBackend
	creds   *store.Credentials
	nav     *recordingNavigator
	clock   *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend: &fakeBackend{},
		creds:   store.NewCredentials(memory.NewStore(), memory.NewStore()),
		nav:     &recordingNavigator{path: "/agency/properties"},
		clock:   &clock{now: t0},
	}
	h.svc = session.New(h.backend, h.creds,
		session.WithNavigator(h.nav),
		session.WithClock(h.clock.Now),
		session.WithLogger(slogx.Discard()),
	)
	return h
}

// seed stores a session directly, as a previous run would have.
func (h *harness) seed(t *testing.T, token string, user *domain.User) {
	t.Helper()
	require.NoError(t, h.creds.SaveSession(context.Background(), token, user, ""))
}

// loginAs performs a successful login for user with a token valid for an hour.
func (h *harness) loginAs(t *testing.T, user *domain.User) string {
	t.Helper()
	token := mintToken(t, user.Role(), h.clock.Now().Add(time.Hour))
	h.backend.login = func(portalsdk.LoginRequest) (*portalsdk.LoginResponse, error) {
		return &portalsdk.LoginResponse{Token: token, User: user}, nil
	}
	_, err := h.svc.Login(context.Background(), portalsdk.LoginRequest{Email: user.Email, Password: "secret"})
	require.NoError(t, err)
	return token
}
