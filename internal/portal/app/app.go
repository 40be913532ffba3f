// Package app wires the portal core together: credential storage, the
// backend client and its middleware, the session and the guarded router.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/immo/internal/portal/guard"
	"github.com/aussiebroadwan/immo/internal/portal/route"
	"github.com/aussiebroadwan/immo/internal/portal/session"
	"github.com/aussiebroadwan/immo/internal/portal/store"
	"github.com/aussiebroadwan/immo/internal/portal/store/drivers/memory"
	"github.com/aussiebroadwan/immo/internal/portal/store/drivers/redis"
	"github.com/aussiebroadwan/immo/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/immo/pkg/httpx"
	"github.com/aussiebroadwan/immo/pkg/portalsdk"
	"github.com/aussiebroadwan/immo/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// App holds the wired dependencies. Create one per process with New and
// release it with Close.
type App struct {
	cfg    Config
	logger *slog.Logger

	durable store.Store
	ephem   store.Store

	Credentials *store.Credentials
	Client      *portalsdk.Client
	Session     *session.Service
	Routes      *route.Table
	Router      *Router
}

type Option func(*options)

type options struct {
	logger *slog.Logger
	base   http.RoundTripper
}

// WithLogger overrides the logger built from Config.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBaseTransport replaces http.DefaultTransport under the middleware.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slogx.New(slogx.Config{
			Service: "immo",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}

	a := &App{cfg: cfg, logger: o.logger}

	if err := a.initStores(ctx); err != nil {
		return nil, err
	}
	if err := a.initRoutes(); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.initSession(o.base)

	return a, nil
}

func (a *App) Logger() *slog.Logger { return a.logger }

// Close releases the credential stores.
func (a *App) Close() error {
	var errs []error
	if a.durable != nil {
		errs = append(errs, a.durable.Close())
	}
	if a.ephem != nil {
		errs = append(errs, a.ephem.Close())
	}
	return errors.Join(errs...)
}

func (a *App) initStores(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case DriverSQLite:
		db, err := sqlite.NewStore(a.cfg.StoreDSN)
		if err != nil {
			return fmt.Errorf("open credential database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("apply credential migrations: %w", err)
		}
		a.durable = db
	case DriverRedis:
		rs, err := redis.Open(ctx, a.cfg.RedisAddr, redis.WithPrefix(a.cfg.RedisPrefix))
		if err != nil {
			return fmt.Errorf("connect credential redis: %w", err)
		}
		a.durable = rs
	case DriverMemory:
		a.durable = memory.NewStore()
	}

	// Session-scoped values live as long as the process, like a browser tab.
	a.ephem = memory.NewStore()
	a.Credentials = store.NewCredentials(a.durable, a.ephem)

	a.logger.Debug("credential store ready", "driver", a.cfg.StoreDriver)
	return nil
}

func (a *App) initRoutes() error {
	var (
		table *route.Table
		err   error
	)
	if a.cfg.RoutesFile != "" {
		table, err = route.Load(a.cfg.RoutesFile)
	} else {
		table, err = route.Default()
	}
	if err != nil {
		return fmt.Errorf("load route table: %w", err)
	}
	a.Routes = table
	return nil
}

func (a *App) rateLimit() httpx.RateLimitConfig {
	switch {
	case a.cfg.RateLimitRequests < 0:
		return httpx.RateLimitConfig{}
	case a.cfg.RateLimitRequests == 0:
		return httpx.ModerateLimit
	}
	return httpx.RateLimitConfig{
		RequestsPerWindow: a.cfg.RateLimitRequests,
		Window:            a.cfg.RateLimitWindow,
		Burst:             a.cfg.RateLimitBurst,
	}
}

func (a *App) initSession(base http.RoundTripper) {
	// The transport reports authentication failures to the session, and the
	// session talks to the backend through the transport.
	var svc *session.Service

	// slogx.Transport comes first so every later middleware logs with the
	// request id.
	rt := httpx.Chain(base,
		slogx.Transport(a.logger),
		httpx.Bearer(a.Credentials),
		httpx.InterceptUnauthorized(func(ctx context.Context, r *http.Request, credential string) {
			svc.HandleUnauthorized(ctx, r, credential)
		}),
		httpx.RateLimit(a.rateLimit(), httpx.HostKeyExtractor),
		httpx.Only(httpx.PathPrefix("/api/auth/"), httpx.RateLimit(httpx.StrictLimit, httpx.PathKeyExtractor)),
	)

	client := portalsdk.NewClient(a.cfg.APIBaseURL).WithTransport(rt)
	client.HTTPClient.Timeout = a.cfg.HTTPTimeout
	client.UserAgent = "immo-cli/" + BuildVersion
	a.Client = client

	a.Router = &Router{log: a.logger}
	svc = session.New(client, a.Credentials,
		session.WithNavigator(a.Router),
		session.WithLogger(a.logger),
	)
	a.Session = svc
	a.Router.eval = guard.NewEvaluator(svc, a.Routes, a.logger)
}
