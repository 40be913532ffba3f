// Package guard decides whether a navigation may enter a view. Guards are
// ordered predicates; the first one to fail determines the redirect and
// nothing after it runs. A denial is a value, never an error.
package guard

import (
	"context"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
)

// Session is what guards read. Every method is answered from resident
// state, so evaluation never waits on the network.
type Session interface {
	IsAuthenticated(ctx context.Context) bool
	IsEmailVerificationRequired() bool
	HasAnyRole(roles ...domain.Role) bool
	CurrentUser() *domain.User
}

// Request is one attempted navigation.
type Request struct {
	// Path is what the user asked for, query included, so login can send
	// them back there.
	Path  string
	Route domain.RouteMeta
}

// Guard allows entry (ok) or names where to go instead.
type Guard interface {
	Name() string
	Check(ctx context.Context, s Session, req Request) (redirect domain.Redirect, ok bool)
}

// Authenticated requires an unexpired token.
type Authenticated struct{}

func (Authenticated) Name() string { return "authenticated" }

func (Authenticated) Check(ctx context.Context, s Session, req Request) (domain.Redirect, bool) {
	if s.IsAuthenticated(ctx) {
		return domain.Redirect{}, true
	}
	return domain.LoginRedirect(req.Path), false
}

// EmailVerified sends users with an unconfirmed address to the pending
// verification view.
type EmailVerified struct{}

func (EmailVerified) Name() string { return "email_verified" }

func (EmailVerified) Check(_ context.Context, s Session, _ Request) (domain.Redirect, bool) {
	if !s.IsEmailVerificationRequired() {
		return domain.Redirect{}, true
	}
	return domain.Redirect{Path: domain.PathVerifyEmail}, false
}

// RoleMatched requires one of the route's expected roles. Routes that
// declare none pass. A mismatch lands on the user's own dashboard, not on
// login: they are signed in, just not allowed here.
type RoleMatched struct{}

func (RoleMatched) Name() string { return "role_matched" }

func (RoleMatched) Check(_ context.Context, s Session, req Request) (domain.Redirect, bool) {
	if len(req.Route.ExpectedRoles) == 0 || s.HasAnyRole(req.Route.ExpectedRoles...) {
		return domain.Redirect{}, true
	}
	return domain.Redirect{Path: domain.DashboardFor(s.CurrentUser().Role())}, false
}

// DomainVerified only applies to routes flagged RequiresDomainVerification.
// A role whose secondary approval is pending lands on its own dashboard,
// opened on the section explaining why.
type DomainVerified struct{}

func (DomainVerified) Name() string { return "domain_verified" }

func (DomainVerified) Check(_ context.Context, s Session, req Request) (domain.Redirect, bool) {
	if !req.Route.RequiresDomainVerification {
		return domain.Redirect{}, true
	}
	u := s.CurrentUser()
	if !u.DomainVerificationPending() {
		return domain.Redirect{}, true
	}
	return domain.DomainVerificationRedirect(u.Role()), false
}

// AdminOnly folds authentication, email verification and the administrator
// role into one check. Signed-in non-admins go to their own dashboard.
type AdminOnly struct{}

func (AdminOnly) Name() string { return "admin_only" }

func (AdminOnly) Check(ctx context.Context, s Session, req Request) (domain.Redirect, bool) {
	for _, g := range []Guard{Authenticated{}, EmailVerified{}} {
		if r, ok := g.Check(ctx, s, req); !ok {
			return r, false
		}
	}
	if s.HasAnyRole(domain.RoleAdmin) {
		return domain.Redirect{}, true
	}
	return domain.Redirect{Path: domain.DashboardFor(s.CurrentUser().Role())}, false
}
