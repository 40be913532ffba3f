package guard

import (
	"context"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
)

// State is where a session stands relative to one route.
type State int

const (
	Unauthenticated State = iota
	AuthenticatedUnverified
	AuthenticatedVerifiedWrongRole
	DomainUnverified
	AuthenticatedVerifiedAuthorized
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case AuthenticatedUnverified:
		return "authenticated_unverified"
	case AuthenticatedVerifiedWrongRole:
		return "authenticated_verified_wrong_role"
	case DomainUnverified:
		return "domain_unverified"
	case AuthenticatedVerifiedAuthorized:
		return "authenticated_verified_authorized"
	default:
		return "unknown"
	}
}

// Classify places the session in the state machine for route, using the
// same precedence as RoleChain. Only AuthenticatedVerifiedAuthorized enters
// a role-protected view.
func Classify(ctx context.Context, s Session, route domain.RouteMeta) State {
	req := Request{Route: route}
	steps := []struct {
		guard Guard
		state State
	}{
		{Authenticated{}, Unauthenticated},
		{EmailVerified{}, AuthenticatedUnverified},
		{RoleMatched{}, AuthenticatedVerifiedWrongRole},
		{DomainVerified{}, DomainUnverified},
	}
	for _, step := range steps {
		if _, ok := step.guard.Check(ctx, s, req); !ok {
			return step.state
		}
	}
	return AuthenticatedVerifiedAuthorized
}
