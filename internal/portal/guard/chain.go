package guard

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
)

// Decision is the outcome of evaluating a chain.
type Decision struct {
	Allowed  bool
	Redirect domain.Redirect
	// DeniedBy names the guard that failed.
	DeniedBy string
}

// Chain is an ordered list of guards.
type Chain struct {
	Name   string
	Guards []Guard
}

// Evaluate runs the guards in order and stops at the first failure.
func (c Chain) Evaluate(ctx context.Context, s Session, req Request) Decision {
	for _, g := range c.Guards {
		if redirect, ok := g.Check(ctx, s, req); !ok {
			return Decision{Redirect: redirect, DeniedBy: g.Name()}
		}
	}
	return Decision{Allowed: true}
}

var (
	PublicChain = Chain{Name: string(domain.ChainPublic)}

	VerifiedChain = Chain{Name: string(domain.ChainVerified), Guards: []Guard{
		Authenticated{},
		EmailVerified{},
	}}

	// RoleChain is the full precedence: a role mismatch is always reported
	// before a pending domain verification.
	RoleChain = Chain{Name: string(domain.ChainRole), Guards: []Guard{
		Authenticated{},
		EmailVerified{},
		RoleMatched{},
		DomainVerified{},
	}}

	AdminChain = Chain{Name: string(domain.ChainAdmin), Guards: []Guard{
		AdminOnly{},
	}}
)

// ForKind returns the chain a route declares.
func ForKind(kind domain.ChainKind) (Chain, error) {
	switch kind {
	case domain.ChainPublic:
		return PublicChain, nil
	case domain.ChainVerified:
		return VerifiedChain, nil
	case domain.ChainRole:
		return RoleChain, nil
	case domain.ChainAdmin:
		return AdminChain, nil
	default:
		return Chain{}, fmt.Errorf("guard: unknown chain %q", kind)
	}
}
