package session

import (
	"context"
	"slices"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
)

// Role predicates read the cached user only. They never touch the network.

func (s *Service) HasRole(role domain.Role) bool {
	u := s.CurrentUser()
	return u != nil && u.Role() == role
}

func (s *Service) HasAnyRole(roles ...domain.Role) bool {
	u := s.CurrentUser()
	return u != nil && slices.Contains(roles, u.Role())
}

// IsEmailVerificationRequired is true iff a user is present whose address
// is unconfirmed.
func (s *Service) IsEmailVerificationRequired() bool {
	u := s.CurrentUser()
	return u != nil && !u.EmailVerified
}

// IsAgencyVerificationRequired is true iff the user is an agency still
// awaiting approval.
func (s *Service) IsAgencyVerificationRequired() bool {
	return s.CurrentUser().DomainVerificationPending()
}

func (s *Service) IsAgencyVerified() bool {
	a, ok := s.CurrentUser().Agency()
	return ok && a.Verified
}

func (s *Service) IsAccountEnabled() bool {
	u := s.CurrentUser()
	return u != nil && u.Enabled
}

func (s *Service) CanAccessAdmin() bool { return s.HasRole(domain.RoleAdmin) }

func (s *Service) CanAccessAgency() bool {
	return s.HasAnyRole(domain.RoleAgency, domain.RoleAdmin)
}

func (s *Service) CanAccessPremium() bool {
	return s.HasAnyRole(domain.RoleClient, domain.RoleAgency, domain.RoleAdmin)
}

func (s *Service) DisplayName() string { return s.CurrentUser().DisplayName() }

// RoleDisplayName is "" when logged out.
func (s *Service) RoleDisplayName() string {
	u := s.CurrentUser()
	if u == nil {
		return ""
	}
	return u.Role().DisplayName()
}

// Snapshot is a point-in-time view of every predicate, for status output.
type Snapshot struct {
	Authenticated              bool
	User                       *domain.User
	EmailVerificationRequired  bool
	DomainVerificationRequired bool
	CanAccessAdmin             bool
	CanAccessAgency            bool
	CanAccessPremium           bool
	AccountEnabled             bool
}

func (s *Service) Snapshot(ctx context.Context) Snapshot {
	return Snapshot{
		Authenticated:              s.IsAuthenticated(ctx),
		User:                       s.CurrentUser(),
		EmailVerificationRequired:  s.IsEmailVerificationRequired(),
		DomainVerificationRequired: s.IsAgencyVerificationRequired(),
		CanAccessAdmin:             s.CanAccessAdmin(),
		CanAccessAgency:            s.CanAccessAgency(),
		CanAccessPremium:           s.CanAccessPremium(),
		AccountEnabled:             s.IsAccountEnabled(),
	}
}
