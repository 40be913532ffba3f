package domain

import (
	"net/url"
	"strings"
)

// Well-known views.
const (
	PathLogin        = "/login"
	PathRegister     = "/register"
	PathVerifyEmail  = "/verify-email"
	PathDashboard    = "/dashboard"
	PathClientHome   = "/client/dashboard"
	PathAgencyHome   = "/agency/dashboard"
	PathAdminHome    = "/admin/dashboard"
	PathFallback     = PathDashboard
	QueryReturnTo    = "redirect"
	QuerySection     = "section"
	SectionVerifying = "verification"
)

// Redirect is a navigation target produced by a failed guard or by the
// authentication-failure handler.
type Redirect struct {
	Path  string
	Query url.Values
}

func (r Redirect) IsZero() bool { return r.Path == "" }

func (r Redirect) String() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// DashboardFor is the landing view of a role. Unknown roles land on the
// generic dashboard.
func DashboardFor(role Role) string {
	switch role {
	case RoleClient:
		return PathClientHome
	case RoleAgency:
		return PathAgencyHome
	case RoleAdmin:
		return PathAdminHome
	default:
		return PathDashboard
	}
}

// LoginRedirect sends the user to login, remembering where they were headed.
// Paths that cannot be returned to (empty, login itself) are not carried.
func LoginRedirect(returnTo string) Redirect {
	r := Redirect{Path: PathLogin}
	if !returnable(returnTo) {
		return r
	}
	r.Query = url.Values{QueryReturnTo: {returnTo}}
	return r
}

// returnable accepts same-origin absolute paths other than login. "//host"
// and "/\host" are protocol-relative and leave the origin.
func returnable(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	path, _, _ := strings.Cut(p, "?")
	path, _, _ = strings.Cut(path, "#")
	return strings.TrimSuffix(path, "/") != PathLogin
}

// DomainVerificationRedirect lands the user on their own dashboard, opened on
// the section explaining the pending approval.
func DomainVerificationRedirect(role Role) Redirect {
	return Redirect{
		Path:  DashboardFor(role),
		Query: url.Values{QuerySection: {SectionVerifying}},
	}
}

// ChainKind names the ordered guard list protecting a route.
type ChainKind string

const (
	ChainPublic   ChainKind = "public"
	ChainVerified ChainKind = "verified"
	ChainRole     ChainKind = "role"
	ChainAdmin    ChainKind = "admin"
)

func (k ChainKind) Valid() bool {
	switch k {
	case ChainPublic, ChainVerified, ChainRole, ChainAdmin:
		return true
	}
	return false
}

// RouteMeta is the static authorization declaration of a route.
type RouteMeta struct {
	Pattern                    string
	Chain                      ChainKind
	ExpectedRoles              []Role
	RequiresDomainVerification bool
}
