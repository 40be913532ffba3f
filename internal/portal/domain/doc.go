// Package domain holds the identity model and navigation vocabulary shared by
// the session, guard and route packages: roles, the AuthUser tagged union,
// route authorization metadata and redirect targets.
package domain
