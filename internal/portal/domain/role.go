package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Role is the account type the backend assigns. The four roles are mutually
// exclusive.
type Role string

const (
	RoleUser   Role = "UTILISATEUR"
	RoleClient Role = "CLIENT_ABONNE"
	RoleAgency Role = "AGENCE_IMMOBILIERE"
	RoleAdmin  Role = "ADMINISTRATEUR"
)

var ErrUnknownRole = errors.New("domain: unknown role")

// Roles lists every role in a stable order.
func Roles() []Role {
	return []Role{RoleUser, RoleClient, RoleAgency, RoleAdmin}
}

// ParseRole accepts the wire value case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(Roles(), r) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

func (r Role) Valid() bool { return slices.Contains(Roles(), r) }

func (r Role) String() string { return string(r) }

// DisplayName is the label shown to end users.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "Utilisateur Standard"
	case RoleClient:
		return "Client Abonné"
	case RoleAgency:
		return "Agence Immobilière"
	case RoleAdmin:
		return "Administrateur"
	default:
		return "Utilisateur"
	}
}
