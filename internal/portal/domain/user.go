package domain

import "strings"

// User is the AuthUser identity entity. Role-specific data lives in Details,
// whose concrete type is the role discriminator: nil for a standard user,
// *ClientDetails, *AgencyDetails or *AdminDetails otherwise. A standard user
// with an agency license is therefore not representable.
//
// Users are replaced wholesale, never mutated in place.
type User struct {
	ID            int64
	Nom           string
	Prenom        string
	Email         string
	Telephone     string
	Adresse       string
	Status        string
	Enabled       bool
	EmailVerified bool
	RegisteredAt  Timestamp
	LastLogin     Timestamp

	Details Details
}

// Details is the sealed set of role-specific extensions.
type Details interface {
	role() Role
}

type ClientDetails struct {
	SubscriptionType  string
	SearchLimit       int
	SubscriptionStart Timestamp
	SubscriptionEnd   Timestamp
}

type AgencyDetails struct {
	NomAgence         string
	NumeroLicence     string
	SiteWeb           string
	NombreEmployes    int
	ZonesCouverture   string
	Verified          bool
	VerificationDate  Timestamp
	VerificationNotes string
}

type AdminDetails struct {
	AdminLevel        string
	CanManageUsers    bool
	CanVerifyAgencies bool
	CanViewStatistics bool
	CanManageSystem   bool
}

func (*ClientDetails) role() Role { return RoleClient }
func (*AgencyDetails) role() Role { return RoleAgency }
func (*AdminDetails) role() Role  { return RoleAdmin }

// Role derives the discriminator from Details.
func (u *User) Role() Role {
	if u == nil || u.Details == nil {
		return RoleUser
	}
	return u.Details.role()
}

func (u *User) Client() (*ClientDetails, bool) {
	if u == nil {
		return nil, false
	}
	d, ok := u.Details.(*ClientDetails)
	return d, ok
}

func (u *User) Agency() (*AgencyDetails, bool) {
	if u == nil {
		return nil, false
	}
	d, ok := u.Details.(*AgencyDetails)
	return d, ok
}

func (u *User) Admin() (*AdminDetails, bool) {
	if u == nil {
		return nil, false
	}
	d, ok := u.Details.(*AdminDetails)
	return d, ok
}

// DomainVerificationPending reports whether the role carries a secondary
// approval that has not been granted yet. Only agencies have one.
func (u *User) DomainVerificationPending() bool {
	a, ok := u.Agency()
	return ok && !a.Verified
}

// DisplayName is "Prenom Nom".
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.Prenom + " " + u.Nom)
}
