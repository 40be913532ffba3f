package domain

import (
	"encoding/json"
	"fmt"
)

// userWire is the flat shape the backend sends and the credential store
// caches. Extension fields of other roles are ignored on decode and omitted
// on encode.
type userWire struct {
	ID              int64     `json:"id"`
	Nom             string    `json:"nom"`
	Prenom          string    `json:"prenom"`
	Email           string    `json:"email"`
	Telephone       string    `json:"telephone,omitempty"`
	Adresse         string    `json:"adresse,omitempty"`
	UserType        string    `json:"userType"`
	Status          string    `json:"status,omitempty"`
	Enabled         *bool     `json:"enabled,omitempty"`
	EmailVerified   bool      `json:"emailVerified"`
	CreatedAt       Timestamp `json:"createdAt,omitzero"`
	DateInscription Timestamp `json:"dateInscription,omitzero"`
	LastLogin       Timestamp `json:"lastLogin,omitzero"`

	SubscriptionType      string    `json:"subscriptionType,omitempty"`
	SearchLimit           *int      `json:"searchLimit,omitempty"`
	SubscriptionStartDate Timestamp `json:"subscriptionStartDate,omitzero"`
	SubscriptionEndDate   Timestamp `json:"subscriptionEndDate,omitzero"`

	NomAgence         string    `json:"nomAgence,omitempty"`
	NumeroLicence     string    `json:"numeroLicence,omitempty"`
	SiteWeb           string    `json:"siteWeb,omitempty"`
	NombreEmployes    *int      `json:"nombreEmployes,omitempty"`
	ZonesCouverture   string    `json:"zonesCouverture,omitempty"`
	Verified          *bool     `json:"verified,omitempty"`
	VerificationDate  Timestamp `json:"verificationDate,omitzero"`
	VerificationNotes string    `json:"verificationNotes,omitempty"`

	AdminLevel        string `json:"adminLevel,omitempty"`
	CanManageUsers    *bool  `json:"canManageUsers,omitempty"`
	CanVerifyAgencies *bool  `json:"canVerifyAgencies,omitempty"`
	CanViewStatistics *bool  `json:"canViewStatistics,omitempty"`
	CanManageSystem   *bool  `json:"canManageSystem,omitempty"`
}

func (u *User) UnmarshalJSON(b []byte) error {
	var w userWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	role, err := ParseRole(w.UserType)
	if err != nil {
		return fmt.Errorf("user %d: %w", w.ID, err)
	}

	registered := w.CreatedAt
	if registered.IsZero() {
		registered = w.DateInscription
	}

	*u = User{
		ID:            w.ID,
		Nom:           w.Nom,
		Prenom:        w.Prenom,
		Email:         w.Email,
		Telephone:     w.Telephone,
		Adresse:       w.Adresse,
		Status:        w.Status,
		Enabled:       enabledFrom(w.Enabled, w.Status),
		EmailVerified: w.EmailVerified,
		RegisteredAt:  registered,
		LastLogin:     w.LastLogin,
	}

	switch role {
	case RoleClient:
		u.Details = &ClientDetails{
			SubscriptionType:  w.SubscriptionType,
			SearchLimit:       deref(w.SearchLimit),
			SubscriptionStart: w.SubscriptionStartDate,
			SubscriptionEnd:   w.SubscriptionEndDate,
		}
	case RoleAgency:
		u.Details = &AgencyDetails{
			NomAgence:         w.NomAgence,
			NumeroLicence:     w.NumeroLicence,
			SiteWeb:           w.SiteWeb,
			NombreEmployes:    deref(w.NombreEmployes),
			ZonesCouverture:   w.ZonesCouverture,
			Verified:          deref(w.Verified),
			VerificationDate:  w.VerificationDate,
			VerificationNotes: w.VerificationNotes,
		}
	case RoleAdmin:
		u.Details = &AdminDetails{
			AdminLevel:        w.AdminLevel,
			CanManageUsers:    deref(w.CanManageUsers),
			CanVerifyAgencies: deref(w.CanVerifyAgencies),
			CanViewStatistics: deref(w.CanViewStatistics),
			CanManageSystem:   deref(w.CanManageSystem),
		}
	}
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	w := userWire{
		ID:            u.ID,
		Nom:           u.Nom,
		Prenom:        u.Prenom,
		Email:         u.Email,
		Telephone:     u.Telephone,
		Adresse:       u.Adresse,
		UserType:      string(u.Role()),
		Status:        u.Status,
		Enabled:       &u.Enabled,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.RegisteredAt,
		LastLogin:     u.LastLogin,
	}

	switch d := u.Details.(type) {
	case *ClientDetails:
		w.SubscriptionType = d.SubscriptionType
		w.SearchLimit = &d.SearchLimit
		w.SubscriptionStartDate = d.SubscriptionStart
		w.SubscriptionEndDate = d.SubscriptionEnd
	case *AgencyDetails:
		w.NomAgence = d.NomAgence
		w.NumeroLicence = d.NumeroLicence
		w.SiteWeb = d.SiteWeb
		w.NombreEmployes = &d.NombreEmployes
		w.ZonesCouverture = d.ZonesCouverture
		w.Verified = &d.Verified
		w.VerificationDate = d.VerificationDate
		w.VerificationNotes = d.VerificationNotes
	case *AdminDetails:
		w.AdminLevel = d.AdminLevel
		w.CanManageUsers = &d.CanManageUsers
		w.CanVerifyAgencies = &d.CanVerifyAgencies
		w.CanViewStatistics = &d.CanViewStatistics
		w.CanManageSystem = &d.CanManageSystem
	}

	return json.Marshal(w)
}

// enabledFrom prefers the explicit flag. Older payloads only carry status.
func enabledFrom(flag *bool, status string) bool {
	if flag != nil {
		return *flag
	}
	switch status {
	case "SUSPENDED", "DELETED":
		return false
	default:
		return true
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
