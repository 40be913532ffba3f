package portalsdk

import "github.com/aussiebroadwan/immo/internal/portal/domain"

// ============================================================================
// Authentication
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"motDePasse" validate:"required"`
}

type LoginResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken,omitempty"`
	TokenType    string       `json:"tokenType,omitempty"`
	User         *domain.User `json:"user"`
	ExpiresIn    int64        `json:"expiresIn,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// RegisterRequest creates an account. Agency fields are required when
// UserType is AGENCE_IMMOBILIERE and ignored otherwise.
type RegisterRequest struct {
	Nom       string      `json:"nom" validate:"required,max=100"`
	Prenom    string      `json:"prenom" validate:"required,max=100"`
	Email     string      `json:"email" validate:"required,email,max=180"`
	Password  string      `json:"motDePasse" validate:"required,min=6"`
	Telephone string      `json:"telephone" validate:"required,numeric,len=8"`
	Adresse   string      `json:"adresse" validate:"required,max=255"`
	UserType  domain.Role `json:"userType" validate:"required,oneof=UTILISATEUR CLIENT_ABONNE AGENCE_IMMOBILIERE ADMINISTRATEUR"`

	NomAgence       string `json:"nomAgence,omitempty" validate:"required_if=UserType AGENCE_IMMOBILIERE"`
	NumeroLicence   string `json:"numeroLicence,omitempty" validate:"required_if=UserType AGENCE_IMMOBILIERE"`
	SiteWeb         string `json:"siteWeb,omitempty" validate:"omitempty,url"`
	NombreEmployes  int    `json:"nombreEmployes,omitempty" validate:"gte=0"`
	ZonesCouverture string `json:"zonesCouverture,omitempty"`

	SubscriptionType string `json:"subscriptionType,omitempty" validate:"omitempty,oneof=BASIC PREMIUM VIP"`
	AdminLevel       string `json:"adminLevel,omitempty" validate:"omitempty,oneof=SUPER_ADMIN MODERATOR SUPPORT"`
}

type RegisterResponse struct {
	Message                   string       `json:"message"`
	User                      *domain.User `json:"user,omitempty"`
	EmailVerificationRequired bool         `json:"emailVerificationRequired"`
}

// MessageResponse is the {success, message} acknowledgement shared by the
// verification and password endpoints.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword,omitempty" validate:"omitempty,eqfield=NewPassword"`
}

// ============================================================================
// Profile
// ============================================================================

// UpdateProfileRequest is a partial update; nil fields are left unchanged.
type UpdateProfileRequest struct {
	Nom       *string `json:"nom,omitempty" validate:"omitempty,max=100"`
	Prenom    *string `json:"prenom,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=180"`
	Telephone *string `json:"telephone,omitempty" validate:"omitempty,max=30"`
	Adresse   *string `json:"adresse,omitempty" validate:"omitempty,max=255"`

	NomAgence       *string `json:"nomAgence,omitempty" validate:"omitempty,max=150"`
	NumeroLicence   *string `json:"numeroLicence,omitempty"`
	SiteWeb         *string `json:"siteWeb,omitempty" validate:"omitempty,url"`
	NombreEmployes  *int    `json:"nombreEmployes,omitempty" validate:"omitempty,gte=0"`
	ZonesCouverture *string `json:"zonesCouverture,omitempty"`

	SubscriptionType *string `json:"subscriptionType,omitempty" validate:"omitempty,oneof=BASIC PREMIUM VIP"`
	AdminLevel       *string `json:"adminLevel,omitempty" validate:"omitempty,oneof=SUPER_ADMIN MODERATOR SUPPORT"`
}

// Empty reports whether the update changes nothing.
func (r UpdateProfileRequest) Empty() bool {
	return r == UpdateProfileRequest{}
}

// ============================================================================
// Analytics
// ============================================================================

type VisitRequest struct {
	Page      string `json:"page" validate:"required"`
	UserAgent string `json:"userAgent"`
	SessionID string `json:"sessionId" validate:"required"`
}
