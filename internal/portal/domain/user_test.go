package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
	"github.com/stretchr/testify/require"
)

func TestUserDecodeDiscriminatesRole(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		role  domain.Role
		check func(t *testing.T, u *domain.User)
	}{
		{
			name: "standard user carries no details",
			body: `{"id":1,"nom":"Ben Ali","prenom":"Sami","email":"sami@example.com","userType":"UTILISATEUR","emailVerified":true,"nomAgence":"ignored"}`,
			role: domain.RoleUser,
			check: func(t *testing.T, u *domain.User) {
				require.Nil(t, u.Details)
				_, ok := u.Agency()
				require.False(t, ok)
			},
		},
		{
			name: "client",
			body: `{"id":2,"userType":"CLIENT_ABONNE","subscriptionType":"PREMIUM","searchLimit":50,"subscriptionEndDate":"2025-01-31T00:00:00"}`,
			role: domain.RoleClient,
			check: func(t *testing.T, u *domain.User) {
				c, ok := u.Client()
				require.True(t, ok)
				require.Equal(t, "PREMIUM", c.SubscriptionType)
				require.Equal(t, 50, c.SearchLimit)
				require.Equal(t, 2025, c.SubscriptionEnd.Year())
			},
		},
		{
			name: "unverified agency",
			body: `{"id":3,"userType":"AGENCE_IMMOBILIERE","nomAgence":"Immo Sud","numeroLicence":"LIC-9","verified":false,"emailVerified":true}`,
			role: domain.RoleAgency,
			check: func(t *testing.T, u *domain.User) {
				a, ok := u.Agency()
				require.True(t, ok)
				require.Equal(t, "Immo Sud", a.NomAgence)
				require.True(t, u.DomainVerificationPending())
			},
		},
		{
			name: "admin",
			body: `{"id":4,"userType":"ADMINISTRATEUR","adminLevel":"SUPER_ADMIN","canManageUsers":true}`,
			role: domain.RoleAdmin,
			check: func(t *testing.T, u *domain.User) {
				a, ok := u.Admin()
				require.True(t, ok)
				require.True(t, a.CanManageUsers)
				require.False(t, a.CanManageSystem)
				require.False(t, u.DomainVerificationPending())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u domain.User
			require.NoError(t, json.Unmarshal([]byte(tt.body), &u))
			require.Equal(t, tt.role, u.Role())
			tt.check(t, &u)
		})
	}
}

func TestUserDecodeRejectsUnknownRole(t *testing.T) {
	var u domain.User
	err := json.Unmarshal([]byte(`{"id":1,"userType":"SUPERHERO"}`), &u)
	require.ErrorIs(t, err, domain.ErrUnknownRole)
}

func TestUserEnabledFallsBackToStatus(t *testing.T) {
	var active, suspended, explicit domain.User
	require.NoError(t, json.Unmarshal([]byte(`{"userType":"UTILISATEUR","status":"ACTIVE"}`), &active))
	require.NoError(t, json.Unmarshal([]byte(`{"userType":"UTILISATEUR","status":"SUSPENDED"}`), &suspended))
	require.NoError(t, json.Unmarshal([]byte(`{"userType":"UTILISATEUR","status":"ACTIVE","enabled":false}`), &explicit))

	require.True(t, active.Enabled)
	require.False(t, suspended.Enabled)
	require.False(t, explicit.Enabled)
}

func TestUserEncodeOmitsForeignRoleFields(t *testing.T) {
	u := domain.User{
		ID:            7,
		Email:         "agence@example.com",
		EmailVerified: true,
		Enabled:       true,
		RegisteredAt:  domain.Timestamp{Time: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)},
		Details:       &domain.AgencyDetails{NomAgence: "Immo Nord", Verified: true},
	}

	b, err := json.Marshal(u)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(b, &flat))
	require.Equal(t, "AGENCE_IMMOBILIERE", flat["userType"])
	require.Equal(t, "Immo Nord", flat["nomAgence"])
	require.Equal(t, true, flat["verified"])
	require.Equal(t, "2024-05-01T09:30:00Z", flat["createdAt"])
	require.NotContains(t, flat, "adminLevel")
	require.NotContains(t, flat, "subscriptionType")

	var back domain.User
	require.NoError(t, json.Unmarshal(b, &back))
	require.Equal(t, u, back)
}

func TestTimestampFormats(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC)
	for _, raw := range []string{
		`"2024-03-01T10:15:30Z"`,
		`"2024-03-01T10:15:30"`,
		`"2024-03-01 10:15:30"`,
		`1709288130000`,
	} {
		var ts domain.Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		require.True(t, ts.Equal(want), raw)
	}

	var ts domain.Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	require.True(t, ts.IsZero())
	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestRoleHelpers(t *testing.T) {
	r, err := domain.ParseRole(" client_abonne ")
	require.NoError(t, err)
	require.Equal(t, domain.RoleClient, r)
	require.Equal(t, "Agence Immobilière", domain.RoleAgency.DisplayName())
	require.False(t, domain.Role("X").Valid())

	var nilUser *domain.User
	require.Equal(t, domain.RoleUser, nilUser.Role())
	require.Empty(t, nilUser.DisplayName())
	require.Equal(t, "Sami Ben Ali", (&domain.User{Prenom: "Sami", Nom: "Ben Ali"}).DisplayName())
}
