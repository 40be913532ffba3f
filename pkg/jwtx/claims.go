package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the bearer-token claims the marketplace backend issues. Only the
// registered claims plus the role claim are read on the client.
type Claims struct {
	jwt.RegisteredClaims

	// UserType is the role the token was issued for, e.g. "AGENCE_IMMOBILIERE".
	UserType string `json:"userType,omitempty"`
}

// IssuedAtTime returns the iat claim, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns the exp claim, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidateExpiry reports ErrExpired unless exp is strictly after now. A token
// without an exp claim never counts as valid.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil || !c.ExpiresAt.After(now) {
		return ErrExpired
	}
	return nil
}

// TimeToExpiry is how long until exp relative to now. Negative once expired.
func (c *Claims) TimeToExpiry(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
