package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
	"github.com/google/uuid"
)

// Credentials is the credential store: the bearer token, the cached user
// snapshot and the refresh token in a durable store, plus the analytics
// session id in a session-scoped one.
//
// Token and user are written and cleared in one transaction so neither is
// ever observed without the other.
type Credentials struct {
	durable Store
	session Store
}

func NewCredentials(durable, session Store) *Credentials {
	return &Credentials{durable: durable, session: session}
}

// Token returns the stored bearer token, or "" when none is held. It
// satisfies httpx.TokenSource.
func (c *Credentials) Token(ctx context.Context) (string, error) {
	return optional(c.durable.Get(ctx, KeyToken))
}

func (c *Credentials) RefreshToken(ctx context.Context) (string, error) {
	return optional(c.durable.Get(ctx, KeyRefreshToken))
}

// User returns the cached snapshot, or nil when none is held.
func (c *Credentials) User(ctx context.Context) (*domain.User, error) {
	raw, err := optional(c.durable.Get(ctx, KeyUser))
	if err != nil || raw == "" {
		return nil, err
	}

	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("credentials: cached user: %w", err)
	}
	return &u, nil
}

// SaveSession stores token, user and refresh token together. An empty
// refreshToken removes any previous one.
func (c *Credentials) SaveSession(ctx context.Context, token string, user *domain.User, refreshToken string) error {
	if token == "" || user == nil {
		return errors.New("credentials: token and user are required")
	}

	snapshot, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("credentials: encode user: %w", err)
	}

	return c.durable.WithTx(ctx, func(tx Writer) error {
		if err := tx.Set(ctx, KeyToken, token); err != nil {
			return err
		}
		if err := tx.Set(ctx, KeyUser, string(snapshot)); err != nil {
			return err
		}
		if refreshToken == "" {
			return tx.Delete(ctx, KeyRefreshToken)
		}
		return tx.Set(ctx, KeyRefreshToken, refreshToken)
	})
}

// SaveUser replaces the cached snapshot, leaving the token untouched.
func (c *Credentials) SaveUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("credentials: user is required")
	}
	snapshot, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("credentials: encode user: %w", err)
	}
	return c.durable.Set(ctx, KeyUser, string(snapshot))
}

// Clear removes every credential and the analytics session id. Clearing an
// empty store is a no-op.
func (c *Credentials) Clear(ctx context.Context) error {
	err := c.durable.WithTx(ctx, func(tx Writer) error {
		return tx.Delete(ctx, KeyToken, KeyUser, KeyRefreshToken)
	})
	if err != nil {
		return fmt.Errorf("credentials: clear: %w", err)
	}
	if err := c.session.Delete(ctx, KeySessionID); err != nil {
		return fmt.Errorf("credentials: clear session id: %w", err)
	}
	return nil
}

// SessionID returns the analytics session id, minting one on first use.
func (c *Credentials) SessionID(ctx context.Context) (string, error) {
	id, err := optional(c.session.Get(ctx, KeySessionID))
	if err != nil || id != "" {
		return id, err
	}

	id = uuid.NewString()
	if err := c.session.Set(ctx, KeySessionID, id); err != nil {
		return "", err
	}
	return id, nil
}

func optional(v string, err error) (string, error) {
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
