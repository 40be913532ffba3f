package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: not found")

// Keys of the durable store.
const (
	KeyToken        = "jwt_token"
	KeyUser         = "auth_user"
	KeyRefreshToken = "refresh_token"
)

// Keys of the session-scoped store.
const (
	KeySessionID = "session_id"
)

// Reader reads string values by key. Missing keys are ErrNotFound.
type Reader interface {
	Get(ctx context.Context, key string) (string, error)
}

// Writer is the key-value surface available both on a Store and inside
// one of its transactions.
type Writer interface {
	Reader
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// Store is a string key-value store. Drivers (memory, sqlite, redis)
// implement it.
type Store interface {
	Writer

	// WithTx runs fn atomically: either every write made through tx is
	// applied or none is. Use tx, not the Store, inside fn. Nested
	// transactions are not supported.
	WithTx(ctx context.Context, fn func(tx Writer) error) error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
