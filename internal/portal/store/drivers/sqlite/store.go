// Package sqlite is the durable credential store. It survives restarts the
// way origin-scoped browser storage survives reloads.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/immo/internal/portal/store"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
	q  *queries
}

// NewStore opens dsn (a file path or ":memory:"). Call ApplyMigrations
// before first use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection: ":memory:" databases are per connection, and sqlite
	// serialises writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db: db,
		q:  &queries{db: db},
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.q.get(ctx, key)
	return v, mapNotFound(err)
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.q.set(ctx, key, value)
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.q.delete(ctx, keys)
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(&txStore{q: &queries{db: tx}}); err != nil {
		return err
	}

	return tx.Commit()
}

type txStore struct {
	q *queries
}

func (t *txStore) Get(ctx context.Context, key string) (string, error) {
	v, err := t.q.get(ctx, key)
	return v, mapNotFound(err)
}

func (t *txStore) Set(ctx context.Context, key, value string) error {
	return t.q.set(ctx, key, value)
}

func (t *txStore) Delete(ctx context.Context, keys ...string) error {
	return t.q.delete(ctx, keys)
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
