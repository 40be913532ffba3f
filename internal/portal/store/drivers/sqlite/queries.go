package sqlite

import (
	"context"
	"database/sql"
	"strings"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

const getCredential = `SELECT value FROM credentials WHERE key = ?`

func (q *queries) get(ctx context.Context, key string) (string, error) {
	var v string
	err := q.db.QueryRowContext(ctx, getCredential, key).Scan(&v)
	return v, err
}

const upsertCredential = `
INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (q *queries) set(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertCredential, key, value)
	return err
}

func (q *queries) delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")

	_, err := q.db.ExecContext(ctx, `DELETE FROM credentials WHERE key IN (`+placeholders+`)`, args...)
	return err
}
