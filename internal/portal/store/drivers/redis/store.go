// Package redis is a durable store shared across processes, so several
// terminals observe the same session the way browser tabs share storage.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/immo/internal/portal/store"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithPrefix namespaces every key, e.g. "immo:".
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL expires every written key after ttl. Zero keeps keys forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

func NewStore(rdb redis.UniversalClient, opts ...Option) *Store {
	s := &Store{rdb: rdb}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open dials addr and verifies the connection.
func Open(ctx context.Context, addr string, opts ...Option) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewStore(rdb, opts...), nil
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrNotFound
	}
	return v, err
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, s.keys(keys)...).Err()
}

// WithTx queues fn's writes in a MULTI/EXEC block. Reads inside fn see
// the committed state, not the queued writes.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Writer) error) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return fn(&txStore{parent: s, pipe: pipe})
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) keys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = s.key(k)
	}
	return out
}

type txStore struct {
	parent *Store
	pipe   redis.Pipeliner
}

func (t *txStore) Get(ctx context.Context, key string) (string, error) {
	return t.parent.Get(ctx, key)
}

func (t *txStore) Set(ctx context.Context, key, value string) error {
	return t.pipe.Set(ctx, t.parent.key(key), value, t.parent.ttl).Err()
}

func (t *txStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return t.pipe.Del(ctx, t.parent.keys(keys)...).Err()
}
