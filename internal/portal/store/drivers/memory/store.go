// Package memory is an in-process store. It backs the session-scoped store
// and tests.
package memory

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/immo/internal/portal/store"
)

type Store struct {
	mu     sync.Mutex
	values map[string]string
}

func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// WithTx stages writes and applies them under one lock once fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Writer) error) error {
	tx := &txStore{parent: s, sets: map[string]string{}, deletes: map[string]struct{}{}}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range tx.deletes {
		delete(s.values, k)
	}
	for k, v := range tx.sets {
		s.values[k] = v
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Len reports how many keys are held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

type txStore struct {
	parent  *Store
	sets    map[string]string
	deletes map[string]struct{}
}

func (t *txStore) Get(ctx context.Context, key string) (string, error) {
	if v, ok := t.sets[key]; ok {
		return v, nil
	}
	if _, ok := t.deletes[key]; ok {
		return "", store.ErrNotFound
	}
	return t.parent.Get(ctx, key)
}

func (t *txStore) Set(_ context.Context, key, value string) error {
	delete(t.deletes, key)
	t.sets[key] = value
	return nil
}

func (t *txStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(t.sets, k)
		t.deletes[k] = struct{}{}
	}
	return nil
}
