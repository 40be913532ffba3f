// Package storetest holds the behaviour every store driver must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/aussiebroadwan/immo/internal/portal/store"
	"github.com/stretchr/testify/require"
)

// Run exercises s against the store.Store contract. s must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "absent")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set get overwrite delete", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", "v1"))
		require.NoError(t, s.Set(ctx, "k", "v2"))

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, "v2", v)

		require.NoError(t, s.Delete(ctx, "k", "never-set"))
		_, err = s.Get(ctx, "k")
		require.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, s.Delete(ctx))
	})

	t.Run("transaction commits every write", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "stale", "x"))

		err := s.WithTx(ctx, func(tx store.Writer) error {
			if err := tx.Set(ctx, "a", "1"); err != nil {
				return err
			}
			if err := tx.Set(ctx, "b", "2"); err != nil {
				return err
			}
			return tx.Delete(ctx, "stale")
		})
		require.NoError(t, err)

		for k, want := range map[string]string{"a": "1", "b": "2"} {
			got, err := s.Get(ctx, k)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
		_, err = s.Get(ctx, "stale")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("failed transaction applies nothing", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "keep", "old"))
		boom := errors.New("boom")

		err := s.WithTx(ctx, func(tx store.Writer) error {
			if err := tx.Set(ctx, "keep", "new"); err != nil {
				return err
			}
			if err := tx.Set(ctx, "added", "1"); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		v, err := s.Get(ctx, "keep")
		require.NoError(t, err)
		require.Equal(t, "old", v)
		_, err = s.Get(ctx, "added")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))
	})
}
