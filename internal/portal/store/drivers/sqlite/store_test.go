package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/immo/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/immo/internal/portal/store/storetest"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, dsn string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, newStore(t, ":memory:"))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newStore(t, ":memory:")
	require.NoError(t, s.ApplyMigrations())
}

func TestSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "immo.db")

	first, err := sqlite.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.ApplyMigrations())
	require.NoError(t, first.Set(ctx, "jwt_token", "tok"))
	require.NoError(t, first.Close())

	second := newStore(t, path)
	v, err := second.Get(ctx, "jwt_token")
	require.NoError(t, err)
	require.Equal(t, "tok", v)
}
