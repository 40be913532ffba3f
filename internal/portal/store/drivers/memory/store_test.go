package memory_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/immo/internal/portal/store"
	"github.com/aussiebroadwan/immo/internal/portal/store/drivers/memory"
	"github.com/aussiebroadwan/immo/internal/portal/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, memory.NewStore())
}

func TestTxReadsItsOwnWrites(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Set(ctx, "gone", "x"))

	err := s.WithTx(ctx, func(tx store.Writer) error {
		require.NoError(t, tx.Set(ctx, "k", "v"))
		require.NoError(t, tx.Delete(ctx, "gone"))

		v, err := tx.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, "v", v)

		_, err = tx.Get(ctx, "gone")
		require.ErrorIs(t, err, store.ErrNotFound)

		// Not visible outside until commit.
		_, err = s.Get(ctx, "k")
		require.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
}
