package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

func TestGormSaleRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSaleRepository(newSQLiteDB(t))

	split := ledger.Split{
		Total:   valueobject.NewMoneyFromMinor(100_000),
		Cost:    valueobject.NewMoneyFromMinor(60_000),
		Freight: valueobject.NewMoneyFromMinor(10_000),
		Profit:  valueobject.NewMoneyFromMinor(30_000),
	}
	sale := ledger.NewSale(uuid.New(), 10, split, uuid.New(), testNow)
	require.NoError(t, repo.Create(ctx, sale))

	t.Run("FindByID round-trips the sale", func(t *testing.T) {
		found, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), found.Quantity)
		assert.Equal(t, split, found.Split)
		assert.True(t, found.Returned.Total.IsZero())
		assert.Equal(t, sale.CorrelationID, found.CorrelationID)
		assert.Equal(t, 1, found.Version)
	})

	t.Run("a sale is recorded once", func(t *testing.T) {
		dup := ledger.NewSale(sale.ID, 1, split, uuid.New(), testNow)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("Save stores returned units and bumps the version", func(t *testing.T) {
		found, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		_, err = found.Return(4, testNow.Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, found))
		assert.Equal(t, 2, found.Version)

		reloaded, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), reloaded.ReturnedQuantity)
		assert.Equal(t, int64(40_000), reloaded.Returned.Total.Minor())
		assert.Equal(t, int64(12_000), reloaded.Returned.Profit.Minor())
	})

	t.Run("Save with a stale version conflicts", func(t *testing.T) {
		_, err := sale.Return(1, testNow)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Save(ctx, sale), shared.ErrConcurrencyConflict)
	})

	t.Run("unknown sale is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
