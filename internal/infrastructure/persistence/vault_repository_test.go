package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

func TestGormVaultRepository(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormVaultRepository(db)

	t.Run("FindAll returns the seven vaults ordered by id", func(t *testing.T) {
		vaults, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, vaults, 7)
		for i, v := range vaults {
			assert.Equal(t, ledger.AllVaultIDs()[i], v.ID)
			assert.True(t, v.Balance.IsZero())
			assert.Equal(t, 1, v.Version)
		}
	})

	t.Run("FindByID of an unknown id is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, ledger.VaultID("atlantis"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("Save persists the posting and bumps the version", func(t *testing.T) {
		vault, err := repo.FindByIDForUpdate(ctx, ledger.VaultAzteca)
		require.NoError(t, err)

		_, err = vault.Post(ledger.Posting{
			Kind:   ledger.KindCredit,
			Side:   ledger.SideCredit,
			Amount: valueobject.NewMoneyFromMinor(12_345),
		}, testNow)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, vault))
		assert.Equal(t, 2, vault.Version)

		stored, err := repo.FindByID(ctx, ledger.VaultAzteca)
		require.NoError(t, err)
		assert.Equal(t, int64(12_345), stored.Balance.Minor())
		assert.Equal(t, int64(12_345), stored.CumulativeCredits.Minor())
		assert.Equal(t, int64(1), stored.LastSequence)
		assert.Equal(t, vault.LastHash, stored.LastHash)
		assert.Equal(t, 2, stored.Version)
	})

	t.Run("Save with a stale version is a concurrency conflict", func(t *testing.T) {
		first, err := repo.FindByID(ctx, ledger.VaultLeftie)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, ledger.VaultLeftie)
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, first))
		err = repo.Save(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("Create of an existing vault already exists", func(t *testing.T) {
		vault, err := ledger.NewVault(ledger.VaultProfit, testNow)
		require.NoError(t, err)
		err = repo.Create(ctx, vault)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestGormVaultRepository_FindByIDForUpdate_Postgres(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "vaults" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "balance", "last_sequence", "version"}).
			AddRow("boveda_usa", "Bóveda USA", 5000, 3, 4))

	vault, err := NewGormVaultRepository(db.DB).FindByIDForUpdate(context.Background(), ledger.VaultBovedaUSA)
	require.NoError(t, err)
	assert.Equal(t, ledger.VaultBovedaUSA, vault.ID)
	assert.Equal(t, int64(5000), vault.Balance.Minor())
	assert.Equal(t, int64(3), vault.LastSequence)
	assert.Equal(t, 4, vault.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormVaultRepository_Save_Postgres(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectExec(`UPDATE "vaults" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	vault, err := ledger.NewVault(ledger.VaultUtilidades, testNow)
	require.NoError(t, err)

	err = NewGormVaultRepository(db.DB).Save(context.Background(), vault)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, 1, vault.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
