package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BootstrapVaults creates the seven vault rows if they do not exist yet.
// Existing rows are left untouched, so it is safe to run on every start-up.
// It returns the number of rows created.
func BootstrapVaults(ctx context.Context, db *gorm.DB, at time.Time) (int, error) {
	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ledger.AllVaultIDs() {
			vault, err := ledger.NewVault(id, at.UTC())
			if err != nil {
				return err
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(models.VaultModelFromDomain(vault))
			if result.Error != nil {
				return fmt.Errorf("bootstrap vault %s: %w", id, result.Error)
			}
			created += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
