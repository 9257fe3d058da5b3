package persistence

import (
	"context"

	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVaultRepository implements ledger.VaultRepository using GORM
type GormVaultRepository struct {
	db *gorm.DB
}

// NewGormVaultRepository creates a new GormVaultRepository
func NewGormVaultRepository(db *gorm.DB) *GormVaultRepository {
	return &GormVaultRepository{db: db}
}

// FindByID finds a vault by ID
func (r *GormVaultRepository) FindByID(ctx context.Context, id ledger.VaultID) (*ledger.Vault, error) {
	var model models.VaultModel
	if err := r.db.WithContext(ctx).Where("id = ?", string(id)).First(&model).Error; err != nil {
		return nil, translateError(err, "vault "+string(id))
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a vault and locks its row until the transaction ends
func (r *GormVaultRepository) FindByIDForUpdate(ctx context.Context, id ledger.VaultID) (*ledger.Vault, error) {
	var model models.VaultModel
	query := r.db.WithContext(ctx)
	if isPostgres(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.Where("id = ?", string(id)).First(&model).Error; err != nil {
		return nil, translateError(err, "vault "+string(id))
	}
	return model.ToDomain(), nil
}

// FindAll returns every vault ordered by id
func (r *GormVaultRepository) FindAll(ctx context.Context) ([]ledger.Vault, error) {
	var vaultModels []models.VaultModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&vaultModels).Error; err != nil {
		return nil, err
	}
	vaults := make([]ledger.Vault, len(vaultModels))
	for i := range vaultModels {
		vaults[i] = *vaultModels[i].ToDomain()
	}
	return vaults, nil
}

// Create inserts a new vault row
func (r *GormVaultRepository) Create(ctx context.Context, vault *ledger.Vault) error {
	model := models.VaultModelFromDomain(vault)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "vault "+string(vault.ID))
}

// Save writes the vault's balances if nobody changed it since it was read,
// then bumps the version
func (r *GormVaultRepository) Save(ctx context.Context, vault *ledger.Vault) error {
	result := r.db.WithContext(ctx).
		Model(&models.VaultModel{}).
		Where("id = ? AND version = ?", string(vault.ID), vault.Version).
		Updates(map[string]interface{}{
			"balance":            vault.Balance.Minor(),
			"cumulative_credits": vault.CumulativeCredits.Minor(),
			"cumulative_debits":  vault.CumulativeDebits.Minor(),
			"last_sequence":      vault.LastSequence,
			"last_hash":          vault.LastHash,
			"version":            vault.Version + 1,
			"updated_at":         vault.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetail("vault %s was modified by another transaction", vault.ID)
	}
	vault.Version++
	return nil
}

// Ensure GormVaultRepository implements VaultRepository
var _ ledger.VaultRepository = (*GormVaultRepository)(nil)
