package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSaleRepository implements ledger.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a distributed sale by ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err, "sale "+id.String())
	}
	return model.ToDomain(), nil
}

// Create inserts a new sale
func (r *GormSaleRepository) Create(ctx context.Context, sale *ledger.Sale) error {
	model := models.SaleModelFromDomain(sale)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "sale "+sale.ID.String())
}

// Save updates the returned quantity and shares guarded by the version
func (r *GormSaleRepository) Save(ctx context.Context, sale *ledger.Sale) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ? AND version = ?", sale.ID, sale.Version).
		Updates(map[string]interface{}{
			"returned_quantity": sale.ReturnedQuantity,
			"returned_total":    sale.Returned.Total.Minor(),
			"returned_cost":     sale.Returned.Cost.Minor(),
			"returned_freight":  sale.Returned.Freight.Minor(),
			"returned_profit":   sale.Returned.Profit.Minor(),
			"version":           sale.Version + 1,
			"updated_at":        sale.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetail("sale %s was modified by another transaction", sale.ID)
	}
	sale.IncrementVersion()
	return nil
}

var _ ledger.SaleRepository = (*GormSaleRepository)(nil)
