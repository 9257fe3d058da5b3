package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/partner"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPartyRepository implements partner.PartyRepository using GORM
type GormPartyRepository struct {
	db *gorm.DB
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindByID finds a party by ID
func (r *GormPartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Party, error) {
	var model models.PartyModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err, "party "+id.String())
	}
	return model.ToDomain(), nil
}

// FindAll returns every party ordered by id
func (r *GormPartyRepository) FindAll(ctx context.Context) ([]partner.Party, error) {
	var partyModels []models.PartyModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&partyModels).Error; err != nil {
		return nil, err
	}
	parties := make([]partner.Party, len(partyModels))
	for i := range partyModels {
		parties[i] = *partyModels[i].ToDomain()
	}
	return parties, nil
}

// Create inserts a new party
func (r *GormPartyRepository) Create(ctx context.Context, party *partner.Party) error {
	model := models.PartyModelFromDomain(party)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "party "+party.ID.String())
}

// Save updates a party guarded by its version and increments it
func (r *GormPartyRepository) Save(ctx context.Context, party *partner.Party) error {
	result := r.db.WithContext(ctx).
		Model(&models.PartyModel{}).
		Where("id = ? AND version = ?", party.ID, party.Version).
		Updates(map[string]interface{}{
			"name":                party.Name,
			"outstanding_balance": party.OutstandingBalance.Minor(),
			"total_paid":          party.TotalPaid.Minor(),
			"payment_count":       party.PaymentCount,
			"version":             party.Version + 1,
			"updated_at":          party.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetail("party %s was modified by another transaction", party.ID)
	}
	party.IncrementVersion()
	return nil
}

// Ensure GormPartyRepository implements PartyRepository
var _ partner.PartyRepository = (*GormPartyRepository)(nil)
