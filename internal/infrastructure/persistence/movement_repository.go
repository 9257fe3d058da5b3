package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMovementRepository implements ledger.MovementRepository using GORM.
// Movements are only ever inserted.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append inserts a movement. A second movement with the same vault sequence
// is rejected by the unique index.
func (r *GormMovementRepository) Append(ctx context.Context, movement *ledger.Movement) error {
	model := models.MovementModelFromDomain(movement)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "movement")
}

// Find returns movements matching the filter ordered by time, vault and sequence
func (r *GormMovementRepository) Find(ctx context.Context, filter ledger.MovementFilter) ([]ledger.Movement, error) {
	field := ValidateSortField(filter.SortBy, MovementSortFields, "occurred_at")
	dir := ValidateSortOrder(filter.SortOrder, "ASC")
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.MovementModel{}), filter).
		Order(field + " " + dir).
		Order("vault_id ASC").
		Order("sequence " + dir)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	return r.find(query)
}

// FindByVault returns every movement of a vault in sequence order
func (r *GormMovementRepository) FindByVault(ctx context.Context, id ledger.VaultID) ([]ledger.Movement, error) {
	return r.find(r.db.WithContext(ctx).
		Where("vault_id = ?", string(id)).
		Order("sequence ASC"))
}

// ExistsBySourceRef checks if any movement carries the source reference
func (r *GormMovementRepository) ExistsBySourceRef(ctx context.Context, sourceRef string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.MovementModel{}).
		Where("source_ref = ?", sourceRef).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormMovementRepository) find(query *gorm.DB) ([]ledger.Movement, error) {
	var movementModels []models.MovementModel
	if err := query.Find(&movementModels).Error; err != nil {
		return nil, err
	}
	movements := make([]ledger.Movement, len(movementModels))
	for i := range movementModels {
		movements[i] = movementModels[i].ToDomain()
	}
	return movements, nil
}

// applyFilter applies filter options to the query
func (r *GormMovementRepository) applyFilter(query *gorm.DB, filter ledger.MovementFilter) *gorm.DB {
	if filter.VaultID != "" {
		query = query.Where("vault_id = ?", string(filter.VaultID))
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("occurred_at <= ?", filter.To.UTC())
	}
	if filter.CorrelationID != uuid.Nil {
		query = query.Where("correlation_id = ?", filter.CorrelationID)
	}
	if filter.SourceRef != "" {
		query = query.Where("source_ref = ?", filter.SourceRef)
	}
	return query
}

// Ensure GormMovementRepository implements MovementRepository
var _ ledger.MovementRepository = (*GormMovementRepository)(nil)
