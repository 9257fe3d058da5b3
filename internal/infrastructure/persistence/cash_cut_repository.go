package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCashCutRepository implements ledger.CashCutRepository using GORM
type GormCashCutRepository struct {
	db *gorm.DB
}

// NewGormCashCutRepository creates a new GormCashCutRepository
func NewGormCashCutRepository(db *gorm.DB) *GormCashCutRepository {
	return &GormCashCutRepository{db: db}
}

// Create stores a report
func (r *GormCashCutRepository) Create(ctx context.Context, cut *ledger.CashCut) error {
	model := models.CashCutModelFromDomain(cut)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "cash cut")
}

// FindLatest returns the most recently generated report
func (r *GormCashCutRepository) FindLatest(ctx context.Context) (*ledger.CashCut, error) {
	var model models.CashCutModel
	if err := r.db.WithContext(ctx).
		Order("generated_at DESC").
		First(&model).Error; err != nil {
		return nil, translateError(err, "cash cut")
	}
	return model.ToDomain(), nil
}

// GormAuditEntryRepository implements ledger.AuditEntryRepository using GORM
type GormAuditEntryRepository struct {
	db *gorm.DB
}

// NewGormAuditEntryRepository creates a new GormAuditEntryRepository
func NewGormAuditEntryRepository(db *gorm.DB) *GormAuditEntryRepository {
	return &GormAuditEntryRepository{db: db}
}

// Append stores the entry; the unique event id makes redelivery a no-op for callers
// that treat ErrAlreadyExists as success
func (r *GormAuditEntryRepository) Append(ctx context.Context, entry *ledger.AuditEntry) error {
	model := models.AuditEntryModelFromDomain(entry)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "audit entry for event "+entry.EventID.String())
}

// FindByAggregate returns the entries of an aggregate in the order they happened
func (r *GormAuditEntryRepository) FindByAggregate(ctx context.Context, aggregateID uuid.UUID) ([]ledger.AuditEntry, error) {
	var entryModels []models.AuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("occurred_at ASC").
		Order("recorded_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]ledger.AuditEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// Ensure the repositories implement their interfaces
var (
	_ ledger.CashCutRepository    = (*GormCashCutRepository)(nil)
	_ ledger.AuditEntryRepository = (*GormAuditEntryRepository)(nil)
)
