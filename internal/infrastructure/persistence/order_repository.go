package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/trade"
	"github.com/vaultledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err, "order "+id.String())
	}
	return model.ToDomain(), nil
}

// FindByParty finds the orders placed with a party, oldest first
func (r *GormOrderRepository) FindByParty(ctx context.Context, partyID uuid.UUID) ([]trade.Order, error) {
	return r.find(r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("created_at ASC").
		Order("id ASC"))
}

// FindAll returns every order ordered by creation time
func (r *GormOrderRepository) FindAll(ctx context.Context) ([]trade.Order, error) {
	return r.find(r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC"))
}

// ExistsByNumber checks if an order number is taken for the given type
func (r *GormOrderRepository) ExistsByNumber(ctx context.Context, orderType trade.OrderType, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("type = ? AND number = ?", string(orderType), number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "order "+order.Number)
}

// Save updates an order guarded by its version and increments it
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"total_amount":     order.TotalAmount.Minor(),
			"amount_paid":      order.AmountPaid.Minor(),
			"amount_remaining": order.AmountRemaining.Minor(),
			"payment_state":    string(order.PaymentState),
			"payment_count":    order.PaymentCount,
			"version":          order.Version + 1,
			"updated_at":       order.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetail("order %s was modified by another transaction", order.ID)
	}
	order.IncrementVersion()
	return nil
}

func (r *GormOrderRepository) find(query *gorm.DB) ([]trade.Order, error) {
	var orderModels []models.OrderModel
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]trade.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// GormPaymentApplicationRepository implements trade.PaymentApplicationRepository using GORM
type GormPaymentApplicationRepository struct {
	db *gorm.DB
}

// NewGormPaymentApplicationRepository creates a new GormPaymentApplicationRepository
func NewGormPaymentApplicationRepository(db *gorm.DB) *GormPaymentApplicationRepository {
	return &GormPaymentApplicationRepository{db: db}
}

// Create appends an application
func (r *GormPaymentApplicationRepository) Create(ctx context.Context, app *trade.PaymentApplication) error {
	model := models.PaymentApplicationModelFromDomain(app)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "payment application")
}

// FindByOrder returns the applications of an order in applied order
func (r *GormPaymentApplicationRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]trade.PaymentApplication, error) {
	return r.find(r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("applied_at ASC").
		Order("id ASC"))
}

// FindAll returns every application in applied order
func (r *GormPaymentApplicationRepository) FindAll(ctx context.Context) ([]trade.PaymentApplication, error) {
	return r.find(r.db.WithContext(ctx).
		Order("applied_at ASC").
		Order("id ASC"))
}

func (r *GormPaymentApplicationRepository) find(query *gorm.DB) ([]trade.PaymentApplication, error) {
	var appModels []models.PaymentApplicationModel
	if err := query.Find(&appModels).Error; err != nil {
		return nil, err
	}
	apps := make([]trade.PaymentApplication, len(appModels))
	for i := range appModels {
		apps[i] = appModels[i].ToDomain()
	}
	return apps, nil
}

// Ensure the repositories implement their interfaces
var (
	_ trade.OrderRepository              = (*GormOrderRepository)(nil)
	_ trade.PaymentApplicationRepository = (*GormPaymentApplicationRepository)(nil)
)
