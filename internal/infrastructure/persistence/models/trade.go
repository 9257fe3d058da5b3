package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
	"github.com/vaultledger/backend/internal/domain/trade"
)

// OrderModel is the persistence model for the Order aggregate.
// Order numbers are unique per order type.
type OrderModel struct {
	AggregateModel
	Type            string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_order_type_number,priority:1"`
	Number          string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_order_type_number,priority:2"`
	PartyID         uuid.UUID `gorm:"type:uuid;not null;index"`
	TotalAmount     int64     `gorm:"not null"`
	AmountPaid      int64     `gorm:"not null;default:0"`
	AmountRemaining int64     `gorm:"not null"`
	PaymentState    string    `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentCount    int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *trade.Order {
	return &trade.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Type:              trade.OrderType(m.Type),
		Number:            m.Number,
		PartyID:           m.PartyID,
		TotalAmount:       valueobject.NewMoneyFromMinor(m.TotalAmount),
		AmountPaid:        valueobject.NewMoneyFromMinor(m.AmountPaid),
		AmountRemaining:   valueobject.NewMoneyFromMinor(m.AmountRemaining),
		PaymentState:      trade.PaymentState(m.PaymentState),
		PaymentCount:      m.PaymentCount,
	}
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.Type = string(o.Type)
	m.Number = o.Number
	m.PartyID = o.PartyID
	m.TotalAmount = o.TotalAmount.Minor()
	m.AmountPaid = o.AmountPaid.Minor()
	m.AmountRemaining = o.AmountRemaining.Minor()
	m.PaymentState = string(o.PaymentState)
	m.PaymentCount = o.PaymentCount
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// PaymentApplicationModel is the persistence model for an applied payment
type PaymentApplicationModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID `gorm:"type:uuid;not null;index"`
	PartyID         uuid.UUID `gorm:"type:uuid;not null;index"`
	VaultID         string    `gorm:"type:varchar(32);not null"`
	MovementID      uuid.UUID `gorm:"type:uuid;not null"`
	Direction       string    `gorm:"type:varchar(10);not null"`
	RequestedAmount int64     `gorm:"not null"`
	EffectiveAmount int64     `gorm:"not null"`
	AppliedAt       time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentApplicationModel) TableName() string {
	return "payment_applications"
}

// ToDomain converts the persistence model to a domain PaymentApplication
func (m *PaymentApplicationModel) ToDomain() trade.PaymentApplication {
	return trade.PaymentApplication{
		ID:              m.ID,
		OrderID:         m.OrderID,
		PartyID:         m.PartyID,
		VaultID:         ledger.VaultID(m.VaultID),
		MovementID:      m.MovementID,
		Direction:       trade.PaymentDirection(m.Direction),
		RequestedAmount: valueobject.NewMoneyFromMinor(m.RequestedAmount),
		EffectiveAmount: valueobject.NewMoneyFromMinor(m.EffectiveAmount),
		AppliedAt:       m.AppliedAt.UTC(),
	}
}

// PaymentApplicationModelFromDomain creates a persistence model from a domain PaymentApplication
func PaymentApplicationModelFromDomain(a *trade.PaymentApplication) *PaymentApplicationModel {
	return &PaymentApplicationModel{
		ID:              a.ID,
		OrderID:         a.OrderID,
		PartyID:         a.PartyID,
		VaultID:         string(a.VaultID),
		MovementID:      a.MovementID,
		Direction:       string(a.Direction),
		RequestedAmount: a.RequestedAmount.Minor(),
		EffectiveAmount: a.EffectiveAmount.Minor(),
		AppliedAt:       a.AppliedAt.UTC(),
	}
}
