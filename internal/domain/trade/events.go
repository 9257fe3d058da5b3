package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderRegistered     = "OrderRegistered"
	EventTypeOrderPaymentApplied = "OrderPaymentApplied"
)

// OrderRegisteredEvent is raised when an order's debt enters the ledger
type OrderRegisteredEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID         `json:"order_id"`
	OrderType   OrderType         `json:"order_type"`
	OrderNumber string            `json:"order_number"`
	PartyID     uuid.UUID         `json:"party_id"`
	Total       valueobject.Money `json:"total"`
}

// NewOrderRegisteredEvent creates a new OrderRegisteredEvent
func NewOrderRegisteredEvent(o *Order) *OrderRegisteredEvent {
	return &OrderRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRegistered, AggregateTypeOrder, o.ID, o.CreatedAt),
		OrderID:         o.ID,
		OrderType:       o.Type,
		OrderNumber:     o.Number,
		PartyID:         o.PartyID,
		Total:           o.TotalAmount,
	}
}

// OrderPaymentAppliedEvent is raised after a payment commits against an order
type OrderPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID         `json:"order_id"`
	PartyID          uuid.UUID         `json:"party_id"`
	VaultID          ledger.VaultID    `json:"vault_id"`
	MovementID       uuid.UUID         `json:"movement_id"`
	Direction        PaymentDirection  `json:"direction"`
	Requested        valueobject.Money `json:"requested"`
	Effective        valueobject.Money `json:"effective"`
	Capped           valueobject.Money `json:"capped"`
	NewState         PaymentState      `json:"new_state"`
	Remaining        valueobject.Money `json:"remaining"`
	PartyOutstanding valueobject.Money `json:"party_outstanding"`
}

// NewOrderPaymentAppliedEvent creates a new OrderPaymentAppliedEvent
func NewOrderPaymentAppliedEvent(o *Order, app *PaymentApplication, partyOutstanding valueobject.Money, at time.Time) *OrderPaymentAppliedEvent {
	return &OrderPaymentAppliedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOrderPaymentApplied, AggregateTypeOrder, o.ID, at),
		OrderID:          o.ID,
		PartyID:          o.PartyID,
		VaultID:          app.VaultID,
		MovementID:       app.MovementID,
		Direction:        app.Direction,
		Requested:        app.RequestedAmount,
		Effective:        app.EffectiveAmount,
		Capped:           app.CappedAmount(),
		NewState:         o.PaymentState,
		Remaining:        o.AmountRemaining,
		PartyOutstanding: partyOutstanding,
	}
}
