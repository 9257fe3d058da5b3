package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

// PaymentApplication records one payment applied against an order.
// It is append-only; the integrity validator sums these to recompute debt.
type PaymentApplication struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	PartyID         uuid.UUID
	VaultID         ledger.VaultID
	MovementID      uuid.UUID
	Direction       PaymentDirection
	RequestedAmount valueobject.Money
	EffectiveAmount valueobject.Money
	AppliedAt       time.Time
}

// NewPaymentApplication creates the record of an applied payment
func NewPaymentApplication(order *Order, vaultID ledger.VaultID, movementID uuid.UUID, direction PaymentDirection, requested, effective valueobject.Money, at time.Time) *PaymentApplication {
	return &PaymentApplication{
		ID:              uuid.New(),
		OrderID:         order.ID,
		PartyID:         order.PartyID,
		VaultID:         vaultID,
		MovementID:      movementID,
		Direction:       direction,
		RequestedAmount: requested,
		EffectiveAmount: effective,
		AppliedAt:       at.UTC().Truncate(time.Microsecond),
	}
}

// CappedAmount is the part of the request that exceeded the remaining debt
func (a *PaymentApplication) CappedAmount() valueobject.Money {
	return a.RequestedAmount.Subtract(a.EffectiveAmount)
}
