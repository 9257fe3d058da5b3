package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/shared"
)

// Sale records a distributed sale line and how much of it has been returned.
// Returned is always Split.Portion(ReturnedQuantity, Quantity), so a full
// return reverses every share exactly.
type Sale struct {
	shared.BaseAggregateRoot
	Quantity         int64
	ReturnedQuantity int64
	Split            Split
	Returned         Split
	CorrelationID    uuid.UUID
}

// NewSale records the split posted for a sale
func NewSale(id uuid.UUID, quantity int64, split Split, correlationID uuid.UUID, at time.Time) *Sale {
	return &Sale{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.NewBaseEntityWithID(id, at.UTC()),
			Version:    1,
		},
		Quantity:      quantity,
		Split:         split,
		CorrelationID: correlationID,
	}
}

// RemainingQuantity returns the units still counted as sold
func (s *Sale) RemainingQuantity() int64 {
	return s.Quantity - s.ReturnedQuantity
}

// IsFullyReturned returns true once every unit came back
func (s *Sale) IsFullyReturned() bool {
	return s.RemainingQuantity() == 0
}

// Return takes back quantity units and returns the shares to reverse
func (s *Sale) Return(quantity int64, at time.Time) (Split, error) {
	if quantity <= 0 {
		return Split{}, shared.ErrInvalidInput.WithDetail("return quantity must be positive, got %d", quantity)
	}
	if s.IsFullyReturned() {
		return Split{}, shared.ErrInvalidState.WithDetail("sale %s has already been fully returned", s.ID)
	}
	if quantity > s.RemainingQuantity() {
		return Split{}, shared.ErrInvalidInput.WithDetail(
			"return quantity %d exceeds the %d units still sold", quantity, s.RemainingQuantity())
	}

	returned := s.Split.Portion(s.ReturnedQuantity+quantity, s.Quantity)
	reversal := returned.Subtract(s.Returned)
	s.ReturnedQuantity += quantity
	s.Returned = returned
	s.UpdatedAt = at.UTC()
	return reversal, nil
}
