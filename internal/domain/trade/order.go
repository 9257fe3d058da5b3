package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/partner"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

// OrderType distinguishes sales (clients owe us) from purchase orders (we owe distributors)
type OrderType string

const (
	OrderTypeSale          OrderType = "SALE"
	OrderTypePurchaseOrder OrderType = "PURCHASE_ORDER"
)

// ParseOrderType validates a raw order type
func ParseOrderType(raw string) (OrderType, error) {
	t := OrderType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", shared.ErrInvalidInput.WithDetail("unknown order type %q", raw)
	}
	return t, nil
}

// IsValid checks if the type is SALE or PURCHASE_ORDER
func (t OrderType) IsValid() bool {
	return t == OrderTypeSale || t == OrderTypePurchaseOrder
}

// String returns the string representation of OrderType
func (t OrderType) String() string {
	return string(t)
}

// PaymentDirection returns the only direction a payment against this order type may take
func (t OrderType) PaymentDirection() PaymentDirection {
	if t == OrderTypePurchaseOrder {
		return PaymentOutgoing
	}
	return PaymentIncoming
}

// PartyKind returns the kind of party an order of this type is placed with
func (t OrderType) PartyKind() partner.PartyKind {
	if t == OrderTypePurchaseOrder {
		return partner.PartyKindDistributor
	}
	return partner.PartyKindClient
}

// PaymentDirection is the cash direction of a payment
type PaymentDirection string

const (
	PaymentIncoming PaymentDirection = "incoming"
	PaymentOutgoing PaymentDirection = "outgoing"
)

// ParsePaymentDirection validates a raw payment direction
func ParsePaymentDirection(raw string) (PaymentDirection, error) {
	d := PaymentDirection(strings.ToLower(strings.TrimSpace(raw)))
	if d != PaymentIncoming && d != PaymentOutgoing {
		return "", shared.ErrInvalidInput.WithDetail("unknown payment direction %q", raw)
	}
	return d, nil
}

// String returns the string representation of PaymentDirection
func (d PaymentDirection) String() string {
	return string(d)
}

// PaymentState is derived from the order's amounts
type PaymentState string

const (
	PaymentStatePending  PaymentState = "pending"
	PaymentStatePartial  PaymentState = "partial"
	PaymentStateComplete PaymentState = "complete"
)

// String returns the string representation of PaymentState
func (s PaymentState) String() string {
	return string(s)
}

// DerivePaymentState computes the state implied by an order's total and paid amount
func DerivePaymentState(total, paid valueobject.Money) PaymentState {
	switch {
	case !total.Subtract(paid).IsPositive():
		return PaymentStateComplete
	case paid.IsPositive():
		return PaymentStatePartial
	default:
		return PaymentStatePending
	}
}

// Order is a sale or purchase order as far as the ledger is concerned: its
// total and the payments applied against it.
// AmountRemaining == TotalAmount - AmountPaid and PaymentState is always derived.
type Order struct {
	shared.BaseAggregateRoot
	Type            OrderType
	Number          string
	PartyID         uuid.UUID
	TotalAmount     valueobject.Money
	AmountPaid      valueobject.Money
	AmountRemaining valueobject.Money
	PaymentState    PaymentState
	PaymentCount    int
}

// NewOrder registers a pending order. A nil id generates one.
func NewOrder(id uuid.UUID, orderType OrderType, number string, partyID uuid.UUID, total valueobject.Money, at time.Time) (*Order, error) {
	if !orderType.IsValid() {
		return nil, shared.ErrInvalidInput.WithDetail("unknown order type %q", orderType)
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.ErrInvalidInput.WithDetail("order number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.ErrInvalidInput.WithDetail("order number cannot exceed 50 characters")
	}
	if partyID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithDetail("party id cannot be empty")
	}
	if !total.IsPositive() {
		return nil, shared.ErrInvalidInput.WithDetail("order total must be positive, got %s", total)
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	o := &Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.NewBaseEntityWithID(id, at.UTC()),
			Version:    1,
		},
		Type:            orderType,
		Number:          number,
		PartyID:         partyID,
		TotalAmount:     total,
		AmountRemaining: total,
		PaymentState:    PaymentStatePending,
	}
	o.AddDomainEvent(NewOrderRegisteredEvent(o))
	return o, nil
}

// LockKey returns the mutual-exclusion key for an order
func LockKey(id uuid.UUID) string {
	return "order:" + id.String()
}

// CheckDirection rejects a payment direction that does not match the order type
func (o *Order) CheckDirection(direction PaymentDirection) error {
	if direction != o.Type.PaymentDirection() {
		return shared.ErrInvalidInput.WithDetail(
			"%s orders take %s payments, got %s", o.Type, o.Type.PaymentDirection(), direction)
	}
	return nil
}

// ApplyPayment applies up to the remaining debt and returns the effective amount.
// The caller reports requested - effective back as the capped excess.
func (o *Order) ApplyPayment(amount valueobject.Money, at time.Time) (valueobject.Money, error) {
	if !amount.IsPositive() {
		return 0, shared.ErrInvalidInput.WithDetail("payment amount must be positive, got %s", amount)
	}
	if o.IsSettled() {
		return 0, shared.ErrAlreadySettled.WithDetail("order %s is already settled", o.Number)
	}

	effective := valueobject.Min(amount, o.AmountRemaining)
	o.AmountPaid = o.AmountPaid.Add(effective)
	o.AmountRemaining = o.TotalAmount.Subtract(o.AmountPaid)
	o.PaymentState = DerivePaymentState(o.TotalAmount, o.AmountPaid)
	o.PaymentCount++
	o.UpdatedAt = at.UTC()

	return effective, nil
}

// ApplyReturn lowers the order total by a returned amount and re-derives the
// remaining amount and state. Only unpaid debt can be cancelled: the
// reduction is capped at the remaining amount and the rest, already paid, is
// the refund due to the party.
func (o *Order) ApplyReturn(amount valueobject.Money, at time.Time) (reduction, refund valueobject.Money, err error) {
	if !amount.IsPositive() {
		return 0, 0, shared.ErrInvalidInput.WithDetail("returned amount must be positive, got %s", amount)
	}
	if o.Type != OrderTypeSale {
		return 0, 0, shared.ErrInvalidInput.WithDetail("only sales take returns, order %s is a %s", o.Number, o.Type)
	}

	reduction = valueobject.Min(amount, o.AmountRemaining)
	o.TotalAmount = o.TotalAmount.Subtract(reduction)
	o.AmountRemaining = o.TotalAmount.Subtract(o.AmountPaid)
	o.PaymentState = DerivePaymentState(o.TotalAmount, o.AmountPaid)
	o.UpdatedAt = at.UTC()
	return reduction, amount.Subtract(reduction), nil
}

// IsSettled returns true once the order reached its terminal state
func (o *Order) IsSettled() bool {
	return o.PaymentState == PaymentStateComplete
}

// IsConsistent checks the remaining amount and the state against the paid amount
func (o *Order) IsConsistent() bool {
	return o.AmountRemaining == o.TotalAmount.Subtract(o.AmountPaid) &&
		o.PaymentState == DerivePaymentState(o.TotalAmount, o.AmountPaid) &&
		!o.AmountPaid.GreaterThan(o.TotalAmount)
}
