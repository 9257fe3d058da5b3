package partner

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

// PartyKind distinguishes who owes whom
type PartyKind string

const (
	PartyKindClient      PartyKind = "client"
	PartyKindDistributor PartyKind = "distributor"
)

// IsValid checks if the kind is client or distributor
func (k PartyKind) IsValid() bool {
	return k == PartyKindClient || k == PartyKindDistributor
}

// String returns the string representation of PartyKind
func (k PartyKind) String() string {
	return string(k)
}

// Party is a client or distributor carrying order debt.
// OutstandingBalance is the sum of order totals minus the payments applied to them.
type Party struct {
	shared.BaseAggregateRoot
	Kind               PartyKind
	Name               string
	OutstandingBalance valueobject.Money
	TotalPaid          valueobject.Money
	PaymentCount       int
}

// NewParty creates a party with no debt. A nil id generates one.
func NewParty(id uuid.UUID, kind PartyKind, name string, at time.Time) (*Party, error) {
	if !kind.IsValid() {
		return nil, shared.ErrInvalidInput.WithDetail("unknown party kind %q", kind)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ErrInvalidInput.WithDetail("party name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.ErrInvalidInput.WithDetail("party name cannot exceed 200 characters")
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &Party{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.NewBaseEntityWithID(id, at.UTC()),
			Version:    1,
		},
		Kind: kind,
		Name: name,
	}, nil
}

// LockKey returns the mutual-exclusion key for this party
func LockKey(id uuid.UUID) string {
	return "party:" + id.String()
}

// AddDebt raises the outstanding balance when a new order is registered
func (p *Party) AddDebt(amount valueobject.Money, at time.Time) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidInput.WithDetail("debt amount must be positive, got %s", amount)
	}
	outstanding, err := p.OutstandingBalance.CheckedAdd(amount)
	if err != nil {
		return err
	}
	p.OutstandingBalance = outstanding
	p.UpdatedAt = at.UTC()
	return nil
}

// ApplyPayment records an effective payment against the party's debt.
// A payment larger than the outstanding balance means the aggregate has
// drifted from its orders and is rejected rather than driven negative.
func (p *Party) ApplyPayment(amount valueobject.Money, at time.Time) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidInput.WithDetail("payment amount must be positive, got %s", amount)
	}
	if amount.GreaterThan(p.OutstandingBalance) {
		return shared.ErrInvalidState.WithDetail(
			"party %s owes %s, cannot apply %s", p.ID, p.OutstandingBalance, amount)
	}
	totalPaid, err := p.TotalPaid.CheckedAdd(amount)
	if err != nil {
		return err
	}
	p.OutstandingBalance = p.OutstandingBalance.Subtract(amount)
	p.TotalPaid = totalPaid
	p.PaymentCount++
	p.UpdatedAt = at.UTC()
	return nil
}

// ReduceDebt lowers the outstanding balance when part of an order is cancelled
func (p *Party) ReduceDebt(amount valueobject.Money, at time.Time) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidInput.WithDetail("debt reduction must be positive, got %s", amount)
	}
	if amount.GreaterThan(p.OutstandingBalance) {
		return shared.ErrInvalidState.WithDetail(
			"party %s owes %s, cannot cancel %s", p.ID, p.OutstandingBalance, amount)
	}
	p.OutstandingBalance = p.OutstandingBalance.Subtract(amount)
	p.UpdatedAt = at.UTC()
	return nil
}

// HasDebt returns true if the party still owes money
func (p *Party) HasDebt() bool {
	return p.OutstandingBalance.IsPositive()
}
