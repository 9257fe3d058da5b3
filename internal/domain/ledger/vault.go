package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

// Vault is one of the seven capital pools.
// Balance always equals CumulativeCredits - CumulativeDebits and never goes negative.
type Vault struct {
	ID                VaultID
	Name              string
	Balance           valueobject.Money
	CumulativeCredits valueobject.Money
	CumulativeDebits  valueobject.Money
	LastSequence      int64
	LastHash          string
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewVault creates an empty vault at bootstrap
func NewVault(id VaultID, at time.Time) (*Vault, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidVault.WithDetail("unknown vault %q", id)
	}
	return &Vault{
		ID:        id,
		Name:      id.Name(),
		Version:   1,
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

// Posting describes one balance change requested against a vault
type Posting struct {
	Kind              MovementKind
	Side              Side
	Amount            valueobject.Money
	Memo              string
	CorrelationID     uuid.UUID
	SourceRef         string
	CounterpartyVault VaultID
	Warning           string
}

// Post applies the posting and returns the movement recording it.
// A debit larger than the balance is rejected with ErrInsufficientFunds and
// leaves the vault untouched.
func (v *Vault) Post(p Posting, at time.Time) (*Movement, error) {
	if !p.Amount.IsPositive() {
		return nil, shared.ErrInvalidInput.WithDetail("movement amount must be positive, got %s", p.Amount)
	}
	if !p.Kind.IsValid() {
		return nil, shared.ErrInvalidInput.WithDetail("unknown movement kind %q", p.Kind)
	}
	if !p.Kind.AllowsSide(p.Side) {
		return nil, shared.ErrInvalidInput.WithDetail("movement kind %s cannot be a %s", p.Kind, p.Side)
	}
	if p.CorrelationID == uuid.Nil {
		p.CorrelationID = uuid.New()
	}

	balance := v.Balance
	credits := v.CumulativeCredits
	debits := v.CumulativeDebits
	var err error
	switch p.Side {
	case SideCredit:
		if balance, err = balance.CheckedAdd(p.Amount); err != nil {
			return nil, err
		}
		if credits, err = credits.CheckedAdd(p.Amount); err != nil {
			return nil, err
		}
	case SideDebit:
		if p.Amount.GreaterThan(balance) {
			return nil, shared.ErrInsufficientFunds.WithDetail(
				"vault %s has %s available, %s requested", v.ID, balance, p.Amount)
		}
		balance = balance.Subtract(p.Amount)
		if debits, err = debits.CheckedAdd(p.Amount); err != nil {
			return nil, err
		}
	}

	at = at.UTC().Truncate(time.Microsecond)
	m := &Movement{
		ID:                uuid.New(),
		VaultID:           v.ID,
		Sequence:          v.LastSequence + 1,
		Kind:              p.Kind,
		Side:              p.Side,
		Amount:            p.Amount,
		BalanceAfter:      balance,
		OccurredAt:        at,
		Memo:              p.Memo,
		CorrelationID:     p.CorrelationID,
		SourceRef:         p.SourceRef,
		CounterpartyVault: p.CounterpartyVault,
		Warning:           p.Warning,
		PrevHash:          v.LastHash,
	}
	m.Hash = m.ComputeHash()

	v.Balance = balance
	v.CumulativeCredits = credits
	v.CumulativeDebits = debits
	v.LastSequence = m.Sequence
	v.LastHash = m.Hash
	v.UpdatedAt = at

	return m, nil
}

// IsConsistent checks balance == credits - debits
func (v *Vault) IsConsistent() bool {
	return v.Balance == v.CumulativeCredits.Subtract(v.CumulativeDebits)
}
