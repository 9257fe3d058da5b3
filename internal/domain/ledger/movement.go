package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

// MovementKind is the closed set of balance-affecting event kinds
type MovementKind string

const (
	KindCredit            MovementKind = "credit"
	KindDebit             MovementKind = "debit"
	KindTransferOut       MovementKind = "transfer-out"
	KindTransferIn        MovementKind = "transfer-in"
	KindDistributionShare MovementKind = "distribution-share"
	KindPayment           MovementKind = "payment"
)

// ParseMovementKind validates a raw movement kind
func ParseMovementKind(raw string) (MovementKind, error) {
	k := MovementKind(raw)
	if !k.IsValid() {
		return "", shared.ErrInvalidInput.WithDetail("unknown movement kind %q", raw)
	}
	return k, nil
}

// IsValid checks if the kind is one of the known kinds
func (k MovementKind) IsValid() bool {
	switch k {
	case KindCredit, KindDebit, KindTransferOut, KindTransferIn, KindDistributionShare, KindPayment:
		return true
	}
	return false
}

// AllowsSide reports whether a movement of this kind may move the balance in the given direction
func (k MovementKind) AllowsSide(side Side) bool {
	switch k {
	case KindCredit, KindTransferIn:
		return side == SideCredit
	case KindDebit, KindTransferOut:
		return side == SideDebit
	case KindDistributionShare, KindPayment:
		return side.IsValid()
	}
	return false
}

// String returns the string representation of MovementKind
func (k MovementKind) String() string {
	return string(k)
}

// Side is the balance direction of a movement
type Side string

const (
	SideCredit Side = "credit"
	SideDebit  Side = "debit"
)

// IsValid checks if the side is credit or debit
func (s Side) IsValid() bool {
	return s == SideCredit || s == SideDebit
}

// Movement warnings
const (
	WarningLoss = "loss"
)

// Movement is an immutable ledger entry for one vault
type Movement struct {
	ID                uuid.UUID
	VaultID           VaultID
	Sequence          int64
	Kind              MovementKind
	Side              Side
	Amount            valueobject.Money
	BalanceAfter      valueobject.Money
	OccurredAt        time.Time
	Memo              string
	CorrelationID     uuid.UUID
	SourceRef         string
	CounterpartyVault VaultID
	Warning           string
	PrevHash          string
	Hash              string
}

// SignedAmount returns the amount with the sign of its side applied
func (m *Movement) SignedAmount() valueobject.Money {
	if m.Side == SideDebit {
		return m.Amount.Negate()
	}
	return m.Amount
}

// IsCredit returns true for credit-side movements
func (m *Movement) IsCredit() bool {
	return m.Side == SideCredit
}

// ComputeHash returns the chain hash of the movement's content and its predecessor hash
func (m *Movement) ComputeHash() string {
	fields := []string{
		m.PrevHash,
		string(m.VaultID),
		strconv.FormatInt(m.Sequence, 10),
		string(m.Kind),
		string(m.Side),
		strconv.FormatInt(m.Amount.Minor(), 10),
		strconv.FormatInt(m.BalanceAfter.Minor(), 10),
		strconv.FormatInt(m.OccurredAt.UnixMicro(), 10),
		m.CorrelationID.String(),
		m.SourceRef,
		string(m.CounterpartyVault),
		m.Warning,
		m.Memo,
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// VerifyHash reports whether the stored hash matches the content
func (m *Movement) VerifyHash() bool {
	return m.Hash == m.ComputeHash()
}

// MovementFilter selects movements; zero fields are ignored
type MovementFilter struct {
	VaultID       VaultID
	From          *time.Time
	To            *time.Time
	CorrelationID uuid.UUID
	SourceRef     string
	Limit         int
	SortBy        string // occurred_at (default), sequence or amount
	SortOrder     string // asc (default) or desc
}

// SourceRef prefixes
const (
	SourceRefSalePrefix  = "sale:"
	SourceRefOrderPrefix = "order:"
)

// SaleSourceRef builds the source reference for a sale distribution
func SaleSourceRef(saleID uuid.UUID) string {
	return SourceRefSalePrefix + saleID.String()
}

// OrderSourceRef builds the source reference for an order payment
func OrderSourceRef(orderID uuid.UUID) string {
	return SourceRefOrderPrefix + orderID.String()
}
