package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

// Event types
const (
	EventTypeSaleDistributed            = "SaleDistributed"
	EventTypeSaleReturned               = "SaleReturned"
	EventTypeTransferCompleted          = "TransferCompleted"
	EventTypeVaultAdjusted              = "VaultAdjusted"
	EventTypeIntegrityViolationDetected = "IntegrityViolationDetected"
)

// AggregateTypeSale is the aggregate type of sale distribution events
const AggregateTypeSale = "Sale"

// AggregateTypeVault is the aggregate type of vault events
const AggregateTypeVault = "Vault"

// SaleDistributedEvent is raised when a sale's revenue split is posted
type SaleDistributedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID         `json:"sale_id"`
	CorrelationID uuid.UUID         `json:"correlation_id"`
	Total         valueobject.Money `json:"total"`
	Cost          valueobject.Money `json:"cost"`
	Freight       valueobject.Money `json:"freight"`
	Profit        valueobject.Money `json:"profit"`
	Loss          bool              `json:"loss"`
}

// NewSaleDistributedEvent creates a new SaleDistributedEvent
func NewSaleDistributedEvent(saleID, correlationID uuid.UUID, split Split, at time.Time) *SaleDistributedEvent {
	return &SaleDistributedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleDistributed, AggregateTypeSale, saleID, at),
		SaleID:          saleID,
		CorrelationID:   correlationID,
		Total:           split.Total,
		Cost:            split.Cost,
		Freight:         split.Freight,
		Profit:          split.Profit,
		Loss:            split.IsLoss(),
	}
}

// SaleReturnedEvent is raised when returned units of a sale are reversed
type SaleReturnedEvent struct {
	shared.BaseDomainEvent
	SaleID            uuid.UUID         `json:"sale_id"`
	CorrelationID     uuid.UUID         `json:"correlation_id"`
	Quantity          int64             `json:"quantity"`
	RemainingQuantity int64             `json:"remaining_quantity"`
	Total             valueobject.Money `json:"total"`
	Cost              valueobject.Money `json:"cost"`
	Freight           valueobject.Money `json:"freight"`
	Profit            valueobject.Money `json:"profit"`
	Reason            string            `json:"reason,omitempty"`
}

// NewSaleReturnedEvent creates a new SaleReturnedEvent from the reversed shares
func NewSaleReturnedEvent(sale *Sale, correlationID uuid.UUID, quantity int64, reversal Split, reason string, at time.Time) *SaleReturnedEvent {
	return &SaleReturnedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeSaleReturned, AggregateTypeSale, sale.ID, at),
		SaleID:            sale.ID,
		CorrelationID:     correlationID,
		Quantity:          quantity,
		RemainingQuantity: sale.RemainingQuantity(),
		Total:             reversal.Total,
		Cost:              reversal.Cost,
		Freight:           reversal.Freight,
		Profit:            reversal.Profit,
		Reason:            reason,
	}
}

// TransferCompletedEvent is raised when a vault-to-vault transfer commits
type TransferCompletedEvent struct {
	shared.BaseDomainEvent
	CorrelationID uuid.UUID         `json:"correlation_id"`
	FromVault     VaultID           `json:"from_vault"`
	ToVault       VaultID           `json:"to_vault"`
	Amount        valueobject.Money `json:"amount"`
	Memo          string            `json:"memo"`
}

// NewTransferCompletedEvent creates a new TransferCompletedEvent
func NewTransferCompletedEvent(correlationID uuid.UUID, from, to VaultID, amount valueobject.Money, memo string, at time.Time) *TransferCompletedEvent {
	return &TransferCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferCompleted, AggregateTypeVault, correlationID, at),
		CorrelationID:   correlationID,
		FromVault:       from,
		ToVault:         to,
		Amount:          amount,
		Memo:            memo,
	}
}

// VaultAdjustedEvent is raised for a direct credit or debit of a vault
type VaultAdjustedEvent struct {
	shared.BaseDomainEvent
	MovementID uuid.UUID         `json:"movement_id"`
	VaultID    VaultID           `json:"vault_id"`
	Side       Side              `json:"side"`
	Amount     valueobject.Money `json:"amount"`
	Balance    valueobject.Money `json:"balance"`
	SourceRef  string            `json:"source_ref,omitempty"`
}

// NewVaultAdjustedEvent creates a new VaultAdjustedEvent from the recorded movement
func NewVaultAdjustedEvent(m *Movement) *VaultAdjustedEvent {
	return &VaultAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVaultAdjusted, AggregateTypeVault, m.ID, m.OccurredAt),
		MovementID:      m.ID,
		VaultID:         m.VaultID,
		Side:            m.Side,
		Amount:          m.Amount,
		Balance:         m.BalanceAfter,
		SourceRef:       m.SourceRef,
	}
}

// IntegrityViolationDetectedEvent is raised when a cash-cut report finds divergence
type IntegrityViolationDetectedEvent struct {
	shared.BaseDomainEvent
	ReportID       uuid.UUID `json:"report_id"`
	AsOf           time.Time `json:"as_of"`
	ViolationCount int       `json:"violation_count"`
}

// NewIntegrityViolationDetectedEvent creates a new IntegrityViolationDetectedEvent
func NewIntegrityViolationDetectedEvent(reportID uuid.UUID, asOf time.Time, count int, at time.Time) *IntegrityViolationDetectedEvent {
	return &IntegrityViolationDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIntegrityViolationDetected, AggregateTypeCashCut, reportID, at),
		ReportID:        reportID,
		AsOf:            asOf,
		ViolationCount:  count,
	}
}
