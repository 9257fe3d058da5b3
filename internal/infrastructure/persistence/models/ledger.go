package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

// VaultModel is the persistence model for the Vault aggregate.
// Amounts are stored as integer minor units.
type VaultModel struct {
	ID                string    `gorm:"type:varchar(32);primary_key"`
	Name              string    `gorm:"type:varchar(100);not null"`
	Balance           int64     `gorm:"not null;default:0"`
	CumulativeCredits int64     `gorm:"not null;default:0"`
	CumulativeDebits  int64     `gorm:"not null;default:0"`
	LastSequence      int64     `gorm:"not null;default:0"`
	LastHash          string    `gorm:"type:varchar(64);not null;default:''"`
	Version           int       `gorm:"not null;default:1"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VaultModel) TableName() string {
	return "vaults"
}

// ToDomain converts the persistence model to a domain Vault
func (m *VaultModel) ToDomain() *ledger.Vault {
	return &ledger.Vault{
		ID:                ledger.VaultID(m.ID),
		Name:              m.Name,
		Balance:           valueobject.NewMoneyFromMinor(m.Balance),
		CumulativeCredits: valueobject.NewMoneyFromMinor(m.CumulativeCredits),
		CumulativeDebits:  valueobject.NewMoneyFromMinor(m.CumulativeDebits),
		LastSequence:      m.LastSequence,
		LastHash:          m.LastHash,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

// VaultModelFromDomain creates a persistence model from a domain Vault
func VaultModelFromDomain(v *ledger.Vault) *VaultModel {
	return &VaultModel{
		ID:                string(v.ID),
		Name:              v.Name,
		Balance:           v.Balance.Minor(),
		CumulativeCredits: v.CumulativeCredits.Minor(),
		CumulativeDebits:  v.CumulativeDebits.Minor(),
		LastSequence:      v.LastSequence,
		LastHash:          v.LastHash,
		Version:           v.Version,
		CreatedAt:         v.CreatedAt.UTC(),
		UpdatedAt:         v.UpdatedAt.UTC(),
	}
}

// MovementModel is the persistence model for an immutable ledger movement
type MovementModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	VaultID           string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_movement_vault_seq,priority:1"`
	Sequence          int64     `gorm:"not null;uniqueIndex:idx_movement_vault_seq,priority:2"`
	Kind              string    `gorm:"type:varchar(32);not null"`
	Side              string    `gorm:"type:varchar(8);not null"`
	Amount            int64     `gorm:"not null"`
	BalanceAfter      int64     `gorm:"not null"`
	OccurredAt        time.Time `gorm:"not null;index"`
	Memo              string    `gorm:"type:varchar(500);not null;default:''"`
	CorrelationID     uuid.UUID `gorm:"type:uuid;not null;index"`
	SourceRef         string    `gorm:"type:varchar(100);not null;default:'';index"`
	CounterpartyVault string    `gorm:"type:varchar(32);not null;default:''"`
	Warning           string    `gorm:"type:varchar(32);not null;default:''"`
	PrevHash          string    `gorm:"type:varchar(64);not null;default:''"`
	Hash              string    `gorm:"type:varchar(64);not null"`
}

// TableName returns the table name for GORM
func (MovementModel) TableName() string {
	return "movements"
}

// ToDomain converts the persistence model to a domain Movement
func (m *MovementModel) ToDomain() ledger.Movement {
	return ledger.Movement{
		ID:                m.ID,
		VaultID:           ledger.VaultID(m.VaultID),
		Sequence:          m.Sequence,
		Kind:              ledger.MovementKind(m.Kind),
		Side:              ledger.Side(m.Side),
		Amount:            valueobject.NewMoneyFromMinor(m.Amount),
		BalanceAfter:      valueobject.NewMoneyFromMinor(m.BalanceAfter),
		OccurredAt:        m.OccurredAt.UTC(),
		Memo:              m.Memo,
		CorrelationID:     m.CorrelationID,
		SourceRef:         m.SourceRef,
		CounterpartyVault: ledger.VaultID(m.CounterpartyVault),
		Warning:           m.Warning,
		PrevHash:          m.PrevHash,
		Hash:              m.Hash,
	}
}

// MovementModelFromDomain creates a persistence model from a domain Movement
func MovementModelFromDomain(mv *ledger.Movement) *MovementModel {
	return &MovementModel{
		ID:                mv.ID,
		VaultID:           string(mv.VaultID),
		Sequence:          mv.Sequence,
		Kind:              string(mv.Kind),
		Side:              string(mv.Side),
		Amount:            mv.Amount.Minor(),
		BalanceAfter:      mv.BalanceAfter.Minor(),
		OccurredAt:        mv.OccurredAt.UTC(),
		Memo:              mv.Memo,
		CorrelationID:     mv.CorrelationID,
		SourceRef:         mv.SourceRef,
		CounterpartyVault: string(mv.CounterpartyVault),
		Warning:           mv.Warning,
		PrevHash:          mv.PrevHash,
		Hash:              mv.Hash,
	}
}

// CashCutModel is the persistence model for a stored integrity report
type CashCutModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	AsOf           time.Time `gorm:"not null"`
	GeneratedAt    time.Time `gorm:"not null;index"`
	VaultCount     int       `gorm:"not null"`
	PartyCount     int       `gorm:"not null"`
	ViolationCount int       `gorm:"not null"`
	Report         []byte    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CashCutModel) TableName() string {
	return "cash_cuts"
}

// ToDomain converts the persistence model to a domain CashCut
func (m *CashCutModel) ToDomain() *ledger.CashCut {
	return &ledger.CashCut{
		ID:             m.ID,
		AsOf:           m.AsOf.UTC(),
		GeneratedAt:    m.GeneratedAt.UTC(),
		VaultCount:     m.VaultCount,
		PartyCount:     m.PartyCount,
		ViolationCount: m.ViolationCount,
		Report:         m.Report,
	}
}

// CashCutModelFromDomain creates a persistence model from a domain CashCut
func CashCutModelFromDomain(c *ledger.CashCut) *CashCutModel {
	return &CashCutModel{
		ID:             c.ID,
		AsOf:           c.AsOf.UTC(),
		GeneratedAt:    c.GeneratedAt.UTC(),
		VaultCount:     c.VaultCount,
		PartyCount:     c.PartyCount,
		ViolationCount: c.ViolationCount,
		Report:         c.Report,
	}
}

// AuditEntryModel is the persistence model for one committed domain event
type AuditEntryModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	EventID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EventType     string    `gorm:"type:varchar(100);not null;index"`
	AggregateType string    `gorm:"type:varchar(50);not null"`
	AggregateID   uuid.UUID `gorm:"type:uuid;not null;index"`
	OccurredAt    time.Time `gorm:"not null"`
	Payload       []byte    `gorm:"not null"`
	RecordedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "audit_entries"
}

// ToDomain converts the persistence model to a domain AuditEntry
func (m *AuditEntryModel) ToDomain() ledger.AuditEntry {
	return ledger.AuditEntry{
		ID:            m.ID,
		EventID:       m.EventID,
		EventType:     m.EventType,
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		OccurredAt:    m.OccurredAt.UTC(),
		Payload:       m.Payload,
		RecordedAt:    m.RecordedAt.UTC(),
	}
}

// AuditEntryModelFromDomain creates a persistence model from a domain AuditEntry
func AuditEntryModelFromDomain(e *ledger.AuditEntry) *AuditEntryModel {
	return &AuditEntryModel{
		ID:            e.ID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		OccurredAt:    e.OccurredAt.UTC(),
		Payload:       e.Payload,
		RecordedAt:    e.RecordedAt.UTC(),
	}
}

// SaleModel is the persistence model for a distributed sale
type SaleModel struct {
	AggregateModel
	Quantity         int64     `gorm:"not null"`
	ReturnedQuantity int64     `gorm:"not null;default:0"`
	TotalAmount      int64     `gorm:"not null"`
	CostAmount       int64     `gorm:"not null"`
	FreightAmount    int64     `gorm:"not null"`
	ProfitAmount     int64     `gorm:"not null"`
	ReturnedTotal    int64     `gorm:"not null;default:0"`
	ReturnedCost     int64     `gorm:"not null;default:0"`
	ReturnedFreight  int64     `gorm:"not null;default:0"`
	ReturnedProfit   int64     `gorm:"not null;default:0"`
	CorrelationID    uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() *ledger.Sale {
	return &ledger.Sale{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Quantity:          m.Quantity,
		ReturnedQuantity:  m.ReturnedQuantity,
		Split: ledger.Split{
			Total:   valueobject.NewMoneyFromMinor(m.TotalAmount),
			Cost:    valueobject.NewMoneyFromMinor(m.CostAmount),
			Freight: valueobject.NewMoneyFromMinor(m.FreightAmount),
			Profit:  valueobject.NewMoneyFromMinor(m.ProfitAmount),
		},
		Returned: ledger.Split{
			Total:   valueobject.NewMoneyFromMinor(m.ReturnedTotal),
			Cost:    valueobject.NewMoneyFromMinor(m.ReturnedCost),
			Freight: valueobject.NewMoneyFromMinor(m.ReturnedFreight),
			Profit:  valueobject.NewMoneyFromMinor(m.ReturnedProfit),
		},
		CorrelationID: m.CorrelationID,
	}
}

// SaleModelFromDomain creates a persistence model from a domain Sale
func SaleModelFromDomain(s *ledger.Sale) *SaleModel {
	m := &SaleModel{
		Quantity:         s.Quantity,
		ReturnedQuantity: s.ReturnedQuantity,
		TotalAmount:      s.Split.Total.Minor(),
		CostAmount:       s.Split.Cost.Minor(),
		FreightAmount:    s.Split.Freight.Minor(),
		ProfitAmount:     s.Split.Profit.Minor(),
		ReturnedTotal:    s.Returned.Total.Minor(),
		ReturnedCost:     s.Returned.Cost.Minor(),
		ReturnedFreight:  s.Returned.Freight.Minor(),
		ReturnedProfit:   s.Returned.Profit.Minor(),
		CorrelationID:    s.CorrelationID,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}
