package models

import (
	"github.com/vaultledger/backend/internal/domain/partner"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

// PartyModel is the persistence model for the Party aggregate
type PartyModel struct {
	AggregateModel
	Kind               string `gorm:"type:varchar(20);not null;index"`
	Name               string `gorm:"type:varchar(200);not null"`
	OutstandingBalance int64  `gorm:"not null;default:0"`
	TotalPaid          int64  `gorm:"not null;default:0"`
	PaymentCount       int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PartyModel) TableName() string {
	return "parties"
}

// ToDomain converts the persistence model to a domain Party
func (m *PartyModel) ToDomain() *partner.Party {
	return &partner.Party{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		Kind:               partner.PartyKind(m.Kind),
		Name:               m.Name,
		OutstandingBalance: valueobject.NewMoneyFromMinor(m.OutstandingBalance),
		TotalPaid:          valueobject.NewMoneyFromMinor(m.TotalPaid),
		PaymentCount:       m.PaymentCount,
	}
}

// FromDomain populates the persistence model from a domain Party
func (m *PartyModel) FromDomain(p *partner.Party) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Kind = string(p.Kind)
	m.Name = p.Name
	m.OutstandingBalance = p.OutstandingBalance.Minor()
	m.TotalPaid = p.TotalPaid.Minor()
	m.PaymentCount = p.PaymentCount
}

// PartyModelFromDomain creates a persistence model from a domain Party
func PartyModelFromDomain(p *partner.Party) *PartyModel {
	m := &PartyModel{}
	m.FromDomain(p)
	return m
}
