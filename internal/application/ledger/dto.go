package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/partner"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
	"github.com/vaultledger/backend/internal/domain/trade"
)

// VaultResponse represents a vault balance in API responses
type VaultResponse struct {
	ID                ledger.VaultID    `json:"id"`
	Name              string            `json:"name"`
	Balance           valueobject.Money `json:"balance"`
	CumulativeCredits valueobject.Money `json:"cumulative_credits"`
	CumulativeDebits  valueobject.Money `json:"cumulative_debits"`
	LastSequence      int64             `json:"last_sequence"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// SnapshotResponse is every vault balance read in one consistent view
type SnapshotResponse struct {
	TakenAt time.Time         `json:"taken_at"`
	Vaults  []VaultResponse   `json:"vaults"`
	Total   valueobject.Money `json:"total"`
}

// PostingRequest is a direct credit or debit of one vault
type PostingRequest struct {
	Amount    valueobject.Money `json:"amount"`
	Memo      string            `json:"memo" binding:"max=500"`
	SourceRef string            `json:"source_ref" binding:"max=100"`
}

// MovementResponse represents a ledger movement in API responses
type MovementResponse struct {
	ID                uuid.UUID           `json:"id"`
	VaultID           ledger.VaultID      `json:"vault_id"`
	Sequence          int64               `json:"sequence"`
	Kind              ledger.MovementKind `json:"kind"`
	Side              ledger.Side         `json:"side"`
	Amount            valueobject.Money   `json:"amount"`
	BalanceAfter      valueobject.Money   `json:"balance_after"`
	OccurredAt        time.Time           `json:"occurred_at"`
	Memo              string              `json:"memo,omitempty"`
	CorrelationID     uuid.UUID           `json:"correlation_id"`
	SourceRef         string              `json:"source_ref,omitempty"`
	CounterpartyVault ledger.VaultID      `json:"counterparty_vault,omitempty"`
	Warning           string              `json:"warning,omitempty"`
	Hash              string              `json:"hash"`
}

// MovementListFilter selects movements. Times are RFC3339.
type MovementListFilter struct {
	VaultID       string `form:"vault_id"`
	From          string `form:"from"`
	To            string `form:"to"`
	CorrelationID string `form:"correlation_id"`
	SourceRef     string `form:"source_ref"`
	Limit         int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	SortBy        string `form:"sort_by" binding:"omitempty,oneof=occurred_at sequence amount"`
	SortOrder     string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// ReplayResponse compares a vault's replayed movements with its stored row
type ReplayResponse struct {
	ledger.ReplayResult
	StoredBalance  valueobject.Money `json:"stored_balance"`
	StoredSequence int64             `json:"stored_sequence"`
	Consistent     bool              `json:"consistent"`
}

// TransferRequest moves money between two vaults
type TransferRequest struct {
	From   string            `json:"from" binding:"required"`
	To     string            `json:"to" binding:"required"`
	Amount valueobject.Money `json:"amount"`
	Memo   string            `json:"memo" binding:"max=500"`
}

// TransferResponse identifies the two movements of a transfer
type TransferResponse struct {
	CorrelationID uuid.UUID         `json:"correlation_id"`
	OutMovementID uuid.UUID         `json:"out_movement_id"`
	InMovementID  uuid.UUID         `json:"in_movement_id"`
	Amount        valueobject.Money `json:"amount"`
}

// DistributeSaleRequest carries the pricing of one sale line in major units
type DistributeSaleRequest struct {
	UnitSalePrice   decimal.Decimal `json:"unit_sale_price"`
	UnitCostPrice   decimal.Decimal `json:"unit_cost_price"`
	UnitFreightCost decimal.Decimal `json:"unit_freight_cost"`
	Quantity        int64           `json:"quantity"`
}

// DistributionResponse reports the split of a sale and the movements posted.
// A zero share posts nothing and leaves its movement id empty.
type DistributionResponse struct {
	SaleID            uuid.UUID         `json:"sale_id"`
	CorrelationID     uuid.UUID         `json:"correlation_id"`
	Total             valueobject.Money `json:"total"`
	CostAmount        valueobject.Money `json:"cost_amount"`
	FreightAmount     valueobject.Money `json:"freight_amount"`
	ProfitAmount      valueobject.Money `json:"profit_amount"`
	CostMovementID    *uuid.UUID        `json:"cost_movement_id,omitempty"`
	FreightMovementID *uuid.UUID        `json:"freight_movement_id,omitempty"`
	ProfitMovementID  *uuid.UUID        `json:"profit_movement_id,omitempty"`
	Loss              bool              `json:"loss"`
	Warnings          []string          `json:"warnings"`
}

// ProcessReturnRequest takes back units of a distributed sale
type ProcessReturnRequest struct {
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
	Reason   string `json:"reason" binding:"max=200"`
}

// ReturnResponse reports the shares reversed for a return and the effect on
// the sale's order. Shares are signed as posted by the distribution, so a
// negative profit share was credited back to the profit vault.
type ReturnResponse struct {
	SaleID            uuid.UUID          `json:"sale_id"`
	CorrelationID     uuid.UUID          `json:"correlation_id"`
	Quantity          int64              `json:"quantity"`
	RemainingQuantity int64              `json:"remaining_quantity"`
	FullyReturned     bool               `json:"fully_returned"`
	Total             valueobject.Money  `json:"total"`
	CostAmount        valueobject.Money  `json:"cost_amount"`
	FreightAmount     valueobject.Money  `json:"freight_amount"`
	ProfitAmount      valueobject.Money  `json:"profit_amount"`
	CostMovementID    *uuid.UUID         `json:"cost_movement_id,omitempty"`
	FreightMovementID *uuid.UUID         `json:"freight_movement_id,omitempty"`
	ProfitMovementID  *uuid.UUID         `json:"profit_movement_id,omitempty"`
	OrderID           *uuid.UUID         `json:"order_id,omitempty"`
	DebtReduction     valueobject.Money  `json:"debt_reduction"`
	RefundDue         valueobject.Money  `json:"refund_due"`
	OrderState        trade.PaymentState `json:"order_state,omitempty"`
	PartyOutstanding  *valueobject.Money `json:"party_outstanding,omitempty"`
}

// RegisterOrderRequest brings an order's debt under ledger control
type RegisterOrderRequest struct {
	OrderID   *uuid.UUID        `json:"order_id"`
	Type      string            `json:"type" binding:"required,oneof=SALE PURCHASE_ORDER"`
	Number    string            `json:"number" binding:"required,max=50"`
	PartyID   uuid.UUID         `json:"party_id" binding:"required"`
	PartyName string            `json:"party_name" binding:"max=200"`
	Total     valueobject.Money `json:"total"`
}

// ApplyPaymentRequest applies a payment against an order
type ApplyPaymentRequest struct {
	VaultID   string            `json:"vault_id" binding:"required"`
	Amount    valueobject.Money `json:"amount"`
	Direction string            `json:"direction" binding:"required,oneof=incoming outgoing"`
}

// ApplyPaymentResponse reports what part of a payment was applied
type ApplyPaymentResponse struct {
	OrderID          uuid.UUID          `json:"order_id"`
	EffectiveAmount  valueobject.Money  `json:"effective_amount"`
	CappedAmount     valueobject.Money  `json:"capped_amount"`
	NewState         trade.PaymentState `json:"new_state"`
	MovementID       uuid.UUID          `json:"movement_id"`
	Remaining        valueobject.Money  `json:"remaining"`
	PartyOutstanding valueobject.Money  `json:"party_outstanding"`
}

// PaymentApplicationResponse represents an applied payment
type PaymentApplicationResponse struct {
	ID              uuid.UUID              `json:"id"`
	VaultID         ledger.VaultID         `json:"vault_id"`
	MovementID      uuid.UUID              `json:"movement_id"`
	Direction       trade.PaymentDirection `json:"direction"`
	RequestedAmount valueobject.Money      `json:"requested_amount"`
	EffectiveAmount valueobject.Money      `json:"effective_amount"`
	AppliedAt       time.Time              `json:"applied_at"`
}

// OrderResponse represents an order's payment standing
type OrderResponse struct {
	ID              uuid.UUID                    `json:"id"`
	Type            trade.OrderType              `json:"type"`
	Number          string                       `json:"number"`
	PartyID         uuid.UUID                    `json:"party_id"`
	TotalAmount     valueobject.Money            `json:"total_amount"`
	AmountPaid      valueobject.Money            `json:"amount_paid"`
	AmountRemaining valueobject.Money            `json:"amount_remaining"`
	PaymentState    trade.PaymentState           `json:"payment_state"`
	PaymentCount    int                          `json:"payment_count"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
	Payments        []PaymentApplicationResponse `json:"payments,omitempty"`
}

// PartyResponse represents a party's debt standing
type PartyResponse struct {
	ID                 uuid.UUID         `json:"id"`
	Kind               partner.PartyKind `json:"kind"`
	Name               string            `json:"name"`
	OutstandingBalance valueobject.Money `json:"outstanding_balance"`
	TotalPaid          valueobject.Money `json:"total_paid"`
	PaymentCount       int               `json:"payment_count"`
}

// ToVaultResponse converts a domain Vault to VaultResponse
func ToVaultResponse(v *ledger.Vault) VaultResponse {
	return VaultResponse{
		ID:                v.ID,
		Name:              v.Name,
		Balance:           v.Balance,
		CumulativeCredits: v.CumulativeCredits,
		CumulativeDebits:  v.CumulativeDebits,
		LastSequence:      v.LastSequence,
		UpdatedAt:         v.UpdatedAt,
	}
}

// ToMovementResponse converts a domain Movement to MovementResponse
func ToMovementResponse(m *ledger.Movement) MovementResponse {
	return MovementResponse{
		ID:                m.ID,
		VaultID:           m.VaultID,
		Sequence:          m.Sequence,
		Kind:              m.Kind,
		Side:              m.Side,
		Amount:            m.Amount,
		BalanceAfter:      m.BalanceAfter,
		OccurredAt:        m.OccurredAt,
		Memo:              m.Memo,
		CorrelationID:     m.CorrelationID,
		SourceRef:         m.SourceRef,
		CounterpartyVault: m.CounterpartyVault,
		Warning:           m.Warning,
		Hash:              m.Hash,
	}
}

// ToOrderResponse converts a domain Order and its applications to OrderResponse
func ToOrderResponse(o *trade.Order, apps []trade.PaymentApplication) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		Type:            o.Type,
		Number:          o.Number,
		PartyID:         o.PartyID,
		TotalAmount:     o.TotalAmount,
		AmountPaid:      o.AmountPaid,
		AmountRemaining: o.AmountRemaining,
		PaymentState:    o.PaymentState,
		PaymentCount:    o.PaymentCount,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for i := range apps {
		a := &apps[i]
		resp.Payments = append(resp.Payments, PaymentApplicationResponse{
			ID:              a.ID,
			VaultID:         a.VaultID,
			MovementID:      a.MovementID,
			Direction:       a.Direction,
			RequestedAmount: a.RequestedAmount,
			EffectiveAmount: a.EffectiveAmount,
			AppliedAt:       a.AppliedAt,
		})
	}
	return resp
}

// ToPartyResponse converts a domain Party to PartyResponse
func ToPartyResponse(p *partner.Party) PartyResponse {
	return PartyResponse{
		ID:                 p.ID,
		Kind:               p.Kind,
		Name:               p.Name,
		OutstandingBalance: p.OutstandingBalance,
		TotalPaid:          p.TotalPaid,
		PaymentCount:       p.PaymentCount,
	}
}
