package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/partner"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
	"github.com/vaultledger/backend/internal/domain/trade"
	"github.com/vaultledger/backend/internal/infrastructure/telemetry"
)

// ReturnService reverses the distribution of returned sale units
type ReturnService struct {
	exec    *executor
	targets ledger.SplitTargets
}

// NewReturnService creates a new ReturnService reversing postings on the given target vaults
func NewReturnService(scope TransactionScope, locker Locker, targets ledger.SplitTargets, opts Options) *ReturnService {
	return &ReturnService{
		exec:    newExecutor(scope, locker, opts),
		targets: targets,
	}
}

// ProcessReturn takes back units of a distributed sale. The cost, freight and
// profit shares of those units are reversed on their vaults under one
// correlation id. When a SALE order shares the sale's id, its total and the
// client's debt drop by the returned amount in the same transaction; the part
// already paid is reported as the refund due.
func (s *ReturnService) ProcessReturn(ctx context.Context, saleID uuid.UUID, req ProcessReturnRequest) (*ReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "distribution", "process_return")
	defer span.End()

	if saleID == uuid.Nil {
		err := shared.ErrInvalidInput.WithDetail("sale id cannot be empty")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.Quantity <= 0 {
		err := shared.ErrInvalidInput.WithDetail("return quantity must be positive, got %d", req.Quantity)
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.targets.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	correlationID := uuid.New()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, saleID.String(),
		telemetry.SpanAttrCorrelationID, correlationID.String(),
		telemetry.SpanAttrQuantity, req.Quantity,
	)

	// The order's party joins the lock set, so it is looked up first
	var partyID uuid.UUID
	err := s.exec.view(ctx, "", func(ctx context.Context, repos Repositories) error {
		order, err := repos.Orders().FindByID(ctx, saleID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if order.Type == trade.OrderTypeSale {
			partyID = order.PartyID
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	keys := []string{
		SaleLockKey(saleID),
		s.targets.Cost.LockKey(),
		s.targets.Freight.LockKey(),
		s.targets.Profit.LockKey(),
	}
	if partyID != uuid.Nil {
		keys = append(keys, trade.LockKey(saleID), partner.LockKey(partyID))
	}

	var (
		resp  *ReturnResponse
		event shared.DomainEvent
	)
	err = s.exec.mutate(ctx, OpProcessReturn, keys, func(ctx context.Context, repos Repositories) error {
		sale, err := repos.Sales().FindByID(ctx, saleID)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrNotFound.WithDetail("sale %s has not been distributed", saleID)
		}
		if err != nil {
			return err
		}

		at := s.exec.now()
		reversal, err := sale.Return(req.Quantity, at)
		if err != nil {
			return err
		}
		resp = &ReturnResponse{
			SaleID:            saleID,
			CorrelationID:     correlationID,
			Quantity:          req.Quantity,
			RemainingQuantity: sale.RemainingQuantity(),
			FullyReturned:     sale.IsFullyReturned(),
			Total:             reversal.Total,
			CostAmount:        reversal.Cost,
			FreightAmount:     reversal.Freight,
			ProfitAmount:      reversal.Profit,
		}

		vaults, err := loadVaultsForUpdate(ctx, repos, s.targets.Cost, s.targets.Freight, s.targets.Profit)
		if err != nil {
			return err
		}
		shares := []struct {
			vault  ledger.VaultID
			amount valueobject.Money
			result **uuid.UUID
		}{
			{s.targets.Cost, reversal.Cost, &resp.CostMovementID},
			{s.targets.Freight, reversal.Freight, &resp.FreightMovementID},
			{s.targets.Profit, reversal.Profit, &resp.ProfitMovementID},
		}
		touched := make([]*ledger.Vault, 0, len(shares))
		movements := make([]*ledger.Movement, 0, len(shares))
		for _, sh := range shares {
			if sh.amount.IsZero() {
				continue
			}
			// A share posted as a credit is taken back with a debit, and a loss the other way round
			side := ledger.SideDebit
			if sh.amount.IsNegative() {
				side = ledger.SideCredit
			}
			vault := vaults[sh.vault]
			m, err := vault.Post(ledger.Posting{
				Kind:          ledger.KindDistributionShare,
				Side:          side,
				Amount:        sh.amount.Abs(),
				Memo:          returnMemo(req.Reason),
				CorrelationID: correlationID,
				SourceRef:     ledger.SaleSourceRef(saleID),
			}, at)
			if err != nil {
				return err
			}
			touched = append(touched, vault)
			movements = append(movements, m)
			id := m.ID
			*sh.result = &id
		}
		if err := persistPostings(ctx, repos, touched, movements); err != nil {
			return err
		}
		if err := repos.Sales().Save(ctx, sale); err != nil {
			return err
		}

		if partyID != uuid.Nil && reversal.Total.IsPositive() {
			if err := s.reduceOrderDebt(ctx, repos, saleID, partyID, reversal.Total, at, resp); err != nil {
				return err
			}
		}

		event = ledger.NewSaleReturnedEvent(sale, correlationID, req.Quantity, reversal, req.Reason, at)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrAmount, resp.Total.String())
	if resp.OrderID != nil {
		telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, resp.OrderID.String())
	}
	s.exec.publish(ctx, event)
	return resp, nil
}

func (s *ReturnService) reduceOrderDebt(ctx context.Context, repos Repositories, orderID, partyID uuid.UUID, amount valueobject.Money, at time.Time, resp *ReturnResponse) error {
	order, err := repos.Orders().FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.PartyID != partyID {
		return shared.ErrConcurrencyConflict.WithDetail("order %s changed party while locking", orderID)
	}
	party, err := repos.Parties().FindByID(ctx, partyID)
	if err != nil {
		return err
	}

	reduction, refund, err := order.ApplyReturn(amount, at)
	if err != nil {
		return err
	}
	if reduction.IsPositive() {
		if err := party.ReduceDebt(reduction, at); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, order); err != nil {
			return err
		}
		if err := repos.Parties().Save(ctx, party); err != nil {
			return err
		}
	}

	id := order.ID
	outstanding := party.OutstandingBalance
	resp.OrderID = &id
	resp.DebtReduction = reduction
	resp.RefundDue = refund
	resp.OrderState = order.PaymentState
	resp.PartyOutstanding = &outstanding
	return nil
}

func returnMemo(reason string) string {
	if reason == "" {
		return "sale return"
	}
	return "sale return: " + reason
}
