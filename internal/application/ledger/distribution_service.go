package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
	"github.com/vaultledger/backend/internal/infrastructure/telemetry"
)

// DistributionService splits a sale's revenue across the cost, freight and
// profit vaults
type DistributionService struct {
	exec    *executor
	targets ledger.SplitTargets
}

// NewDistributionService creates a new DistributionService posting to the given target vaults
func NewDistributionService(scope TransactionScope, locker Locker, targets ledger.SplitTargets, opts Options) *DistributionService {
	return &DistributionService{
		exec:    newExecutor(scope, locker, opts),
		targets: targets,
	}
}

// SaleLockKey returns the mutual-exclusion key for a sale distribution
func SaleLockKey(saleID uuid.UUID) string {
	return "sale:" + saleID.String()
}

type share struct {
	vault  ledger.VaultID
	amount valueobject.Money
	side   ledger.Side
	warn   string
	result **uuid.UUID
}

// DistributeSale posts the three shares of a sale as one atomic unit and
// records the split so returns can reverse it. A sale is distributed at most
// once; a second call fails with ErrAlreadyExists.
func (s *DistributionService) DistributeSale(ctx context.Context, saleID uuid.UUID, req DistributeSaleRequest) (*DistributionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "distribution", "distribute_sale")
	defer span.End()

	if saleID == uuid.Nil {
		err := shared.ErrInvalidInput.WithDetail("sale id cannot be empty")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.targets.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	split, err := ledger.ComputeSplit(ledger.SaleLine{
		UnitSalePrice:   req.UnitSalePrice,
		UnitCostPrice:   req.UnitCostPrice,
		UnitFreightCost: req.UnitFreightCost,
		Quantity:        req.Quantity,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	correlationID := uuid.New()
	sourceRef := ledger.SaleSourceRef(saleID)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, saleID.String(),
		telemetry.SpanAttrCorrelationID, correlationID.String(),
		telemetry.SpanAttrAmount, split.Total.String(),
	)

	resp := &DistributionResponse{
		SaleID:        saleID,
		CorrelationID: correlationID,
		Total:         split.Total,
		CostAmount:    split.Cost,
		FreightAmount: split.Freight,
		ProfitAmount:  split.Profit,
		Loss:          split.IsLoss(),
		Warnings:      []string{},
	}

	shares := []share{
		{vault: s.targets.Cost, amount: split.Cost, side: ledger.SideCredit, result: &resp.CostMovementID},
		{vault: s.targets.Freight, amount: split.Freight, side: ledger.SideCredit, result: &resp.FreightMovementID},
		{vault: s.targets.Profit, amount: split.Profit, side: ledger.SideCredit, result: &resp.ProfitMovementID},
	}
	if split.IsLoss() {
		shares[2].amount = split.Profit.Abs()
		shares[2].side = ledger.SideDebit
		shares[2].warn = ledger.WarningLoss
		resp.Warnings = append(resp.Warnings, ledger.WarningLoss)
	}

	keys := []string{
		SaleLockKey(saleID),
		s.targets.Cost.LockKey(),
		s.targets.Freight.LockKey(),
		s.targets.Profit.LockKey(),
	}
	err = s.exec.mutate(ctx, OpDistributeSale, keys, func(ctx context.Context, repos Repositories) error {
		exists, err := repos.Movements().ExistsBySourceRef(ctx, sourceRef)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithDetail("sale %s has already been distributed", saleID)
		}

		vaults, err := loadVaultsForUpdate(ctx, repos, s.targets.Cost, s.targets.Freight, s.targets.Profit)
		if err != nil {
			return err
		}
		if profit := vaults[s.targets.Profit]; split.IsLoss() && profit.Balance.LessThan(split.Profit.Abs()) {
			return shared.ErrInsufficientFunds.WithDetail(
				"loss of %s exceeds profit vault %s balance %s", split.Profit.Abs(), profit.ID, profit.Balance)
		}

		at := s.exec.now()
		touched := make([]*ledger.Vault, 0, len(shares))
		movements := make([]*ledger.Movement, 0, len(shares))
		for _, sh := range shares {
			if sh.amount.IsZero() {
				continue
			}
			vault := vaults[sh.vault]
			m, err := vault.Post(ledger.Posting{
				Kind:          ledger.KindDistributionShare,
				Side:          sh.side,
				Amount:        sh.amount,
				Memo:          "sale distribution",
				CorrelationID: correlationID,
				SourceRef:     sourceRef,
				Warning:       sh.warn,
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
		return repos.Sales().Create(ctx, ledger.NewSale(saleID, req.Quantity, split, correlationID, at))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.exec.publish(ctx, ledger.NewSaleDistributedEvent(saleID, correlationID, split, s.exec.now()))
	return resp, nil
}
