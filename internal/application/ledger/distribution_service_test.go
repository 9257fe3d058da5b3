package ledger_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
)

func saleRequest(sale, cost, freight string, qty int64) appledger.DistributeSaleRequest {
	return appledger.DistributeSaleRequest{
		UnitSalePrice:   decimal.RequireFromString(sale),
		UnitCostPrice:   decimal.RequireFromString(cost),
		UnitFreightCost: decimal.RequireFromString(freight),
		Quantity:        qty,
	}
}

func TestDistributionService_DistributeSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	saleID := uuid.New()

	resp, err := f.distribution.DistributeSale(ctx, saleID, saleRequest("100", "60", "10", 10))
	require.NoError(t, err)

	assert.Equal(t, money(t, "1000.00"), resp.Total)
	assert.Equal(t, money(t, "600.00"), resp.CostAmount)
	assert.Equal(t, money(t, "100.00"), resp.FreightAmount)
	assert.Equal(t, money(t, "300.00"), resp.ProfitAmount)
	assert.False(t, resp.Loss)
	assert.Empty(t, resp.Warnings)
	require.NotNil(t, resp.CostMovementID)
	require.NotNil(t, resp.FreightMovementID)
	require.NotNil(t, resp.ProfitMovementID)

	assert.Equal(t, money(t, "600.00"), f.balance(t, "boveda_monte"))
	assert.Equal(t, money(t, "100.00"), f.balance(t, "flete_sur"))
	assert.Equal(t, money(t, "300.00"), f.balance(t, "utilidades"))

	shares, err := f.movements.List(ctx, appledger.MovementListFilter{SourceRef: ledger.SaleSourceRef(saleID)})
	require.NoError(t, err)
	require.Len(t, shares, 3)
	for _, m := range shares {
		assert.Equal(t, resp.CorrelationID, m.CorrelationID)
		assert.Equal(t, ledger.KindDistributionShare, m.Kind)
	}

	events := f.publisher.ofType(ledger.EventTypeSaleDistributed)
	require.Len(t, events, 1)
	assert.Equal(t, saleID, events[0].(*ledger.SaleDistributedEvent).SaleID)
	f.requireClean(t)
}

func TestDistributionService_SaleIsDistributedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	saleID := uuid.New()

	_, err := f.distribution.DistributeSale(ctx, saleID, saleRequest("20", "5", "1", 2))
	require.NoError(t, err)

	_, err = f.distribution.DistributeSale(ctx, saleID, saleRequest("20", "5", "1", 2))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	assert.Equal(t, money(t, "10.00"), f.balance(t, "boveda_monte"))
	assert.Equal(t, []string{"ok", "already_exists"}, f.observer.outcomes(appledger.OpDistributeSale))
}

func TestDistributionService_ZeroSharesPostNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp, err := f.distribution.DistributeSale(ctx, uuid.New(), saleRequest("50", "40", "0", 1))
	require.NoError(t, err)
	assert.NotNil(t, resp.CostMovementID)
	assert.Nil(t, resp.FreightMovementID)
	assert.NotNil(t, resp.ProfitMovementID)

	flete, err := f.movements.List(ctx, appledger.MovementListFilter{VaultID: "flete_sur"})
	require.NoError(t, err)
	assert.Empty(t, flete)
}

func TestDistributionService_BankersRounding(t *testing.T) {
	f := newFixture(t)

	resp, err := f.distribution.DistributeSale(context.Background(), uuid.New(), saleRequest("1", "0.335", "0.005", 3))
	require.NoError(t, err)

	// 1.005 rounds to even at 1.00 and 0.015 rounds up to 0.02
	assert.Equal(t, money(t, "3.00"), resp.Total)
	assert.Equal(t, money(t, "1.00"), resp.CostAmount)
	assert.Equal(t, money(t, "0.02"), resp.FreightAmount)
	assert.Equal(t, money(t, "1.98"), resp.ProfitAmount)
	assert.Equal(t, resp.Total, resp.CostAmount.Add(resp.FreightAmount).Add(resp.ProfitAmount))
}

func TestDistributionService_Loss(t *testing.T) {
	ctx := context.Background()

	t.Run("debits the profit vault and warns", func(t *testing.T) {
		f := newFixture(t)
		f.credit(t, "utilidades", "100.00")

		resp, err := f.distribution.DistributeSale(ctx, uuid.New(), saleRequest("50", "60", "10", 1))
		require.NoError(t, err)
		assert.True(t, resp.Loss)
		assert.Equal(t, []string{ledger.WarningLoss}, resp.Warnings)
		assert.Equal(t, money(t, "-20.00"), resp.ProfitAmount)

		assert.Equal(t, money(t, "80.00"), f.balance(t, "utilidades"))
		assert.Equal(t, money(t, "60.00"), f.balance(t, "boveda_monte"))

		profit, err := f.movements.List(ctx, appledger.MovementListFilter{VaultID: "utilidades"})
		require.NoError(t, err)
		require.Len(t, profit, 2)
		var debit appledger.MovementResponse
		for _, m := range profit {
			if m.Side == ledger.SideDebit {
				debit = m
			}
		}
		assert.Equal(t, ledger.WarningLoss, debit.Warning)
		assert.Equal(t, money(t, "20.00"), debit.Amount)
		f.requireClean(t)
	})

	t.Run("short profit vault rejects the whole sale", func(t *testing.T) {
		f := newFixture(t)

		f.credit(t, "utilidades", "5.00")

		_, err := f.distribution.DistributeSale(ctx, uuid.New(), saleRequest("50", "60", "10", 1))
		assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
		assert.EqualError(t, err, "loss of 20.00 exceeds profit vault utilidades balance 5.00")
		assert.Equal(t, money(t, "5.00"), f.balance(t, "utilidades"))
		assert.True(t, f.balance(t, "boveda_monte").IsZero())
		assert.True(t, f.balance(t, "flete_sur").IsZero())
	})
}

func TestDistributionService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.distribution.DistributeSale(ctx, uuid.Nil, saleRequest("1", "1", "0", 1))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.distribution.DistributeSale(ctx, uuid.New(), saleRequest("1", "1", "0", 0))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.distribution.DistributeSale(ctx, uuid.New(), saleRequest("1", "-1", "0", 1))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	bad := appledger.NewDistributionService(f.scope, nil, ledger.SplitTargets{Cost: "x", Freight: "flete_sur", Profit: "utilidades"}, appledger.Options{})
	_, err = bad.DistributeSale(ctx, uuid.New(), saleRequest("1", "1", "0", 1))
	assert.ErrorIs(t, err, shared.ErrInvalidVault)
}
