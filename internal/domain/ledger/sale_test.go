package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultledger/backend/internal/domain/shared"
)

func TestSplitPortion(t *testing.T) {
	split := Split{Total: money(1000), Cost: money(600), Freight: money(100), Profit: money(300)}

	tests := []struct {
		name string
		n    int64
		want Split
	}{
		{"nothing", 0, Split{}},
		{"one of three rounds each share", 1, Split{Total: money(333), Cost: money(200), Freight: money(33), Profit: money(100)}},
		{"two of three", 2, Split{Total: money(667), Cost: money(400), Freight: money(67), Profit: money(200)}},
		{"all units is the split itself", 3, split},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := split.Portion(tt.n, 3)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Total, got.Cost.Add(got.Freight).Add(got.Profit))
		})
	}

	t.Run("half a cent rounds to even", func(t *testing.T) {
		got := Split{Total: money(5), Cost: money(3), Profit: money(2)}.Portion(1, 2)
		assert.Equal(t, money(2), got.Total)
		assert.Equal(t, money(2), got.Cost)
		assert.Equal(t, money(0), got.Profit)
	})
}

func TestSaleReturn(t *testing.T) {
	newSale := func(split Split, qty int64) *Sale {
		return NewSale(uuid.New(), qty, split, uuid.New(), testNow)
	}

	t.Run("partial returns add up to the full split", func(t *testing.T) {
		split := Split{Total: money(1000), Cost: money(600), Freight: money(100), Profit: money(300)}
		sale := newSale(split, 3)

		first, err := sale.Return(1, testNow.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, Split{Total: money(333), Cost: money(200), Freight: money(33), Profit: money(100)}, first)
		assert.Equal(t, int64(2), sale.RemainingQuantity())
		assert.False(t, sale.IsFullyReturned())
		assert.Equal(t, testNow.Add(time.Hour), sale.UpdatedAt)

		rest, err := sale.Return(2, testNow.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, split.Total, first.Total.Add(rest.Total))
		assert.Equal(t, split.Cost, first.Cost.Add(rest.Cost))
		assert.Equal(t, split.Freight, first.Freight.Add(rest.Freight))
		assert.Equal(t, split.Profit, first.Profit.Add(rest.Profit))
		assert.True(t, sale.IsFullyReturned())
		assert.Equal(t, split, sale.Returned)
	})

	t.Run("loss shares come back negative", func(t *testing.T) {
		sale := newSale(Split{Total: money(5000), Cost: money(6000), Freight: money(1000), Profit: money(-2000)}, 2)

		reversal, err := sale.Return(1, testNow)
		require.NoError(t, err)
		assert.Equal(t, money(-1000), reversal.Profit)
		assert.Equal(t, money(3000), reversal.Cost)
	})

	t.Run("quantity beyond what is still sold is rejected", func(t *testing.T) {
		sale := newSale(Split{Total: money(100), Cost: money(100)}, 2)

		_, err := sale.Return(3, testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		_, err = sale.Return(0, testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Equal(t, int64(0), sale.ReturnedQuantity)

		_, err = sale.Return(2, testNow)
		require.NoError(t, err)
		_, err = sale.Return(1, testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}
