package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
)

func TestMovementService_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.credit(t, "profit", "1.00")
	from := f.clock.Advance(time.Hour)
	f.credit(t, "profit", "2.00")
	f.credit(t, "leftie", "3.00")

	all, err := f.movements.List(ctx, appledger.MovementListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	profit, err := f.movements.List(ctx, appledger.MovementListFilter{VaultID: "profit"})
	require.NoError(t, err)
	assert.Len(t, profit, 2)

	recent, err := f.movements.List(ctx, appledger.MovementListFilter{From: from.Format(time.RFC3339)})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	limited, err := f.movements.List(ctx, appledger.MovementListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMovementService_ListRejectsBadFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name   string
		filter appledger.MovementListFilter
		want   error
	}{
		{"unknown vault", appledger.MovementListFilter{VaultID: "attic"}, shared.ErrInvalidVault},
		{"malformed time", appledger.MovementListFilter{From: "yesterday"}, shared.ErrInvalidInput},
		{"inverted range", appledger.MovementListFilter{From: "2026-02-01T00:00:00Z", To: "2026-01-01T00:00:00Z"}, shared.ErrInvalidInput},
		{"malformed correlation id", appledger.MovementListFilter{CorrelationID: "abc"}, shared.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.movements.List(ctx, tt.filter)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMovementService_Replay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.credit(t, "utilidades", "12.00")
	_, err := f.vaults.Debit(ctx, "utilidades", appledger.PostingRequest{Amount: money(t, "2.50")})
	require.NoError(t, err)

	replay, err := f.movements.Replay(ctx, "utilidades")
	require.NoError(t, err)
	assert.True(t, replay.Consistent)
	assert.Equal(t, money(t, "9.50"), replay.Balance)
	assert.Equal(t, replay.StoredBalance, replay.Balance)
	assert.Equal(t, int64(2), replay.StoredSequence)
	assert.Empty(t, replay.Issues)
}

func TestParseAsOf(t *testing.T) {
	got, err := appledger.ParseAsOf("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = appledger.ParseAsOf("2026-03-01T12:00:00+02:00")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), *got)

	_, err = appledger.ParseAsOf("03/01/2026")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
