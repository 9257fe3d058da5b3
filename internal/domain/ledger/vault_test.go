package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func money(minor int64) valueobject.Money {
	return valueobject.NewMoneyFromMinor(minor)
}

func newTestVault(t *testing.T, id VaultID) *Vault {
	t.Helper()
	v, err := NewVault(id, testNow)
	require.NoError(t, err)
	return v
}

func TestParseVaultID(t *testing.T) {
	t.Run("accepts every fixed vault", func(t *testing.T) {
		for _, id := range AllVaultIDs() {
			parsed, err := ParseVaultID(string(id))
			require.NoError(t, err)
			assert.Equal(t, id, parsed)
			assert.NotEmpty(t, parsed.Name())
		}
	})

	t.Run("normalises case and whitespace", func(t *testing.T) {
		parsed, err := ParseVaultID("  Boveda_Monte ")
		require.NoError(t, err)
		assert.Equal(t, VaultBovedaMonte, parsed)
	})

	t.Run("rejects unknown vault", func(t *testing.T) {
		_, err := ParseVaultID("piggy_bank")
		assert.ErrorIs(t, err, shared.ErrInvalidVault)
	})

	t.Run("lock order is sorted", func(t *testing.T) {
		ids := AllVaultIDs()
		require.Len(t, ids, 7)
		for i := 1; i < len(ids); i++ {
			assert.Less(t, ids[i-1].LockKey(), ids[i].LockKey())
		}
	})
}

func TestVaultPost(t *testing.T) {
	t.Run("credit assigns sequence and hash", func(t *testing.T) {
		v := newTestVault(t, VaultAzteca)
		corr := uuid.New()

		m, err := v.Post(Posting{Kind: KindCredit, Side: SideCredit, Amount: money(5000), Memo: "opening", CorrelationID: corr}, testNow)
		require.NoError(t, err)

		assert.Equal(t, int64(1), m.Sequence)
		assert.Equal(t, money(5000), m.BalanceAfter)
		assert.Equal(t, corr, m.CorrelationID)
		assert.Empty(t, m.PrevHash)
		assert.True(t, m.VerifyHash())
		assert.Equal(t, money(5000), v.Balance)
		assert.Equal(t, money(5000), v.CumulativeCredits)
		assert.Equal(t, m.Hash, v.LastHash)
		assert.True(t, v.IsConsistent())
	})

	t.Run("debit chains to previous movement", func(t *testing.T) {
		v := newTestVault(t, VaultAzteca)
		first, err := v.Post(Posting{Kind: KindCredit, Side: SideCredit, Amount: money(5000)}, testNow)
		require.NoError(t, err)

		second, err := v.Post(Posting{Kind: KindDebit, Side: SideDebit, Amount: money(1200)}, testNow.Add(time.Second))
		require.NoError(t, err)

		assert.Equal(t, int64(2), second.Sequence)
		assert.Equal(t, first.Hash, second.PrevHash)
		assert.Equal(t, money(3800), second.BalanceAfter)
		assert.Equal(t, money(1200), v.CumulativeDebits)
		assert.True(t, v.IsConsistent())
	})

	t.Run("debit beyond balance is rejected without side effects", func(t *testing.T) {
		v := newTestVault(t, VaultBovedaMonte)
		_, err := v.Post(Posting{Kind: KindCredit, Side: SideCredit, Amount: money(500)}, testNow)
		require.NoError(t, err)
		before := *v

		_, err = v.Post(Posting{Kind: KindDebit, Side: SideDebit, Amount: money(1000)}, testNow)
		assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
		assert.Equal(t, before, *v)
	})

	t.Run("non-positive amount is invalid", func(t *testing.T) {
		v := newTestVault(t, VaultLeftie)
		_, err := v.Post(Posting{Kind: KindCredit, Side: SideCredit, Amount: money(0)}, testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = v.Post(Posting{Kind: KindCredit, Side: SideCredit, Amount: money(-10)}, testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("kind and side must agree", func(t *testing.T) {
		v := newTestVault(t, VaultLeftie)
		_, err := v.Post(Posting{Kind: KindTransferIn, Side: SideDebit, Amount: money(10)}, testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = v.Post(Posting{Kind: MovementKind("refund"), Side: SideCredit, Amount: money(10)}, testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("timestamps are truncated to microseconds in UTC", func(t *testing.T) {
		v := newTestVault(t, VaultLeftie)
		at := time.Date(2026, 1, 1, 12, 0, 0, 123456789, time.FixedZone("CST", -6*3600))
		m, err := v.Post(Posting{Kind: KindCredit, Side: SideCredit, Amount: money(1)}, at)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, m.OccurredAt.Location())
		assert.Equal(t, 123456000, m.OccurredAt.Nanosecond())
	})
}

func TestMovementKindAllowsSide(t *testing.T) {
	tests := []struct {
		kind   MovementKind
		credit bool
		debit  bool
	}{
		{KindCredit, true, false},
		{KindDebit, false, true},
		{KindTransferIn, true, false},
		{KindTransferOut, false, true},
		{KindDistributionShare, true, true},
		{KindPayment, true, true},
		{MovementKind("unknown"), false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.credit, tt.kind.AllowsSide(SideCredit))
			assert.Equal(t, tt.debit, tt.kind.AllowsSide(SideDebit))
		})
	}
}

func TestMovementHashCoversContent(t *testing.T) {
	v := newTestVault(t, VaultProfit)
	m, err := v.Post(Posting{Kind: KindCredit, Side: SideCredit, Amount: money(100), Memo: "a"}, testNow)
	require.NoError(t, err)

	tampered := *m
	tampered.Amount = money(1000)
	assert.False(t, tampered.VerifyHash())

	tampered = *m
	tampered.Memo = "b"
	assert.False(t, tampered.VerifyHash())
}
