package partner

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

var testNow = time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

func TestNewParty(t *testing.T) {
	t.Run("generates an id when none is given", func(t *testing.T) {
		p, err := NewParty(uuid.Nil, PartyKindClient, "  Ferretería Luna ", testNow)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.Equal(t, "Ferretería Luna", p.Name)
		assert.Equal(t, 1, p.Version)
		assert.True(t, p.OutstandingBalance.IsZero())
	})

	t.Run("keeps the supplied id", func(t *testing.T) {
		id := uuid.New()
		p, err := NewParty(id, PartyKindDistributor, "Norte", testNow)
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, "party:"+id.String(), LockKey(p.ID))
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewParty(uuid.Nil, PartyKind("vendor"), "X", testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = NewParty(uuid.Nil, PartyKindClient, "   ", testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = NewParty(uuid.Nil, PartyKindClient, strings.Repeat("a", 201), testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestPartyDebtLifecycle(t *testing.T) {
	p, err := NewParty(uuid.Nil, PartyKindDistributor, "Norte", testNow)
	require.NoError(t, err)

	require.NoError(t, p.AddDebt(valueobject.NewMoneyFromMinor(500000), testNow))
	require.NoError(t, p.AddDebt(valueobject.NewMoneyFromMinor(20000), testNow))
	assert.Equal(t, valueobject.NewMoneyFromMinor(520000), p.OutstandingBalance)
	assert.True(t, p.HasDebt())

	require.NoError(t, p.ApplyPayment(valueobject.NewMoneyFromMinor(500000), testNow.Add(time.Hour)))
	assert.Equal(t, valueobject.NewMoneyFromMinor(20000), p.OutstandingBalance)
	assert.Equal(t, valueobject.NewMoneyFromMinor(500000), p.TotalPaid)
	assert.Equal(t, 1, p.PaymentCount)
	assert.Equal(t, testNow.Add(time.Hour), p.UpdatedAt)

	t.Run("underflow is rejected", func(t *testing.T) {
		err := p.ApplyPayment(valueobject.NewMoneyFromMinor(20001), testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, valueobject.NewMoneyFromMinor(20000), p.OutstandingBalance)
		assert.Equal(t, 1, p.PaymentCount)
	})

	t.Run("returned goods reduce debt without counting as payment", func(t *testing.T) {
		require.NoError(t, p.ReduceDebt(valueobject.NewMoneyFromMinor(5000), testNow.Add(2*time.Hour)))
		assert.Equal(t, valueobject.NewMoneyFromMinor(15000), p.OutstandingBalance)
		assert.Equal(t, valueobject.NewMoneyFromMinor(500000), p.TotalPaid)
		assert.Equal(t, 1, p.PaymentCount)
		assert.Equal(t, testNow.Add(2*time.Hour), p.UpdatedAt)

		err := p.ReduceDebt(valueobject.NewMoneyFromMinor(15001), testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, valueobject.NewMoneyFromMinor(15000), p.OutstandingBalance)
	})

	t.Run("non-positive amounts are invalid", func(t *testing.T) {
		assert.ErrorIs(t, p.ReduceDebt(valueobject.Zero(), testNow), shared.ErrInvalidInput)
		assert.ErrorIs(t, p.AddDebt(valueobject.Zero(), testNow), shared.ErrInvalidInput)
		assert.ErrorIs(t, p.ApplyPayment(valueobject.NewMoneyFromMinor(-1), testNow), shared.ErrInvalidInput)
	})
}
