package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postAll(t *testing.T, v *Vault, postings ...Posting) []Movement {
	t.Helper()
	out := make([]Movement, 0, len(postings))
	for i, p := range postings {
		m, err := v.Post(p, testNow.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		out = append(out, *m)
	}
	return out
}

func sampleHistory(t *testing.T) (*Vault, []Movement) {
	v := newTestVault(t, VaultBovedaUSA)
	ms := postAll(t, v,
		Posting{Kind: KindCredit, Side: SideCredit, Amount: money(10000)},
		Posting{Kind: KindTransferOut, Side: SideDebit, Amount: money(2500), CounterpartyVault: VaultAzteca},
		Posting{Kind: KindPayment, Side: SideCredit, Amount: money(700)},
		Posting{Kind: KindDistributionShare, Side: SideDebit, Amount: money(200), Warning: WarningLoss},
	)
	return v, ms
}

func TestReplayCleanHistory(t *testing.T) {
	v, ms := sampleHistory(t)

	r := Replay(v.ID, ms)

	assert.True(t, r.IsClean(), "issues: %+v", r.Issues)
	assert.Equal(t, 4, r.MovementCount)
	assert.Equal(t, v.Balance, r.Balance)
	assert.Equal(t, v.CumulativeCredits, r.Credits)
	assert.Equal(t, v.CumulativeDebits, r.Debits)
	assert.Equal(t, v.LastSequence, r.LastSequence)
	assert.Equal(t, v.LastHash, r.LastHash)
	require.NotNil(t, r.LastOccurredAt)
	assert.Equal(t, ms[3].OccurredAt, *r.LastOccurredAt)
}

func TestReplayOrdersBySequence(t *testing.T) {
	v, ms := sampleHistory(t)
	shuffled := []Movement{ms[2], ms[0], ms[3], ms[1]}

	r := Replay(v.ID, shuffled)
	assert.True(t, r.IsClean())
	assert.Equal(t, v.Balance, r.Balance)
}

func TestReplayEmpty(t *testing.T) {
	r := Replay(VaultLeftie, nil)
	assert.True(t, r.IsClean())
	assert.Zero(t, r.Balance)
	assert.Nil(t, r.LastOccurredAt)
}

func issueCodes(r ReplayResult) []string {
	codes := make([]string, 0, len(r.Issues))
	for _, i := range r.Issues {
		codes = append(codes, i.Code)
	}
	return codes
}

func TestReplayDetectsTampering(t *testing.T) {
	t.Run("edited amount", func(t *testing.T) {
		v, ms := sampleHistory(t)
		ms[1].Amount = money(25)

		r := Replay(v.ID, ms)
		assert.Contains(t, issueCodes(r), IssueHashMismatch)
		assert.Contains(t, issueCodes(r), IssueBalanceAfterMismatch)
	})

	t.Run("rehashed edit breaks the chain", func(t *testing.T) {
		v, ms := sampleHistory(t)
		ms[1].Memo = "rewritten"
		ms[1].Hash = ms[1].ComputeHash()

		r := Replay(v.ID, ms)
		assert.Contains(t, issueCodes(r), IssueBrokenChain)
		assert.NotContains(t, issueCodes(r), IssueHashMismatch)
	})

	t.Run("deleted movement leaves a gap", func(t *testing.T) {
		v, ms := sampleHistory(t)
		ms = append(ms[:1], ms[2:]...)

		r := Replay(v.ID, ms)
		assert.Contains(t, issueCodes(r), IssueSequenceGap)
	})

	t.Run("foreign movement", func(t *testing.T) {
		v, ms := sampleHistory(t)
		ms[0].VaultID = VaultProfit

		r := Replay(v.ID, ms)
		assert.Contains(t, issueCodes(r), IssueForeignMovement)
	})

	t.Run("invalid kind and side", func(t *testing.T) {
		v, ms := sampleHistory(t)
		ms[0].Side = SideDebit
		ms[0].Hash = ms[0].ComputeHash()

		r := Replay(v.ID, ms)
		assert.Contains(t, issueCodes(r), IssueInvalidMovement)
		assert.Contains(t, issueCodes(r), IssueNegativeBalance)
	})
}
