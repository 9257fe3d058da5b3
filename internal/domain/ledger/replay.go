package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
)

// Chain issue codes reported by Replay
const (
	IssueForeignMovement      = "FOREIGN_MOVEMENT"
	IssueSequenceGap          = "SEQUENCE_GAP"
	IssueBrokenChain          = "BROKEN_CHAIN"
	IssueHashMismatch         = "HASH_MISMATCH"
	IssueBalanceAfterMismatch = "BALANCE_AFTER_MISMATCH"
	IssueNegativeBalance      = "NEGATIVE_BALANCE"
	IssueInvalidMovement      = "INVALID_MOVEMENT"
)

// ChainIssue is one problem found while replaying a vault's movements
type ChainIssue struct {
	Code       string    `json:"code"`
	Sequence   int64     `json:"sequence"`
	MovementID uuid.UUID `json:"movement_id"`
	Detail     string    `json:"detail"`
}

// ReplayResult is the vault state reconstructed from its movements
type ReplayResult struct {
	VaultID        VaultID           `json:"vault_id"`
	MovementCount  int               `json:"movement_count"`
	Credits        valueobject.Money `json:"credits"`
	Debits         valueobject.Money `json:"debits"`
	Balance        valueobject.Money `json:"balance"`
	LastSequence   int64             `json:"last_sequence"`
	LastHash       string            `json:"last_hash"`
	LastOccurredAt *time.Time        `json:"last_occurred_at,omitempty"`
	Issues         []ChainIssue      `json:"issues"`
}

// IsClean reports whether the replay found no issues
func (r *ReplayResult) IsClean() bool {
	return len(r.Issues) == 0
}

// Replay folds a vault's movements in sequence order, starting from an empty
// vault, and checks sequence contiguity, the hash chain and each recorded
// balance-after.
func Replay(vaultID VaultID, movements []Movement) ReplayResult {
	ordered := make([]Movement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	r := ReplayResult{VaultID: vaultID, Issues: []ChainIssue{}}
	prevHash := ""
	var prevSeq int64

	for i := range ordered {
		m := &ordered[i]
		issue := func(code, format string, args ...any) {
			r.Issues = append(r.Issues, ChainIssue{
				Code:       code,
				Sequence:   m.Sequence,
				MovementID: m.ID,
				Detail:     fmt.Sprintf(format, args...),
			})
		}

		if m.VaultID != vaultID {
			issue(IssueForeignMovement, "movement belongs to vault %s", m.VaultID)
			continue
		}
		if !m.Kind.AllowsSide(m.Side) || !m.Amount.IsPositive() {
			issue(IssueInvalidMovement, "kind %s side %s amount %s", m.Kind, m.Side, m.Amount)
		}
		if m.Sequence != prevSeq+1 {
			issue(IssueSequenceGap, "expected sequence %d, found %d", prevSeq+1, m.Sequence)
		}
		if m.PrevHash != prevHash {
			issue(IssueBrokenChain, "previous hash does not match movement %d", prevSeq)
		}
		if !m.VerifyHash() {
			issue(IssueHashMismatch, "stored hash does not match movement content")
		}

		if m.IsCredit() {
			r.Credits = r.Credits.Add(m.Amount)
		} else {
			r.Debits = r.Debits.Add(m.Amount)
		}
		r.Balance = r.Credits.Subtract(r.Debits)

		if m.BalanceAfter != r.Balance {
			issue(IssueBalanceAfterMismatch, "recorded %s, replayed %s", m.BalanceAfter, r.Balance)
		}
		if r.Balance.IsNegative() {
			issue(IssueNegativeBalance, "balance replayed to %s", r.Balance)
		}

		prevSeq = m.Sequence
		prevHash = m.Hash
		occurred := m.OccurredAt
		r.LastOccurredAt = &occurred
		r.MovementCount++
	}

	r.LastSequence = prevSeq
	r.LastHash = prevHash
	return r
}
