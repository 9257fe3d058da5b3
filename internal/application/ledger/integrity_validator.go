package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/partner"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
	"github.com/vaultledger/backend/internal/domain/trade"
	"github.com/vaultledger/backend/internal/infrastructure/telemetry"
)

// Violation scopes
const (
	ScopeVault = "vault"
	ScopeParty = "party"
	ScopeOrder = "order"
)

// Violation codes beyond the chain issues reported by ledger.Replay
const (
	ViolationVaultMissing         = "VAULT_MISSING"
	ViolationBalanceMismatch      = "BALANCE_MISMATCH"
	ViolationCreditsMismatch      = "CREDITS_MISMATCH"
	ViolationDebitsMismatch       = "DEBITS_MISMATCH"
	ViolationSequenceMismatch     = "SEQUENCE_MISMATCH"
	ViolationHeadHashMismatch     = "HEAD_HASH_MISMATCH"
	ViolationDebtMismatch         = "DEBT_MISMATCH"
	ViolationTotalPaidMismatch    = "TOTAL_PAID_MISMATCH"
	ViolationPaymentCountMismatch = "PAYMENT_COUNT_MISMATCH"
	ViolationOrderInconsistent    = "ORDER_INCONSISTENT"
	ViolationOrderPaidMismatch    = "ORDER_PAID_MISMATCH"
	ViolationOrphanOrder          = "ORPHAN_ORDER"
	ViolationOrphanPayment        = "ORPHAN_PAYMENT"
	ViolationPartyMismatch        = "PAYMENT_PARTY_MISMATCH"
)

// IntegrityViolation is one divergence between stored state and the ledger
type IntegrityViolation struct {
	Scope   string `json:"scope"`
	Subject string `json:"subject"`
	Code    string `json:"code"`
	Detail  string `json:"detail"`
}

// VaultIntegrityReport compares a vault with its replayed movements
type VaultIntegrityReport struct {
	VaultID         ledger.VaultID       `json:"vault_id"`
	ExpectedBalance valueobject.Money    `json:"expected_balance"`
	StoredBalance   valueobject.Money    `json:"stored_balance"`
	Credits         valueobject.Money    `json:"credits"`
	Debits          valueobject.Money    `json:"debits"`
	MovementCount   int                  `json:"movement_count"`
	Consistent      bool                 `json:"consistent"`
	Violations      []IntegrityViolation `json:"violations"`
}

// DebtIntegrityReport compares a party's aggregate with its orders and payments
type DebtIntegrityReport struct {
	PartyID              uuid.UUID            `json:"party_id"`
	Kind                 partner.PartyKind    `json:"kind"`
	Name                 string               `json:"name"`
	ExpectedDebt         valueobject.Money    `json:"expected_debt"`
	StoredOutstanding    valueobject.Money    `json:"stored_outstanding"`
	ExpectedPaid         valueobject.Money    `json:"expected_paid"`
	StoredPaid           valueobject.Money    `json:"stored_paid"`
	ExpectedPaymentCount int                  `json:"expected_payment_count"`
	StoredPaymentCount   int                  `json:"stored_payment_count"`
	OrderCount           int                  `json:"order_count"`
	Skewed               bool                 `json:"skewed"`
	Consistent           bool                 `json:"consistent"`
	Violations           []IntegrityViolation `json:"violations"`
}

// IntegrityReport is the outcome of one validation run
type IntegrityReport struct {
	AsOf           time.Time              `json:"as_of"`
	GeneratedAt    time.Time              `json:"generated_at"`
	VaultReports   []VaultIntegrityReport `json:"vault_reports"`
	DebtReports    []DebtIntegrityReport  `json:"debt_reports"`
	Violations     []IntegrityViolation   `json:"violations"`
	ViolationCount int                    `json:"violation_count"`
}

// Err returns ErrIntegrityViolation when the report found divergence
func (r *IntegrityReport) Err() error {
	if r.ViolationCount == 0 {
		return nil
	}
	return shared.ErrIntegrityViolation.WithDetail("%d integrity violations as of %s", r.ViolationCount, r.AsOf.Format(time.RFC3339))
}

// IntegrityValidator recomputes balances and debts from the ledger and
// reports divergence. It never corrects anything.
type IntegrityValidator struct {
	exec *executor
}

// NewIntegrityValidator creates a new IntegrityValidator
func NewIntegrityValidator(scope TransactionScope, opts Options) *IntegrityValidator {
	return &IntegrityValidator{exec: newExecutor(scope, nil, opts)}
}

// Validate checks every vault and party as of the given time, in one
// read-only snapshot. Movements after asOf are left out. A vault with no
// movement after asOf is compared against its current row; otherwise against
// the balance recorded by its last movement at or before asOf. Parties with
// activity after asOf are reported as skewed instead of compared.
func (v *IntegrityValidator) Validate(ctx context.Context, asOf *time.Time) (*IntegrityReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "integrity", "validate")
	defer span.End()

	generatedAt := v.exec.now()
	cutoff := generatedAt
	historical := false
	if asOf != nil && asOf.Before(generatedAt) {
		cutoff = asOf.UTC()
		historical = true
	}
	report := &IntegrityReport{
		AsOf:         cutoff,
		GeneratedAt:  generatedAt,
		VaultReports: []VaultIntegrityReport{},
		DebtReports:  []DebtIntegrityReport{},
		Violations:   []IntegrityViolation{},
	}

	err := v.exec.view(ctx, OpValidate, func(ctx context.Context, repos Repositories) error {
		if err := v.checkVaults(ctx, repos, report, historical); err != nil {
			return err
		}
		return v.checkDebts(ctx, repos, report, historical)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	for i := range report.VaultReports {
		report.Violations = append(report.Violations, report.VaultReports[i].Violations...)
	}
	for i := range report.DebtReports {
		report.Violations = append(report.Violations, report.DebtReports[i].Violations...)
	}
	report.ViolationCount = len(report.Violations)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrAsOf, report.AsOf.Format(time.RFC3339),
		telemetry.SpanAttrViolationCount, report.ViolationCount,
	)
	v.exec.observer.ObserveIntegrity(report.ViolationCount)
	return report, nil
}

func (v *IntegrityValidator) checkVaults(ctx context.Context, repos Repositories, report *IntegrityReport, historical bool) error {
	stored, err := repos.Vaults().FindAll(ctx)
	if err != nil {
		return err
	}
	byID := make(map[ledger.VaultID]*ledger.Vault, len(stored))
	for i := range stored {
		byID[stored[i].ID] = &stored[i]
	}

	for _, id := range ledger.AllVaultIDs() {
		vr := VaultIntegrityReport{VaultID: id, Violations: []IntegrityViolation{}}
		flag := func(code, format string, args ...any) {
			vr.Violations = append(vr.Violations, IntegrityViolation{
				Scope:   ScopeVault,
				Subject: id.String(),
				Code:    code,
				Detail:  fmt.Sprintf(format, args...),
			})
		}

		vault, ok := byID[id]
		if !ok {
			flag(ViolationVaultMissing, "vault row is missing")
			report.VaultReports = append(report.VaultReports, vr)
			continue
		}

		movements, err := repos.Movements().FindByVault(ctx, id)
		if err != nil {
			return err
		}
		// The live row is only comparable while nothing was posted after asOf
		live := true
		if historical {
			upTo := make([]ledger.Movement, 0, len(movements))
			for i := range movements {
				if !movements[i].OccurredAt.After(report.AsOf) {
					upTo = append(upTo, movements[i])
				}
			}
			live = len(upTo) == len(movements)
			movements = upTo
		}

		replay := ledger.Replay(id, movements)
		for _, issue := range replay.Issues {
			flag(issue.Code, "sequence %d: %s", issue.Sequence, issue.Detail)
		}
		vr.ExpectedBalance = replay.Balance
		vr.Credits = replay.Credits
		vr.Debits = replay.Debits
		vr.MovementCount = replay.MovementCount

		if live {
			vr.StoredBalance = vault.Balance
			if vault.CumulativeCredits != replay.Credits {
				flag(ViolationCreditsMismatch, "stored %s, ledger %s", vault.CumulativeCredits, replay.Credits)
			}
			if vault.CumulativeDebits != replay.Debits {
				flag(ViolationDebitsMismatch, "stored %s, ledger %s", vault.CumulativeDebits, replay.Debits)
			}
			if vault.LastSequence != replay.LastSequence {
				flag(ViolationSequenceMismatch, "stored %d, ledger %d", vault.LastSequence, replay.LastSequence)
			}
			if vault.LastHash != replay.LastHash {
				flag(ViolationHeadHashMismatch, "stored head hash does not match the last movement")
			}
		} else if len(movements) > 0 {
			vr.StoredBalance = lastBySequence(movements).BalanceAfter
		}
		if vr.StoredBalance != vr.ExpectedBalance {
			flag(ViolationBalanceMismatch, "stored %s, ledger %s", vr.StoredBalance, vr.ExpectedBalance)
		}

		vr.Consistent = len(vr.Violations) == 0
		report.VaultReports = append(report.VaultReports, vr)
	}
	return nil
}

func lastBySequence(movements []ledger.Movement) *ledger.Movement {
	last := &movements[0]
	for i := range movements {
		if movements[i].Sequence > last.Sequence {
			last = &movements[i]
		}
	}
	return last
}

func (v *IntegrityValidator) checkDebts(ctx context.Context, repos Repositories, report *IntegrityReport, historical bool) error {
	parties, err := repos.Parties().FindAll(ctx)
	if err != nil {
		return err
	}
	orders, err := repos.Orders().FindAll(ctx)
	if err != nil {
		return err
	}
	apps, err := repos.Payments().FindAll(ctx)
	if err != nil {
		return err
	}
	asOf := report.AsOf
	after := func(t time.Time) bool { return historical && t.After(asOf) }

	ordersByID := make(map[uuid.UUID]*trade.Order, len(orders))
	ordersByParty := make(map[uuid.UUID][]*trade.Order)
	for i := range orders {
		o := &orders[i]
		ordersByID[o.ID] = o
		ordersByParty[o.PartyID] = append(ordersByParty[o.PartyID], o)
	}
	appsByOrder := make(map[uuid.UUID][]*trade.PaymentApplication)
	for i := range apps {
		a := &apps[i]
		appsByOrder[a.OrderID] = append(appsByOrder[a.OrderID], a)
	}
	knownParties := make(map[uuid.UUID]bool, len(parties))
	for i := range parties {
		knownParties[parties[i].ID] = true
	}

	// Rows that reference nothing are reported once, outside any party
	var orphans []IntegrityViolation
	for i := range orders {
		o := &orders[i]
		if !knownParties[o.PartyID] && !after(o.CreatedAt) {
			orphans = append(orphans, IntegrityViolation{
				Scope: ScopeOrder, Subject: o.ID.String(), Code: ViolationOrphanOrder,
				Detail: fmt.Sprintf("party %s does not exist", o.PartyID),
			})
		}
	}
	for i := range apps {
		a := &apps[i]
		if _, ok := ordersByID[a.OrderID]; !ok && !after(a.AppliedAt) {
			orphans = append(orphans, IntegrityViolation{
				Scope: ScopeOrder, Subject: a.OrderID.String(), Code: ViolationOrphanPayment,
				Detail: fmt.Sprintf("payment application %s references a missing order", a.ID),
			})
		}
	}

	sort.Slice(parties, func(i, j int) bool { return parties[i].ID.String() < parties[j].ID.String() })
	for i := range parties {
		p := &parties[i]
		if after(p.CreatedAt) {
			continue
		}
		dr := DebtIntegrityReport{
			PartyID:            p.ID,
			Kind:               p.Kind,
			Name:               p.Name,
			StoredOutstanding:  p.OutstandingBalance,
			StoredPaid:         p.TotalPaid,
			StoredPaymentCount: p.PaymentCount,
			OrderCount:         len(ordersByParty[p.ID]),
			Violations:         []IntegrityViolation{},
		}
		partyOrders := ordersByParty[p.ID]

		if after(p.UpdatedAt) || hasLaterActivity(partyOrders, appsByOrder, after) {
			dr.Skewed = true
			dr.Consistent = true
			report.DebtReports = append(report.DebtReports, dr)
			continue
		}

		flag := func(scope, subject, code, format string, args ...any) {
			dr.Violations = append(dr.Violations, IntegrityViolation{
				Scope:   scope,
				Subject: subject,
				Code:    code,
				Detail:  fmt.Sprintf(format, args...),
			})
		}

		var totals, paid valueobject.Money
		count := 0
		for _, o := range partyOrders {
			totals = totals.Add(o.TotalAmount)
			var orderPaid valueobject.Money
			for _, a := range appsByOrder[o.ID] {
				orderPaid = orderPaid.Add(a.EffectiveAmount)
				count++
				if a.PartyID != o.PartyID {
					flag(ScopeOrder, o.ID.String(), ViolationPartyMismatch,
						"payment application %s is recorded for party %s", a.ID, a.PartyID)
				}
			}
			paid = paid.Add(orderPaid)

			if !o.IsConsistent() {
				flag(ScopeOrder, o.ID.String(), ViolationOrderInconsistent,
					"total %s paid %s remaining %s state %s", o.TotalAmount, o.AmountPaid, o.AmountRemaining, o.PaymentState)
			}
			if o.AmountPaid != orderPaid {
				flag(ScopeOrder, o.ID.String(), ViolationOrderPaidMismatch,
					"stored paid %s, applications sum to %s", o.AmountPaid, orderPaid)
			}
		}

		dr.ExpectedDebt = totals.Subtract(paid)
		dr.ExpectedPaid = paid
		dr.ExpectedPaymentCount = count
		if dr.ExpectedDebt != p.OutstandingBalance {
			flag(ScopeParty, p.ID.String(), ViolationDebtMismatch,
				"stored outstanding %s, expected %s", p.OutstandingBalance, dr.ExpectedDebt)
		}
		if paid != p.TotalPaid {
			flag(ScopeParty, p.ID.String(), ViolationTotalPaidMismatch,
				"stored total paid %s, expected %s", p.TotalPaid, paid)
		}
		if count != p.PaymentCount {
			flag(ScopeParty, p.ID.String(), ViolationPaymentCountMismatch,
				"stored payment count %d, expected %d", p.PaymentCount, count)
		}

		dr.Consistent = len(dr.Violations) == 0
		report.DebtReports = append(report.DebtReports, dr)
	}

	report.Violations = append(report.Violations, orphans...)
	return nil
}

func hasLaterActivity(orders []*trade.Order, appsByOrder map[uuid.UUID][]*trade.PaymentApplication, after func(time.Time) bool) bool {
	for _, o := range orders {
		if after(o.CreatedAt) || after(o.UpdatedAt) {
			return true
		}
		for _, a := range appsByOrder[o.ID] {
			if after(a.AppliedAt) {
				return true
			}
		}
	}
	return false
}
