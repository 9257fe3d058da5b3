package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/partner"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
	"github.com/vaultledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const maxLoggedViolations = 10

// Overdue debt severities
const (
	DebtAlertWarning  = "warning"
	DebtAlertCritical = "critical"
)

// CashCutResponse is a persisted integrity report
type CashCutResponse struct {
	ID             uuid.UUID       `json:"id"`
	AsOf           time.Time       `json:"as_of"`
	GeneratedAt    time.Time       `json:"generated_at"`
	ViolationCount int             `json:"violation_count"`
	Report         IntegrityReport `json:"report"`
	OverdueDebts   []OverdueDebt   `json:"overdue_debts,omitempty"`
}

// OverdueDebt is a client that still owes money and has had no sale or payment for a while
type OverdueDebt struct {
	PartyID      uuid.UUID         `json:"party_id"`
	Name         string            `json:"name"`
	Outstanding  valueobject.Money `json:"outstanding"`
	LastActivity time.Time         `json:"last_activity"`
	DaysInactive int               `json:"days_inactive"`
	Severity     string            `json:"severity"`
}

// CashCutService runs the integrity validator and keeps the resulting reports
type CashCutService struct {
	exec         *executor
	validator    *IntegrityValidator
	overdueAfter time.Duration
}

// CashCutOption configures a CashCutService
type CashCutOption func(*CashCutService)

// WithOverdueDebtAlert flags clients in debt with no activity for longer than
// after. Twice that is critical. Zero disables the alert.
func WithOverdueDebtAlert(after time.Duration) CashCutOption {
	return func(s *CashCutService) {
		s.overdueAfter = after
	}
}

// NewCashCutService creates a new CashCutService
func NewCashCutService(scope TransactionScope, validator *IntegrityValidator, opts Options, options ...CashCutOption) *CashCutService {
	s := &CashCutService{
		exec:      newExecutor(scope, nil, opts),
		validator: validator,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Run validates the ledger as of the given time and stores the report.
// Violations are logged and announced; nothing is corrected.
func (s *CashCutService) Run(ctx context.Context, asOf *time.Time) (*CashCutResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash_cut", "run")
	defer span.End()
	start := time.Now()

	resp, err := s.run(ctx, asOf)
	s.exec.observer.ObserveOperation(OpCashCut, Outcome(err), time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

func (s *CashCutService) run(ctx context.Context, asOf *time.Time) (*CashCutResponse, error) {
	report, err := s.validator.Validate(ctx, asOf)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode integrity report: %w", err)
	}

	cut := &ledger.CashCut{
		ID:             uuid.New(),
		AsOf:           report.AsOf,
		GeneratedAt:    report.GeneratedAt,
		VaultCount:     len(report.VaultReports),
		PartyCount:     len(report.DebtReports),
		ViolationCount: report.ViolationCount,
		Report:         payload,
	}
	err = s.exec.scope.Execute(context.WithoutCancel(ctx), func(repos Repositories) error {
		return repos.CashCuts().Create(context.WithoutCancel(ctx), cut)
	})
	if err != nil {
		return nil, err
	}

	if !cut.IsClean() {
		sample := report.Violations
		if len(sample) > maxLoggedViolations {
			sample = sample[:maxLoggedViolations]
		}
		s.exec.log(ctx).Error("integrity violations detected",
			zap.String("cash_cut_id", cut.ID.String()),
			zap.Time("as_of", cut.AsOf),
			zap.Int("violation_count", cut.ViolationCount),
			zap.Any("violations", sample),
			zap.Error(report.Err()),
		)
		s.exec.publish(ctx, ledger.NewIntegrityViolationDetectedEvent(cut.ID, cut.AsOf, cut.ViolationCount, s.exec.now()))
	} else {
		s.exec.log(ctx).Info("cash cut clean",
			zap.String("cash_cut_id", cut.ID.String()),
			zap.Time("as_of", cut.AsOf),
		)
	}

	overdue, err := s.overdueDebts(ctx)
	if err != nil {
		return nil, err
	}

	return &CashCutResponse{
		ID:             cut.ID,
		AsOf:           cut.AsOf,
		GeneratedAt:    cut.GeneratedAt,
		ViolationCount: cut.ViolationCount,
		Report:         *report,
		OverdueDebts:   overdue,
	}, nil
}

func (s *CashCutService) overdueDebts(ctx context.Context) ([]OverdueDebt, error) {
	if s.overdueAfter <= 0 {
		return nil, nil
	}
	var parties []partner.Party
	err := s.exec.view(ctx, "", func(ctx context.Context, repos Repositories) error {
		var err error
		parties, err = repos.Parties().FindAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	now := s.exec.now()
	var overdue []OverdueDebt
	for _, p := range parties {
		if p.Kind != partner.PartyKindClient || !p.OutstandingBalance.IsPositive() {
			continue
		}
		inactive := now.Sub(p.UpdatedAt)
		if inactive <= s.overdueAfter {
			continue
		}
		severity := DebtAlertWarning
		if inactive > 2*s.overdueAfter {
			severity = DebtAlertCritical
		}
		d := OverdueDebt{
			PartyID:      p.ID,
			Name:         p.Name,
			Outstanding:  p.OutstandingBalance,
			LastActivity: p.UpdatedAt,
			DaysInactive: int(inactive / (24 * time.Hour)),
			Severity:     severity,
		}
		overdue = append(overdue, d)
		s.exec.log(ctx).Warn("client debt overdue",
			zap.String("party_id", d.PartyID.String()),
			zap.String("name", d.Name),
			zap.String("outstanding", d.Outstanding.String()),
			zap.Int("days_inactive", d.DaysInactive),
			zap.String("severity", d.Severity),
		)
	}
	return overdue, nil
}

// Latest returns the most recent cash-cut report
func (s *CashCutService) Latest(ctx context.Context) (*CashCutResponse, error) {
	var cut *ledger.CashCut
	err := s.exec.view(ctx, "", func(ctx context.Context, repos Repositories) error {
		var err error
		cut, err = repos.CashCuts().FindLatest(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := &CashCutResponse{
		ID:             cut.ID,
		AsOf:           cut.AsOf,
		GeneratedAt:    cut.GeneratedAt,
		ViolationCount: cut.ViolationCount,
	}
	if err := json.Unmarshal(cut.Report, &resp.Report); err != nil {
		return nil, fmt.Errorf("decode cash cut %s: %w", cut.ID, err)
	}
	return resp, nil
}
