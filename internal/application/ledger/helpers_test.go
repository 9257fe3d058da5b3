package ledger_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/shared/valueobject"
	"github.com/vaultledger/backend/internal/infrastructure/config"
	"github.com/vaultledger/backend/internal/infrastructure/lock"
	"github.com/vaultledger/backend/internal/infrastructure/persistence"
	"github.com/vaultledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var bootstrapAt = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type recordingObserver struct {
	mu         sync.Mutex
	operations map[string][]string
	violations []int
}

func (o *recordingObserver) ObserveOperation(op, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.operations == nil {
		o.operations = make(map[string][]string)
	}
	o.operations[op] = append(o.operations[op], outcome)
}

func (o *recordingObserver) ObserveLockWait(time.Duration) {}

func (o *recordingObserver) ObserveIntegrity(violations int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.violations = append(o.violations, violations)
}

func (o *recordingObserver) outcomes(op string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.operations[op]...)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// fixture wires every ledger service to one bootstrapped SQLite database
type fixture struct {
	db        *gorm.DB
	scope     *persistence.GormTransactionScope
	publisher *recordingPublisher
	observer  *recordingObserver
	clock     *manualClock

	vaults       *appledger.VaultService
	movements    *appledger.MovementService
	transfers    *appledger.TransferService
	distribution *appledger.DistributionService
	returns      *appledger.ReturnService
	debts        *appledger.DebtReconciler
	validator    *appledger.IntegrityValidator
	cashCuts     *appledger.CashCutService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	_, err = persistence.BootstrapVaults(context.Background(), db.DB, bootstrapAt)
	require.NoError(t, err)

	f := &fixture{
		db:        db.DB,
		scope:     persistence.NewGormTransactionScope(db.DB),
		publisher: &recordingPublisher{},
		observer:  &recordingObserver{},
		clock:     &manualClock{now: bootstrapAt.Add(time.Hour)},
	}
	opts := appledger.Options{Observer: f.observer, Publisher: f.publisher, Clock: f.clock.Now}
	locker := lock.NewMemoryLocker(5 * time.Second)

	f.vaults = appledger.NewVaultService(f.scope, locker, opts)
	f.movements = appledger.NewMovementService(f.scope, opts)
	f.transfers = appledger.NewTransferService(f.scope, locker, opts)
	f.distribution = appledger.NewDistributionService(f.scope, locker, ledger.DefaultSplitTargets(), opts)
	f.returns = appledger.NewReturnService(f.scope, locker, ledger.DefaultSplitTargets(), opts)
	f.debts = appledger.NewDebtReconciler(f.scope, locker, opts)
	f.validator = appledger.NewIntegrityValidator(f.scope, opts)
	f.cashCuts = appledger.NewCashCutService(f.scope, f.validator, opts)
	return f
}

func money(t *testing.T, amount string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyFromString(amount)
	require.NoError(t, err)
	return m
}

func (f *fixture) credit(t *testing.T, vaultID, amount string) {
	t.Helper()
	_, err := f.vaults.Credit(context.Background(), vaultID, appledger.PostingRequest{Amount: money(t, amount)})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, vaultID string) valueobject.Money {
	t.Helper()
	v, err := f.vaults.GetBalance(context.Background(), vaultID)
	require.NoError(t, err)
	return v.Balance
}

func (f *fixture) requireClean(t *testing.T) {
	t.Helper()
	report, err := f.validator.Validate(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, report.ViolationCount, "violations: %+v", report.Violations)
}
