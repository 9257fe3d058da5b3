package persistence

import (
	"context"
	"database/sql"

	appledger "github.com/vaultledger/backend/internal/application/ledger"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/partner"
	"github.com/vaultledger/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// View runs fn in a read-only transaction. On PostgreSQL it is REPEATABLE READ
// so every query sees the same snapshot.
func (s *GormTransactionScope) View(ctx context.Context, fn func(repos appledger.Repositories) error) error {
	var opts *sql.TxOptions
	if isPostgres(s.db) {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	}, opts)
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Vaults returns the vault repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Vaults() ledger.VaultRepository {
	return NewGormVaultRepository(r.tx)
}

// Movements returns the movement repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Movements() ledger.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

// Sales returns the distributed sale repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Sales() ledger.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// Orders returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Orders() trade.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// Payments returns the payment application repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Payments() trade.PaymentApplicationRepository {
	return NewGormPaymentApplicationRepository(r.tx)
}

// Parties returns the party repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Parties() partner.PartyRepository {
	return NewGormPartyRepository(r.tx)
}

// CashCuts returns the cash-cut repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CashCuts() ledger.CashCutRepository {
	return NewGormCashCutRepository(r.tx)
}

// Audit returns the audit trail repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Audit() ledger.AuditEntryRepository {
	return NewGormAuditEntryRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements Repositories
var _ appledger.Repositories = (*gormTransactionalRepositories)(nil)
