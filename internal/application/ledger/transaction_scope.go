package ledger

import (
	"context"

	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/partner"
	"github.com/vaultledger/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the ledger repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a read-write transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos Repositories) error) error

	// View runs the given function within a read-only transaction that sees
	// one consistent snapshot of the database.
	View(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides access to all ledger repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type Repositories interface {
	// Vaults returns the vault repository scoped to the current transaction
	Vaults() ledger.VaultRepository
	// Movements returns the append-only movement log scoped to the current transaction
	Movements() ledger.MovementRepository
	// Sales returns the distributed sale repository scoped to the current transaction
	Sales() ledger.SaleRepository
	// Orders returns the order repository scoped to the current transaction
	Orders() trade.OrderRepository
	// Payments returns the payment application log scoped to the current transaction
	Payments() trade.PaymentApplicationRepository
	// Parties returns the party repository scoped to the current transaction
	Parties() partner.PartyRepository
	// CashCuts returns the cash-cut report repository scoped to the current transaction
	CashCuts() ledger.CashCutRepository
	// Audit returns the audit trail repository scoped to the current transaction
	Audit() ledger.AuditEntryRepository
}
