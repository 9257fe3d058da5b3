package ledger

import (
	"context"

	"github.com/google/uuid"
)

// VaultRepository persists the seven vault rows
type VaultRepository interface {
	FindByID(ctx context.Context, id VaultID) (*Vault, error)
	// FindByIDForUpdate loads the vault and holds a row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, id VaultID) (*Vault, error)
	FindAll(ctx context.Context) ([]Vault, error)
	Create(ctx context.Context, vault *Vault) error
	// Save writes balances guarded by the vault version
	Save(ctx context.Context, vault *Vault) error
}

// MovementRepository is the append-only movement log
type MovementRepository interface {
	Append(ctx context.Context, movement *Movement) error
	// Find returns movements matching the filter ordered by time, vault and sequence
	Find(ctx context.Context, filter MovementFilter) ([]Movement, error)
	// FindByVault returns every movement of a vault in sequence order
	FindByVault(ctx context.Context, id VaultID) ([]Movement, error)
	ExistsBySourceRef(ctx context.Context, sourceRef string) (bool, error)
}

// SaleRepository keeps the split posted for each distributed sale
type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	Create(ctx context.Context, sale *Sale) error
	// Save writes the returned quantity and shares guarded by the sale version
	Save(ctx context.Context, sale *Sale) error
}

// CashCutRepository stores integrity reports
type CashCutRepository interface {
	Create(ctx context.Context, cut *CashCut) error
	// FindLatest returns the most recently generated report or ErrNotFound
	FindLatest(ctx context.Context) (*CashCut, error)
}

// AuditEntryRepository is the append-only audit trail
type AuditEntryRepository interface {
	// Append stores the entry; an entry for an already recorded event is ErrAlreadyExists
	Append(ctx context.Context, entry *AuditEntry) error
	FindByAggregate(ctx context.Context, aggregateID uuid.UUID) ([]AuditEntry, error)
}
