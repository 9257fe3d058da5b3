package partner

import (
	"context"

	"github.com/google/uuid"
)

// PartyRepository defines the interface for party persistence
type PartyRepository interface {
	// FindByID finds a party by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Party, error)

	// FindAll returns every party ordered by id
	FindAll(ctx context.Context) ([]Party, error)

	// Create inserts a new party
	Create(ctx context.Context, party *Party) error

	// Save updates a party guarded by its version and increments it
	Save(ctx context.Context, party *Party) error
}
