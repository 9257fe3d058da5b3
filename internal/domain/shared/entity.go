package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntityWithID creates a base entity for a caller-supplied ID, stamped at the given time
func NewBaseEntityWithID(id uuid.UUID, at time.Time) BaseEntity {
	return BaseEntity{
		ID:        id,
		CreatedAt: at,
		UpdatedAt: at,
	}
}
