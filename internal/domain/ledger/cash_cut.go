package ledger

import (
	"time"

	"github.com/google/uuid"
)

// AggregateTypeCashCut is the aggregate type of cash-cut events
const AggregateTypeCashCut = "CashCut"

// CashCut is a persisted integrity report taken at a point in time.
// Report holds the full JSON-encoded findings; the counts are kept alongside
// for listing without decoding.
type CashCut struct {
	ID             uuid.UUID
	AsOf           time.Time
	GeneratedAt    time.Time
	VaultCount     int
	PartyCount     int
	ViolationCount int
	Report         []byte
}

// IsClean returns true if the report found no violations
func (c *CashCut) IsClean() bool {
	return c.ViolationCount == 0
}

// AuditEntry is the persisted form of a committed domain event
type AuditEntry struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateType string
	AggregateID   uuid.UUID
	OccurredAt    time.Time
	Payload       []byte
	RecordedAt    time.Time
}
