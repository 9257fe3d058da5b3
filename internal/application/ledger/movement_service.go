package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
)

const (
	defaultMovementLimit = 100
	maxMovementLimit     = 1000
)

// MovementService answers queries over the movement log
type MovementService struct {
	exec *executor
}

// NewMovementService creates a new MovementService
func NewMovementService(scope TransactionScope, opts Options) *MovementService {
	return &MovementService{exec: newExecutor(scope, nil, opts)}
}

// List returns movements matching the filter
func (s *MovementService) List(ctx context.Context, f MovementListFilter) ([]MovementResponse, error) {
	filter, err := toMovementFilter(f)
	if err != nil {
		return nil, err
	}

	var out []MovementResponse
	err = s.exec.view(ctx, "", func(ctx context.Context, repos Repositories) error {
		movements, err := repos.Movements().Find(ctx, filter)
		if err != nil {
			return err
		}
		out = make([]MovementResponse, 0, len(movements))
		for i := range movements {
			out = append(out, ToMovementResponse(&movements[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Replay rebuilds a vault's balance from its movements and compares it with
// the stored row
func (s *MovementService) Replay(ctx context.Context, vaultID string) (*ReplayResponse, error) {
	id, err := ledger.ParseVaultID(vaultID)
	if err != nil {
		return nil, err
	}

	var resp ReplayResponse
	err = s.exec.view(ctx, "", func(ctx context.Context, repos Repositories) error {
		vault, err := repos.Vaults().FindByID(ctx, id)
		if err != nil {
			return err
		}
		movements, err := repos.Movements().FindByVault(ctx, id)
		if err != nil {
			return err
		}
		result := ledger.Replay(id, movements)
		resp = ReplayResponse{
			ReplayResult:   result,
			StoredBalance:  vault.Balance,
			StoredSequence: vault.LastSequence,
			Consistent: result.IsClean() &&
				result.Balance == vault.Balance &&
				result.LastSequence == vault.LastSequence &&
				result.LastHash == vault.LastHash,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func toMovementFilter(f MovementListFilter) (ledger.MovementFilter, error) {
	var filter ledger.MovementFilter

	if f.VaultID != "" {
		id, err := ledger.ParseVaultID(f.VaultID)
		if err != nil {
			return filter, err
		}
		filter.VaultID = id
	}
	from, err := parseOptionalTime("from", f.From)
	if err != nil {
		return filter, err
	}
	to, err := parseOptionalTime("to", f.To)
	if err != nil {
		return filter, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return filter, shared.ErrInvalidInput.WithDetail("to must not be before from")
	}
	filter.From, filter.To = from, to

	if f.CorrelationID != "" {
		corr, err := uuid.Parse(f.CorrelationID)
		if err != nil {
			return filter, shared.ErrInvalidInput.WithDetail("invalid correlation id %q", f.CorrelationID)
		}
		filter.CorrelationID = corr
	}
	filter.SourceRef = strings.TrimSpace(f.SourceRef)
	filter.SortBy, filter.SortOrder = f.SortBy, f.SortOrder

	filter.Limit = MovementLimit(f.Limit)
	return filter, nil
}

// MovementLimit clamps a requested page size to the supported range
func MovementLimit(requested int) int {
	switch {
	case requested <= 0:
		return defaultMovementLimit
	case requested > maxMovementLimit:
		return maxMovementLimit
	default:
		return requested
	}
}

// ParseAsOf parses an optional RFC3339 timestamp
func ParseAsOf(raw string) (*time.Time, error) {
	return parseOptionalTime("as_of", raw)
}

func parseOptionalTime(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, shared.ErrInvalidInput.WithDetail("%s must be an RFC3339 timestamp", field)
	}
	t = t.UTC()
	return &t, nil
}
