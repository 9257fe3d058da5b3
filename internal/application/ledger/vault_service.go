package ledger

import (
	"context"

	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/infrastructure/telemetry"
)

// VaultService owns the vault balances: direct credits and debits, balance
// reads and consistent snapshots.
type VaultService struct {
	exec *executor
}

// NewVaultService creates a new VaultService
func NewVaultService(scope TransactionScope, locker Locker, opts Options) *VaultService {
	return &VaultService{exec: newExecutor(scope, locker, opts)}
}

// Credit adds to a vault's balance
func (s *VaultService) Credit(ctx context.Context, vaultID string, req PostingRequest) (*MovementResponse, error) {
	return s.post(ctx, OpCredit, vaultID, ledger.KindCredit, ledger.SideCredit, req)
}

// Debit subtracts from a vault's balance, rejecting with ErrInsufficientFunds
// rather than letting it go negative
func (s *VaultService) Debit(ctx context.Context, vaultID string, req PostingRequest) (*MovementResponse, error) {
	return s.post(ctx, OpDebit, vaultID, ledger.KindDebit, ledger.SideDebit, req)
}

func (s *VaultService) post(ctx context.Context, op, rawID string, kind ledger.MovementKind, side ledger.Side, req PostingRequest) (*MovementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "vault", op)
	defer span.End()

	id, err := ledger.ParseVaultID(rawID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrVaultID, id.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	var movement *ledger.Movement
	err = s.exec.mutate(ctx, op, []string{id.LockKey()}, func(ctx context.Context, repos Repositories) error {
		vault, err := repos.Vaults().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		m, err := vault.Post(ledger.Posting{
			Kind:      kind,
			Side:      side,
			Amount:    req.Amount,
			Memo:      req.Memo,
			SourceRef: req.SourceRef,
		}, s.exec.now())
		if err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx, m); err != nil {
			return err
		}
		if err := repos.Vaults().Save(ctx, vault); err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.exec.publish(ctx, ledger.NewVaultAdjustedEvent(movement))
	telemetry.SetAttribute(span, telemetry.SpanAttrMovementID, movement.ID.String())

	resp := ToMovementResponse(movement)
	return &resp, nil
}

// GetBalance reads one vault
func (s *VaultService) GetBalance(ctx context.Context, vaultID string) (*VaultResponse, error) {
	id, err := ledger.ParseVaultID(vaultID)
	if err != nil {
		return nil, err
	}

	var resp VaultResponse
	err = s.exec.view(ctx, "", func(ctx context.Context, repos Repositories) error {
		vault, err := repos.Vaults().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = ToVaultResponse(vault)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Snapshot reads all seven vaults in one read-only transaction
func (s *VaultService) Snapshot(ctx context.Context) (*SnapshotResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "vault", "snapshot")
	defer span.End()

	resp := &SnapshotResponse{TakenAt: s.exec.now()}
	err := s.exec.view(ctx, "", func(ctx context.Context, repos Repositories) error {
		vaults, err := repos.Vaults().FindAll(ctx)
		if err != nil {
			return err
		}
		resp.Vaults = make([]VaultResponse, 0, len(vaults))
		for i := range vaults {
			resp.Vaults = append(resp.Vaults, ToVaultResponse(&vaults[i]))
			resp.Total = resp.Total.Add(vaults[i].Balance)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}
