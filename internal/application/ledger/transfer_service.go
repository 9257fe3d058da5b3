package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/infrastructure/telemetry"
)

// TransferService moves money between two vaults atomically
type TransferService struct {
	exec *executor
}

// NewTransferService creates a new TransferService
func NewTransferService(scope TransactionScope, locker Locker, opts Options) *TransferService {
	return &TransferService{exec: newExecutor(scope, locker, opts)}
}

// Transfer debits the source vault and credits the destination under one
// correlation id. Either both movements commit or neither does.
func (s *TransferService) Transfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transfer", "execute")
	defer span.End()

	from, err := ledger.ParseVaultID(req.From)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	to, err := ledger.ParseVaultID(req.To)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if from == to {
		err := shared.ErrInvalidInput.WithDetail("cannot transfer from vault %s to itself", from)
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !req.Amount.IsPositive() {
		err := shared.ErrInvalidInput.WithDetail("transfer amount must be positive, got %s", req.Amount)
		telemetry.RecordError(span, err)
		return nil, err
	}

	correlationID := uuid.New()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrFromVault, from.String(),
		telemetry.SpanAttrToVault, to.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
		telemetry.SpanAttrCorrelationID, correlationID.String(),
	)

	resp := &TransferResponse{CorrelationID: correlationID, Amount: req.Amount}
	err = s.exec.mutate(ctx, OpTransfer, []string{from.LockKey(), to.LockKey()}, func(ctx context.Context, repos Repositories) error {
		// Rows are read in lock order as well
		vaults, err := loadVaultsForUpdate(ctx, repos, from, to)
		if err != nil {
			return err
		}
		source, dest := vaults[from], vaults[to]
		at := s.exec.now()

		out, err := source.Post(ledger.Posting{
			Kind:              ledger.KindTransferOut,
			Side:              ledger.SideDebit,
			Amount:            req.Amount,
			Memo:              req.Memo,
			CorrelationID:     correlationID,
			CounterpartyVault: to,
		}, at)
		if err != nil {
			return err
		}
		in, err := dest.Post(ledger.Posting{
			Kind:              ledger.KindTransferIn,
			Side:              ledger.SideCredit,
			Amount:            req.Amount,
			Memo:              req.Memo,
			CorrelationID:     correlationID,
			CounterpartyVault: from,
		}, at)
		if err != nil {
			return err
		}

		if err := persistPostings(ctx, repos, []*ledger.Vault{source, dest}, []*ledger.Movement{out, in}); err != nil {
			return err
		}
		resp.OutMovementID = out.ID
		resp.InMovementID = in.ID
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.exec.publish(ctx, ledger.NewTransferCompletedEvent(correlationID, from, to, req.Amount, req.Memo, s.exec.now()))
	return resp, nil
}

// loadVaultsForUpdate reads the given vaults with row locks in lock-key order
func loadVaultsForUpdate(ctx context.Context, repos Repositories, ids ...ledger.VaultID) (map[ledger.VaultID]*ledger.Vault, error) {
	keys := make([]string, 0, len(ids))
	byKey := make(map[string]ledger.VaultID, len(ids))
	for _, id := range ids {
		keys = append(keys, id.LockKey())
		byKey[id.LockKey()] = id
	}

	vaults := make(map[ledger.VaultID]*ledger.Vault, len(ids))
	for _, key := range LockKeys(keys...) {
		id := byKey[key]
		v, err := repos.Vaults().FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		vaults[id] = v
	}
	return vaults, nil
}

// persistPostings appends the movements then saves each touched vault once
func persistPostings(ctx context.Context, repos Repositories, vaults []*ledger.Vault, movements []*ledger.Movement) error {
	for _, m := range movements {
		if err := repos.Movements().Append(ctx, m); err != nil {
			return err
		}
	}
	saved := make(map[ledger.VaultID]bool, len(vaults))
	for _, v := range vaults {
		if saved[v.ID] {
			continue
		}
		if err := repos.Vaults().Save(ctx, v); err != nil {
			return err
		}
		saved[v.ID] = true
	}
	return nil
}
