package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/partner"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/domain/trade"
	"github.com/vaultledger/backend/internal/infrastructure/telemetry"
)

// DebtReconciler applies payments against orders and keeps party debt in
// step with them
type DebtReconciler struct {
	exec *executor
}

// NewDebtReconciler creates a new DebtReconciler
func NewDebtReconciler(scope TransactionScope, locker Locker, opts Options) *DebtReconciler {
	return &DebtReconciler{exec: newExecutor(scope, locker, opts)}
}

// RegisterOrder records a pending order and adds its total to the party's
// outstanding balance. An unknown party is created with the kind implied by
// the order type.
func (r *DebtReconciler) RegisterOrder(ctx context.Context, req RegisterOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "debt", "register_order")
	defer span.End()

	orderType, err := trade.ParseOrderType(req.Type)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	orderID := uuid.New()
	if req.OrderID != nil && *req.OrderID != uuid.Nil {
		orderID = *req.OrderID
	}
	order, err := trade.NewOrder(orderID, orderType, req.Number, req.PartyID, req.Total, r.exec.now())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, order.ID.String(),
		telemetry.SpanAttrPartyID, order.PartyID.String(),
		telemetry.SpanAttrAmount, order.TotalAmount.String(),
	)

	keys := []string{trade.LockKey(order.ID), partner.LockKey(order.PartyID)}
	err = r.exec.mutate(ctx, OpRegisterOrder, keys, func(ctx context.Context, repos Repositories) error {
		if _, err := repos.Orders().FindByID(ctx, order.ID); err == nil {
			return shared.ErrAlreadyExists.WithDetail("order %s already exists", order.ID)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		taken, err := repos.Orders().ExistsByNumber(ctx, order.Type, order.Number)
		if err != nil {
			return err
		}
		if taken {
			return shared.ErrAlreadyExists.WithDetail("%s number %s already exists", order.Type, order.Number)
		}

		party, isNew, err := r.loadOrCreateParty(ctx, repos, order, req.PartyName)
		if err != nil {
			return err
		}
		if err := party.AddDebt(order.TotalAmount, order.CreatedAt); err != nil {
			return err
		}

		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}
		if isNew {
			return repos.Parties().Create(ctx, party)
		}
		return repos.Parties().Save(ctx, party)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	r.exec.publish(ctx, order.GetDomainEvents()...)
	order.ClearDomainEvents()

	resp := ToOrderResponse(order, nil)
	return &resp, nil
}

func (r *DebtReconciler) loadOrCreateParty(ctx context.Context, repos Repositories, order *trade.Order, name string) (*partner.Party, bool, error) {
	party, err := repos.Parties().FindByID(ctx, order.PartyID)
	if err == nil {
		if party.Kind != order.Type.PartyKind() {
			return nil, false, shared.ErrInvalidInput.WithDetail(
				"party %s is a %s, %s orders need a %s", party.ID, party.Kind, order.Type, order.Type.PartyKind())
		}
		return party, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}
	party, err = partner.NewParty(order.PartyID, order.Type.PartyKind(), name, order.CreatedAt)
	if err != nil {
		return nil, false, err
	}
	return party, true, nil
}

// ApplyPayment applies a payment against an order. The amount applied is
// capped to the remaining debt and the excess is reported back; the vault
// movement, order transition, party update and payment record commit together.
func (r *DebtReconciler) ApplyPayment(ctx context.Context, orderID uuid.UUID, req ApplyPaymentRequest) (*ApplyPaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "debt", "apply_payment")
	defer span.End()

	vaultID, err := ledger.ParseVaultID(req.VaultID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	direction, err := trade.ParsePaymentDirection(req.Direction)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !req.Amount.IsPositive() {
		err := shared.ErrInvalidInput.WithDetail("payment amount must be positive, got %s", req.Amount)
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrVaultID, vaultID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	// The party is part of the lock set, so it is read before locking.
	// Orders never change party, which the locked transaction re-checks.
	var partyID uuid.UUID
	err = r.exec.view(ctx, "", func(ctx context.Context, repos Repositories) error {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		partyID = order.PartyID
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		resp  *ApplyPaymentResponse
		event shared.DomainEvent
	)
	keys := []string{trade.LockKey(orderID), partner.LockKey(partyID), vaultID.LockKey()}
	err = r.exec.mutate(ctx, OpApplyPayment, keys, func(ctx context.Context, repos Repositories) error {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.PartyID != partyID {
			return shared.ErrConcurrencyConflict.WithDetail("order %s changed party while locking", orderID)
		}
		if err := order.CheckDirection(direction); err != nil {
			return err
		}
		party, err := repos.Parties().FindByID(ctx, partyID)
		if err != nil {
			return err
		}
		vault, err := repos.Vaults().FindByIDForUpdate(ctx, vaultID)
		if err != nil {
			return err
		}

		at := r.exec.now()
		effective, err := order.ApplyPayment(req.Amount, at)
		if err != nil {
			return err
		}
		side := ledger.SideCredit
		if direction == trade.PaymentOutgoing {
			side = ledger.SideDebit
		}
		movement, err := vault.Post(ledger.Posting{
			Kind:      ledger.KindPayment,
			Side:      side,
			Amount:    effective,
			Memo:      fmt.Sprintf("payment for %s %s", order.Type, order.Number),
			SourceRef: ledger.OrderSourceRef(order.ID),
		}, at)
		if err != nil {
			return err
		}
		if err := party.ApplyPayment(effective, at); err != nil {
			return err
		}
		app := trade.NewPaymentApplication(order, vaultID, movement.ID, direction, req.Amount, effective, movement.OccurredAt)

		if err := repos.Movements().Append(ctx, movement); err != nil {
			return err
		}
		if err := repos.Vaults().Save(ctx, vault); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, order); err != nil {
			return err
		}
		if err := repos.Parties().Save(ctx, party); err != nil {
			return err
		}
		if err := repos.Payments().Create(ctx, app); err != nil {
			return err
		}

		resp = &ApplyPaymentResponse{
			OrderID:          order.ID,
			EffectiveAmount:  effective,
			CappedAmount:     app.CappedAmount(),
			NewState:         order.PaymentState,
			MovementID:       movement.ID,
			Remaining:        order.AmountRemaining,
			PartyOutstanding: party.OutstandingBalance,
		}
		event = trade.NewOrderPaymentAppliedEvent(order, app, party.OutstandingBalance, at)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrEffectiveAmount, resp.EffectiveAmount.String(),
		telemetry.SpanAttrCappedAmount, resp.CappedAmount.String(),
		telemetry.SpanAttrPaymentState, resp.NewState.String(),
	)
	r.exec.publish(ctx, event)
	return resp, nil
}

// GetOrder returns an order with its applied payments
func (r *DebtReconciler) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	var resp OrderResponse
	err := r.exec.view(ctx, "", func(ctx context.Context, repos Repositories) error {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		apps, err := repos.Payments().FindByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		resp = ToOrderResponse(order, apps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetParty returns a party's debt standing
func (r *DebtReconciler) GetParty(ctx context.Context, partyID uuid.UUID) (*PartyResponse, error) {
	var resp PartyResponse
	err := r.exec.view(ctx, "", func(ctx context.Context, repos Repositories) error {
		party, err := repos.Parties().FindByID(ctx, partyID)
		if err != nil {
			return err
		}
		resp = ToPartyResponse(party)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
