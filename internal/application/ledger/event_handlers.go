package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditHandler persists every committed domain event to the audit trail
type AuditHandler struct {
	scope  TransactionScope
	logger *zap.Logger
	clock  func() time.Time
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(scope TransactionScope, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		scope:  scope,
		logger: logger,
		clock:  time.Now,
	}
}

// EventTypes returns nil so the handler receives all events
func (h *AuditHandler) EventTypes() []string {
	return nil
}

// Handle stores the event. A redelivered event is ignored.
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.EventType(), err)
	}
	entry := &ledger.AuditEntry{
		ID:            uuid.New(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		OccurredAt:    event.OccurredAt().UTC(),
		Payload:       payload,
		RecordedAt:    h.clock().UTC(),
	}

	err = h.scope.Execute(ctx, func(repos Repositories) error {
		return repos.Audit().Append(ctx, entry)
	})
	if errors.Is(err, shared.ErrAlreadyExists) {
		h.logger.Debug("audit entry already recorded",
			zap.String("event_id", entry.EventID.String()),
			zap.String("event_type", entry.EventType),
		)
		return nil
	}
	return err
}

// LossAlertHandler raises an alert for every sale distributed at a loss
type LossAlertHandler struct {
	logger *zap.Logger
}

// NewLossAlertHandler creates a new LossAlertHandler
func NewLossAlertHandler(logger *zap.Logger) *LossAlertHandler {
	return &LossAlertHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *LossAlertHandler) EventTypes() []string {
	return []string{ledger.EventTypeSaleDistributed}
}

// Handle processes a SaleDistributedEvent
func (h *LossAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	distributed, ok := event.(*ledger.SaleDistributedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			ledger.EventTypeSaleDistributed, event.EventType())
	}
	if !distributed.Loss {
		return nil
	}

	logger.WithLogger(ctx, h.logger).Warn("sale distributed at a loss",
		zap.String("sale_id", distributed.SaleID.String()),
		zap.String("correlation_id", distributed.CorrelationID.String()),
		zap.String("total", distributed.Total.String()),
		zap.String("cost", distributed.Cost.String()),
		zap.String("freight", distributed.Freight.String()),
		zap.String("profit", distributed.Profit.String()),
	)
	return nil
}

var (
	_ shared.EventHandler = (*AuditHandler)(nil)
	_ shared.EventHandler = (*LossAlertHandler)(nil)
)
