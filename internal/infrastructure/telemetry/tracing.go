package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vaultledger/backend/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for ledger operation spans
const TracerName = "vault-ledger"

// Attribute keys shared by ledger spans
const (
	SpanAttrService       = "ledger.service"
	SpanAttrVaultID       = "ledger.vault_id"
	SpanAttrMovementID    = "ledger.movement_id"
	SpanAttrCorrelationID = "ledger.correlation_id"
	SpanAttrSaleID        = "ledger.sale_id"
	SpanAttrAmount        = "ledger.amount"
	SpanAttrFromVault     = "ledger.from_vault"
	SpanAttrToVault       = "ledger.to_vault"
	SpanAttrQuantity      = "ledger.quantity"
	SpanAttrErrorCode     = "ledger.error_code"
	SpanAttrRetryable     = "ledger.retryable"

	SpanAttrAsOf           = "integrity.as_of"
	SpanAttrViolationCount = "integrity.violation_count"

	SpanAttrOrderID         = "trade.order_id"
	SpanAttrPartyID         = "trade.party_id"
	SpanAttrOrderType       = "trade.order_type"
	SpanAttrEffectiveAmount = "trade.effective_amount"
	SpanAttrCappedAmount    = "trade.capped_amount"
	SpanAttrPaymentState    = "trade.payment_state"
)

// StartServiceSpan starts an internal span named {service}.{method},
// e.g. "distribution.distribute_sale". The caller ends it.
func StartServiceSpan(ctx context.Context, service, method string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, fmt.Sprintf("%s.%s", service, method),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String(SpanAttrService, service)),
	)
}

// SetAttributes adds key/value pairs to a span.
// A pair with a non-string key is skipped, as is a trailing key without a value.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	span.SetAttributes(attrs...)
}

// SetAttribute adds a single attribute to the span.
func SetAttribute(span trace.Span, key string, value any) {
	if span == nil {
		return
	}
	span.SetAttributes(toAttribute(key, value))
}

// RecordError records err on the span.
//
// Domain rejections (insufficient funds, settled orders, lock contention)
// are outcomes of a healthy ledger: they are tagged with their code and
// recorded as an event, but the span status stays unset. Any other error
// marks the span as failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	var de *shared.DomainError
	if errors.As(err, &de) && de.Code != shared.ErrIntegrityViolation.Code {
		span.SetAttributes(
			attribute.String(SpanAttrErrorCode, de.Code),
			attribute.Bool(SpanAttrRetryable, shared.IsRetryable(err)),
		)
		span.AddEvent("ledger.rejected", trace.WithAttributes(
			attribute.String("message", de.Message),
		))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case uuid.UUID:
		return attribute.String(key, v.String())
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
