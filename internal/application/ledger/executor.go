package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/vaultledger/backend/internal/domain/shared"
	"github.com/vaultledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Operation names reported to the OperationObserver
const (
	OpCredit         = "credit"
	OpDebit          = "debit"
	OpTransfer       = "transfer"
	OpDistributeSale = "distribute_sale"
	OpProcessReturn  = "process_return"
	OpRegisterOrder  = "register_order"
	OpApplyPayment   = "apply_payment"
	OpValidate       = "validate_integrity"
	OpCashCut        = "cash_cut"
)

// Options carries the collaborators shared by the ledger services
type Options struct {
	Observer  OperationObserver
	Publisher shared.EventPublisher
	Logger    *zap.Logger
	Clock     func() time.Time
}

// txFunc is the body of a transaction; ctx is the context repositories must use
type txFunc func(ctx context.Context, repos Repositories) error

type executor struct {
	scope     TransactionScope
	locker    Locker
	observer  OperationObserver
	publisher shared.EventPublisher
	logger    *zap.Logger
	clock     func() time.Time
}

func newExecutor(scope TransactionScope, locker Locker, opts Options) *executor {
	e := &executor{
		scope:     scope,
		locker:    locker,
		observer:  opts.Observer,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		clock:     opts.Clock,
	}
	if e.observer == nil {
		e.observer = noopObserver{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	return e
}

func (e *executor) now() time.Time {
	return e.clock().UTC()
}

// log correlates service entries with the request and trace in ctx
func (e *executor) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, e.logger)
}

// mutate acquires every key in global order, then runs fn in one transaction.
// Once the locks are held the transaction no longer follows the caller's
// cancellation: it either commits or rolls back as a whole.
func (e *executor) mutate(ctx context.Context, op string, keys []string, fn txFunc) error {
	start := time.Now()
	err := e.lockAndExecute(ctx, keys, fn)
	e.observer.ObserveOperation(op, Outcome(err), time.Since(start))
	if err != nil && !isBusinessRejection(err) {
		e.log(ctx).Error("ledger operation failed",
			zap.String("operation", op),
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
	return err
}

func (e *executor) lockAndExecute(ctx context.Context, keys []string, fn txFunc) error {
	waitStart := time.Now()
	unlock, err := e.locker.Acquire(ctx, LockKeys(keys...))
	e.observer.ObserveLockWait(time.Since(waitStart))
	if err != nil {
		return err
	}
	defer unlock()

	txCtx := context.WithoutCancel(ctx)
	return e.scope.Execute(txCtx, func(repos Repositories) error {
		return fn(txCtx, repos)
	})
}

// view runs fn in a read-only snapshot without taking locks
func (e *executor) view(ctx context.Context, op string, fn txFunc) error {
	start := time.Now()
	err := e.scope.View(ctx, func(repos Repositories) error {
		return fn(ctx, repos)
	})
	if op != "" {
		e.observer.ObserveOperation(op, Outcome(err), time.Since(start))
	}
	return err
}

// publish hands committed events to the event bus. Delivery failures are
// logged; the ledger change has already committed.
func (e *executor) publish(ctx context.Context, events ...shared.DomainEvent) {
	if e.publisher == nil || len(events) == 0 {
		return
	}
	if err := e.publisher.Publish(context.WithoutCancel(ctx), events...); err != nil {
		e.log(ctx).Warn("failed to publish ledger events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

// Outcome classifies an operation result for metrics labels
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := shared.ErrorCode(err); code != "" {
		return strings.ToLower(code)
	}
	return "error"
}

func isBusinessRejection(err error) bool {
	return shared.ErrorCode(err) != ""
}
