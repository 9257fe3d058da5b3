package lock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/vaultledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "ledger:lock:"

// RedisLockerConfig holds the settings of a RedisLocker
type RedisLockerConfig struct {
	Timeout    time.Duration // how long Acquire waits for all keys
	Expiry     time.Duration // TTL of each held key; must outlive the transaction
	RetryDelay time.Duration // pause between attempts on a taken key
	KeyPrefix  string
}

// RedisLocker grants mutual exclusion across processes with redsync mutexes.
// Calls to Redis go through a circuit breaker: once Redis keeps failing,
// Acquire answers ErrBusy immediately instead of waiting on a dead backend.
type RedisLocker struct {
	rs      *redsync.Redsync
	breaker *gobreaker.CircuitBreaker
	cfg     RedisLockerConfig
	logger  *zap.Logger
}

// NewRedisLocker creates a RedisLocker on an existing client
func NewRedisLocker(client redis.UniversalClient, cfg RedisLockerConfig, logger *zap.Logger) *RedisLocker {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 50 * time.Millisecond
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		rs:      redsync.New(goredis.NewPool(client)),
		breaker: newBreaker(logger),
		cfg:     cfg,
		logger:  logger,
	}
}

func newBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-locker",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Contention and caller cancellation say nothing about Redis health.
		IsSuccessful: func(err error) bool {
			return err == nil || isContention(err) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("lock backend circuit breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Acquire takes every key in the order given, releasing them all if any
// key cannot be taken within the timeout
func (l *RedisLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	waitCtx, cancel := withTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	held := make([]*redsync.Mutex, 0, len(keys))
	for _, key := range keys {
		mutex := l.rs.NewMutex(l.cfg.KeyPrefix+key,
			redsync.WithExpiry(l.cfg.Expiry),
			redsync.WithTries(math.MaxInt32),
			redsync.WithRetryDelay(l.cfg.RetryDelay),
		)
		_, err := l.breaker.Execute(func() (interface{}, error) {
			return nil, mutex.LockContext(waitCtx)
		})
		if err != nil {
			l.release(held)
			return nil, l.classify(ctx, key, err)
		}
		held = append(held, mutex)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(held) })
	}, nil
}

func (l *RedisLocker) release(held []*redsync.Mutex) {
	for i := len(held) - 1; i >= 0; i-- {
		// Release even when the caller's context is gone.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		ok, err := held[i].UnlockContext(ctx)
		cancel()
		if err != nil || !ok {
			l.logger.Warn("failed to release ledger lock; it will expire",
				zap.String("key", held[i].Name()),
				zap.Duration("expiry", l.cfg.Expiry),
				zap.Error(err),
			)
		}
	}
}

func (l *RedisLocker) classify(ctx context.Context, key string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return shared.ErrBusy.WithDetail("lock backend unavailable")
	case isContention(err), errors.Is(err, context.DeadlineExceeded):
		return shared.ErrBusy.WithDetail("timed out waiting for %s", key)
	}
	l.logger.Error("lock backend error", zap.String("key", key), zap.Error(err))
	return shared.ErrBusy.WithDetail("lock backend error: %v", err)
}

func isContention(err error) bool {
	var taken *redsync.ErrTaken
	return errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken)
}

// Ping checks the Redis connection
func Ping(ctx context.Context, client redis.UniversalClient) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}
