package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
	"github.com/vaultledger/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewFromConfig builds the locker selected by ledger.lock_backend.
// The returned close function releases the backend connection.
func NewFromConfig(ctx context.Context, ledgerCfg config.LedgerConfig, redisCfg config.RedisConfig, logger *zap.Logger) (appledger.Locker, func() error, error) {
	switch ledgerCfg.LockBackend {
	case config.LockBackendMemory, "":
		logger.Info("Using in-process ledger locks", zap.Duration("timeout", ledgerCfg.LockTimeout))
		return NewMemoryLocker(ledgerCfg.LockTimeout), func() error { return nil }, nil

	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr(),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := Ping(pingCtx, client); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Info("Using Redis ledger locks",
			zap.String("addr", redisCfg.Addr()),
			zap.Duration("timeout", ledgerCfg.LockTimeout),
			zap.Duration("expiry", ledgerCfg.LockExpiry),
		)
		locker := NewRedisLocker(client, RedisLockerConfig{
			Timeout:    ledgerCfg.LockTimeout,
			Expiry:     ledgerCfg.LockExpiry,
			RetryDelay: ledgerCfg.LockRetryDelay,
		}, logger)
		return locker, client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown lock backend %q", ledgerCfg.LockBackend)
}

// Ensure both lockers implement Locker
var (
	_ appledger.Locker = (*MemoryLocker)(nil)
	_ appledger.Locker = (*RedisLocker)(nil)
)
