package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ledgerEnvKeys = []string{
	"LEDGER_APP_NAME",
	"LEDGER_APP_ENV",
	"LEDGER_APP_PORT",
	"LEDGER_DATABASE_DRIVER",
	"LEDGER_DATABASE_HOST",
	"LEDGER_DATABASE_PORT",
	"LEDGER_DATABASE_USER",
	"LEDGER_DATABASE_PASSWORD",
	"LEDGER_DATABASE_DBNAME",
	"LEDGER_DATABASE_SSLMODE",
	"LEDGER_DATABASE_SQLITE_PATH",
	"LEDGER_DATABASE_MAX_OPEN_CONNS",
	"LEDGER_DATABASE_MAX_IDLE_CONNS",
	"LEDGER_LEDGER_LOCK_BACKEND",
	"LEDGER_LEDGER_LOCK_TIMEOUT",
	"LEDGER_LEDGER_LOCK_EXPIRY",
	"LEDGER_LEDGER_PROFIT_VAULT",
	"LEDGER_CASH_CUT_ENABLED",
	"LEDGER_CASH_CUT_INTERVAL",
	"LEDGER_CASH_CUT_OVERDUE_AFTER",
	"LEDGER_TELEMETRY_SAMPLING_RATIO",
	"LEDGER_TELEMETRY_DB_LOG_FULL_SQL",
	"LEDGER_TELEMETRY_METRICS_ENABLED",
}

// clearEnv blanks every variable the tests touch; viper ignores empty values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range ledgerEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "vault-ledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "ledger", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, LockBackendMemory, cfg.Ledger.LockBackend)
		assert.Equal(t, 5*time.Second, cfg.Ledger.LockTimeout)
		assert.Equal(t, "boveda_monte", cfg.Ledger.CostVault)
		assert.Equal(t, "flete_sur", cfg.Ledger.FreightVault)
		assert.Equal(t, "utilidades", cfg.Ledger.ProfitVault)
		assert.False(t, cfg.CashCut.Enabled)
		assert.Equal(t, 24*time.Hour, cfg.CashCut.Interval)
		assert.Equal(t, 720*time.Hour, cfg.CashCut.OverdueAfter)
		assert.True(t, cfg.Telemetry.MetricsEnabled)
	})

	t.Run("loads values from environment variables with LEDGER prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_APP_NAME", "test-ledger")
		t.Setenv("LEDGER_APP_PORT", "9000")
		t.Setenv("LEDGER_DATABASE_DRIVER", "sqlite")
		t.Setenv("LEDGER_DATABASE_SQLITE_PATH", ":memory:")
		t.Setenv("LEDGER_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("LEDGER_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("LEDGER_LEDGER_LOCK_BACKEND", "redis")
		t.Setenv("LEDGER_LEDGER_LOCK_TIMEOUT", "2s")
		t.Setenv("LEDGER_LEDGER_LOCK_EXPIRY", "20s")
		t.Setenv("LEDGER_LEDGER_PROFIT_VAULT", "boveda_usa")
		t.Setenv("LEDGER_CASH_CUT_ENABLED", "true")
		t.Setenv("LEDGER_CASH_CUT_INTERVAL", "1h")
		t.Setenv("LEDGER_CASH_CUT_OVERDUE_AFTER", "168h")
		t.Setenv("LEDGER_TELEMETRY_METRICS_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-ledger", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, ":memory:", cfg.Database.SQLitePath)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, LockBackendRedis, cfg.Ledger.LockBackend)
		assert.Equal(t, 2*time.Second, cfg.Ledger.LockTimeout)
		assert.Equal(t, 20*time.Second, cfg.Ledger.LockExpiry)
		assert.Equal(t, "boveda_usa", cfg.Ledger.ProfitVault)
		assert.True(t, cfg.CashCut.Enabled)
		assert.Equal(t, time.Hour, cfg.CashCut.Interval)
		assert.Equal(t, 168*time.Hour, cfg.CashCut.OverdueAfter)
		assert.False(t, cfg.Telemetry.MetricsEnabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("LEDGER_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects unknown lock backend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_LEDGER_LOCK_BACKEND", "etcd")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.lock_backend")
	})

	t.Run("redis lock expiry must outlive the wait timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_LEDGER_LOCK_BACKEND", "redis")
		t.Setenv("LEDGER_LEDGER_LOCK_TIMEOUT", "10s")
		t.Setenv("LEDGER_LEDGER_LOCK_EXPIRY", "5s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lock_expiry")
	})

	t.Run("rejects a cash cut interval under a minute", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_CASH_CUT_ENABLED", "true")
		t.Setenv("LEDGER_CASH_CUT_INTERVAL", "10s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cash_cut.interval")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_APP_ENV", "production")
		t.Setenv("LEDGER_DATABASE_PASSWORD", "secure-password")
		t.Setenv("LEDGER_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("LEDGER_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("LEDGER_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects sqlite in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("LEDGER_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be postgres in production")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("LEDGER_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.Addr())
}
