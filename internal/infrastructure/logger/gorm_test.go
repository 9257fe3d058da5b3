package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Options(t *testing.T) {
	l, _ := observed()

	gl := NewGormLogger(l, gormlogger.Warn, WithSlowThreshold(time.Second))
	assert.Equal(t, time.Second, gl.slowThreshold)
	assert.Equal(t, 200*time.Millisecond, NewGormLogger(l, gormlogger.Warn).slowThreshold)

	moved, ok := gl.LogMode(gormlogger.Info).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Info, moved.logLevel)
	assert.Equal(t, gormlogger.Warn, gl.logLevel)
}

func TestGormLogger_Levels(t *testing.T) {
	l, logs := observed()
	gl := NewGormLogger(l, gormlogger.Warn)

	gl.Info(context.Background(), "info %s", "hidden")
	gl.Warn(context.Background(), "warn %s", "shown")
	gl.Error(context.Background(), "error %d", 1)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "warn shown", entries[0].Message)
	assert.Equal(t, "error 1", entries[1].Message)
}

func TestGormLogger_Trace(t *testing.T) {
	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-1")

	t.Run("error", func(t *testing.T) {
		l, logs := observed()
		gl := NewGormLogger(l, gormlogger.Warn)

		gl.Trace(ctx, time.Now(), sqlFn(`UPDATE "vaults" SET balance=1`, 0), errors.New("boom"))
		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "SQL Error", entry.Message)
		assert.Equal(t, "req-1", entry.ContextMap()["request_id"])
	})

	t.Run("record not found ignored", func(t *testing.T) {
		l, logs := observed()
		gl := NewGormLogger(l, gormlogger.Warn)

		gl.Trace(ctx, time.Now(), sqlFn(`SELECT 1`, 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("slow query", func(t *testing.T) {
		l, logs := observed()
		gl := NewGormLogger(l, gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))

		gl.Trace(ctx, time.Now().Add(-time.Second), sqlFn(`SELECT * FROM "movements"`, 3), nil)
		gl.Trace(ctx, time.Now().Add(-time.Second), sqlFn(`SELECT * FROM "vaults" WHERE id = 'azteca' FOR UPDATE`, 1), nil)
		require.Equal(t, 2, logs.Len())
		assert.Contains(t, logs.All()[0].Message, "SLOW SQL")
		assert.NotContains(t, logs.All()[0].ContextMap(), "row_lock")
		assert.Equal(t, true, logs.All()[1].ContextMap()["row_lock"])
		assert.Equal(t, "req-1", logs.All()[1].ContextMap()["request_id"])
	})

	t.Run("normal query only at info", func(t *testing.T) {
		l, logs := observed()

		NewGormLogger(l, gormlogger.Warn).Trace(ctx, time.Now(), sqlFn(`SELECT 1`, 1), nil)
		assert.Equal(t, 0, logs.Len())

		NewGormLogger(l, gormlogger.Info).Trace(ctx, time.Now(), sqlFn(`SELECT 1`, 1), nil)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "SQL Query", logs.All()[0].Message)
	})

	t.Run("silent", func(t *testing.T) {
		l, logs := observed()
		NewGormLogger(l, gormlogger.Silent).Trace(ctx, time.Now(), sqlFn(`SELECT 1`, 1), errors.New("boom"))
		assert.Equal(t, 0, logs.Len())
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("DEBUG"))
}

var _ gormlogger.Interface = (*GormLogger)(nil)
