package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/port-russell/service-marina/internal/platform/config"
)

func newObservedGormLogger(level gormlogger.LogLevel) (gormlogger.Interface, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level), logs
}

func query(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("record not found is silent", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn)
		l.Trace(ctx, time.Now(), query("SELECT * FROM users", 0), gorm.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("query error is logged with sql", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn)
		l.Trace(ctx, time.Now(), query("INSERT INTO catways", 0), errors.New("disk full"))
		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		assert.Equal(t, "INSERT INTO catways", entry.ContextMap()["sql"])
	})

	t.Run("slow query warns", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn)
		l.Trace(ctx, time.Now().Add(-time.Second), query("SELECT 1", 1), nil)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	})

	t.Run("fast query below info is dropped", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn)
		l.Trace(ctx, time.Now(), query("SELECT 1", 1), nil)
		assert.Zero(t, logs.Len())
	})

	t.Run("silent mode logs nothing", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn)
		l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), query("SELECT 1", 0), errors.New("boom"))
		assert.Zero(t, logs.Len())
	})
}

func TestConnect_LogsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	db, err := Connect(config.DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"}, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&mooring{}))

	var m mooring
	err = db.First(&m, 42).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.Zero(t, logs.FilterLoggerName("gorm").Len(), "lookups that miss are not errors")

	require.Error(t, db.Exec("SELECT * FROM no_such_table").Error)
	failed := logs.FilterLoggerName("gorm").FilterMessage("database query failed")
	assert.Equal(t, 1, failed.Len())
}
