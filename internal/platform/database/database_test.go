package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/port-russell/service-marina/internal/platform/config"
)

type mooring struct {
	ID   int `gorm:"primaryKey"`
	Name string
}

func TestDSN(t *testing.T) {
	pg := config.DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", DBName: "marina", SSLMode: "disable"}
	assert.Contains(t, DSN(pg), "host=db port=5432 user=u password=p dbname=marina sslmode=disable")
	assert.Equal(t, "postgres://u:p@db:5432/marina?sslmode=disable", DatabaseURL(pg))

	my := config.DatabaseConfig{Driver: "mysql", Host: "db", Port: "3306", User: "u", DBName: "marina"}
	assert.Equal(t, "u@tcp(db:3306)/marina?charset=utf8mb4&parseTime=true&loc=UTC", DSN(my))

	assert.Equal(t, ":memory:", DSN(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}))
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	require.Error(t, err)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db, err := Connect(config.DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&mooring{}))
	assert.False(t, SupportsRowLocks(db))

	tr := NewTransactor(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err = tr.WithinTransaction(ctx, func(ctx context.Context) error {
		assert.True(t, InTx(ctx))
		require.NoError(t, Conn(ctx, db).Create(&mooring{ID: 1, Name: "a"}).Error)
		// nested call joins the outer transaction
		return tr.WithinTransaction(ctx, func(ctx context.Context) error {
			require.NoError(t, Conn(ctx, db).Create(&mooring{ID: 2, Name: "b"}).Error)
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&mooring{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, tr.WithinTransaction(ctx, func(ctx context.Context) error {
		return Conn(ctx, db).Create(&mooring{ID: 3, Name: "c"}).Error
	}))
	require.NoError(t, db.Model(&mooring{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
