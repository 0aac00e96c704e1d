package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catwayDomain "github.com/port-russell/service-marina/internal/domain/catway"
	reservationDomain "github.com/port-russell/service-marina/internal/domain/reservation"
	userDomain "github.com/port-russell/service-marina/internal/domain/user"
	"github.com/port-russell/service-marina/internal/platform/config"
	"github.com/port-russell/service-marina/internal/platform/database"
	"github.com/port-russell/service-marina/internal/platform/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var t0 = time.Date(2031, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestCatwayRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCatwayRepository(newTestDB(t))

	for _, n := range []int{3, 1, 2} {
		c, err := catwayDomain.NewCatway(n, catwayDomain.KindLong, "bon état")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))
	}

	dup, err := catwayDomain.NewCatway(2, catwayDomain.KindShort, "x")
	require.NoError(t, err)
	assert.True(t, domain.IsValidation(repo.Save(ctx, dup)))

	items, total, err := repo.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Number())
	assert.Equal(t, 2, items[1].Number())

	c, err := repo.FindByNumber(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, c.ChangeState("planche cassée"))
	c.IncrementVersion()
	require.NoError(t, repo.Update(ctx, c))

	stale, err := catwayDomain.NewCatway(2, catwayDomain.KindShort, "stale")
	require.NoError(t, err)
	stale.IncrementVersion()
	assert.True(t, domain.IsConflict(repo.Update(ctx, stale)), "stale version must be rejected")

	require.NoError(t, repo.SetAvailability(ctx, 2, false))
	c, err = repo.FindByNumber(ctx, 2)
	require.NoError(t, err)
	assert.False(t, c.IsAvailable())
	assert.Equal(t, "planche cassée", c.State())
	assert.Equal(t, int64(2), c.Version())

	require.NoError(t, repo.Delete(ctx, 2))
	_, err = repo.FindByNumber(ctx, 2)
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, domain.IsNotFound(repo.Delete(ctx, 2)))
	assert.True(t, domain.IsNotFound(repo.SetAvailability(ctx, 99, true)))
}

func TestCatwayRepository_FindForUpdateInsideTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCatwayRepository(db)
	c, err := catwayDomain.NewCatway(5, catwayDomain.KindShort, "ok")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), c))

	err = database.NewTransactor(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
		got, err := repo.FindByNumberForUpdate(ctx, 5)
		if err != nil {
			return err
		}
		assert.Equal(t, 5, got.Number())
		return nil
	})
	require.NoError(t, err)
}

func TestReservationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReservationRepository(newTestDB(t))
	now := t0.Add(-24 * time.Hour)

	late, err := reservationDomain.NewReservation(1, "Alice", "Aurore", t0.Add(72*time.Hour), t0.Add(96*time.Hour), now)
	require.NoError(t, err)
	early, err := reservationDomain.NewReservation(1, "Bob", "Brise", t0, t0.Add(24*time.Hour), now)
	require.NoError(t, err)
	other, err := reservationDomain.NewReservation(2, "Chloé", "Cormoran", t0, t0.Add(24*time.Hour), now)
	require.NoError(t, err)
	for _, r := range []*reservationDomain.Reservation{late, early, other} {
		require.NoError(t, repo.Save(ctx, r))
	}

	list, err := repo.ListByCatway(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID(), list[0].ID(), "ordered by check-in")
	assert.True(t, list[0].CheckIn().Equal(t0))

	_, err = repo.FindByIDForCatway(ctx, other.ID(), 1)
	assert.True(t, domain.IsNotFound(err), "catway mismatch is not found")
	got, err := repo.FindByIDForCatway(ctx, other.ID(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Cormoran", got.BoatName())

	cancelled := reservationDomain.StatusCancelled
	_, err = late.Revise(reservationDomain.Revision{Status: &cancelled}, now)
	require.NoError(t, err)
	late.IncrementVersion()
	require.NoError(t, repo.Update(ctx, late))

	n, err := repo.CountActiveByCatway(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	active, err := repo.ListActiveByCatway(ctx, 1)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, early.ID(), active[0].ID())

	all, total, err := repo.ListAll(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	require.NoError(t, repo.Delete(ctx, early.ID()))
	assert.True(t, domain.IsNotFound(repo.Delete(ctx, early.ID())))
	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, domain.IsNotFound(err))
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(newTestDB(t))

	u, err := userDomain.NewUser("Capitainerie", "admin@port-russell.fr", "$2a$10$hash", "admin")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, u))

	got, err := repo.FindByEmail(ctx, " ADMIN@port-russell.fr ")
	require.NoError(t, err)
	assert.Equal(t, u.ID(), got.ID())

	again, err := userDomain.NewUser("Other", "admin@port-russell.fr", "$2a$10$hash", "staff")
	require.NoError(t, err)
	assert.True(t, domain.IsValidation(repo.Save(ctx, again)))

	_, err = repo.FindByEmail(ctx, "nobody@port-russell.fr")
	assert.True(t, domain.IsNotFound(err))
}
