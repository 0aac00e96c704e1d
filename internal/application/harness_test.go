package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	catwayDomain "github.com/port-russell/service-marina/internal/domain/catway"
	reservationDomain "github.com/port-russell/service-marina/internal/domain/reservation"
	"github.com/port-russell/service-marina/internal/lock"
	"github.com/port-russell/service-marina/internal/metrics"
	"github.com/port-russell/service-marina/internal/platform/config"
	"github.com/port-russell/service-marina/internal/platform/database"
	"github.com/port-russell/service-marina/internal/platform/messaging"
	"github.com/port-russell/service-marina/internal/repository"
)

var testNow = time.Date(2030, time.January, 1, 9, 0, 0, 0, time.UTC)

// at returns testNow shifted by whole days.
func at(days int) time.Time { return testNow.AddDate(0, 0, days) }

func on(days int) Date { return Date(at(days)) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, e messaging.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type harness struct {
	catways      *repository.GormCatwayRepository
	reservations *repository.GormReservationRepository
	users        *repository.GormUserRepository
	locker       *lock.LocalLocker
	publisher    *recordingPublisher
	metrics      *metrics.Metrics
	tx           Transactor
	reconciler   *AvailabilityReconciler
	catwaySvc    *CatwayService
	svc          *ReservationService
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithLockTimeout(t, 5*time.Second)
}

func newHarnessWithLockTimeout(t *testing.T, timeout time.Duration) *harness {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(repository.Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	h := &harness{
		catways:      repository.NewGormCatwayRepository(db),
		reservations: repository.NewGormReservationRepository(db),
		users:        repository.NewGormUserRepository(db),
		locker:       lock.NewLocalLocker(timeout),
		publisher:    &recordingPublisher{},
		metrics:      metrics.NewMetrics("marina_test", prometheus.NewRegistry()),
	}
	log := zap.NewNop()
	h.tx = database.NewTransactor(db)

	h.reconciler = NewAvailabilityReconciler(h.catways, h.reservations, h.publisher, h.metrics, log)
	h.catwaySvc = NewCatwayService(h.catways, h.reservations, h.tx, h.locker, h.publisher, h.metrics, log)
	h.svc = h.reservationService(h.catways, h.reservations, log)
	return h
}

// reservationService builds a service sharing the harness database, lock and
// metrics over the given repositories.
func (h *harness) reservationService(
	catways catwayDomain.CatwayRepository,
	reservations reservationDomain.ReservationRepository,
	log *zap.Logger,
) *ReservationService {
	reconciler := NewAvailabilityReconciler(catways, reservations, h.publisher, h.metrics, log)
	return NewReservationService(
		catways,
		reservations,
		h.tx,
		h.locker,
		reconciler,
		h.publisher,
		reservationDomain.FixedClock(testNow),
		h.metrics,
		log,
	)
}

func (h *harness) addCatway(t *testing.T, number int) {
	t.Helper()
	_, err := h.catwaySvc.CreateCatway(context.Background(), CreateCatwayRequest{
		CatwayNumber: number,
		Type:         "long",
		CatwayState:  "bon état",
	})
	require.NoError(t, err)
}

func (h *harness) reserve(t *testing.T, number, from, to int) *ReservationDTO {
	t.Helper()
	res, err := h.svc.CreateReservation(context.Background(), number, CreateReservationRequest{
		ClientName: "Thomas Martin",
		BoatName:   "Le Goéland",
		CheckIn:    on(from),
		CheckOut:   on(to),
	})
	require.NoError(t, err)
	return res
}

func (h *harness) available(t *testing.T, number int) bool {
	t.Helper()
	c, err := h.catways.FindByNumber(context.Background(), number)
	require.NoError(t, err)
	return c.IsAvailable()
}

func (h *harness) activeCount(t *testing.T, number int) int64 {
	t.Helper()
	n, err := h.reservations.CountActiveByCatway(context.Background(), number)
	require.NoError(t, err)
	return n
}

var errBroker = errors.New("broker unreachable")

func ptr[T any](v T) *T { return &v }
