package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	catwayDomain "github.com/port-russell/service-marina/internal/domain/catway"
	reservationDomain "github.com/port-russell/service-marina/internal/domain/reservation"
	"github.com/port-russell/service-marina/internal/events/schema"
	"github.com/port-russell/service-marina/internal/metrics"
	"github.com/port-russell/service-marina/internal/platform/domain"
	"github.com/port-russell/service-marina/internal/platform/messaging"
)

// AvailabilityReconciler keeps a catway's isAvailable flag equal to "no active
// reservation references it". Dates are not considered.
//
// It runs after the reservation write has committed, while the caller still
// holds the catway lock. Its failures are logged and never undo that write.
type AvailabilityReconciler struct {
	catways      catwayDomain.CatwayRepository
	reservations reservationDomain.ReservationRepository
	events       eventEmitter
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewAvailabilityReconciler creates a new AvailabilityReconciler.
func NewAvailabilityReconciler(
	catways catwayDomain.CatwayRepository,
	reservations reservationDomain.ReservationRepository,
	publisher messaging.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AvailabilityReconciler {
	return &AvailabilityReconciler{
		catways:      catways,
		reservations: reservations,
		events:       eventEmitter{publisher: publisher, metrics: m, logger: logger},
		metrics:      m,
		logger:       logger,
	}
}

// MarkUnavailable records that the catway now has an active reservation, without recounting.
func (r *AvailabilityReconciler) MarkUnavailable(ctx context.Context, number int) {
	if err := r.apply(ctx, number, false, nil); err != nil {
		r.fail(number, err)
	}
}

// Reconcile recounts active reservations and stores the result.
func (r *AvailabilityReconciler) Reconcile(ctx context.Context, number int) {
	if err := r.Recount(ctx, number); err != nil {
		r.fail(number, err)
	}
}

// Recount is Reconcile with the error returned. A missing catway is not an error.
func (r *AvailabilityReconciler) Recount(ctx context.Context, number int) error {
	n, err := r.reservations.CountActiveByCatway(ctx, number)
	if err != nil {
		return fmt.Errorf("failed to count active reservations: %w", err)
	}
	return r.apply(ctx, number, n == 0, &n)
}

func (r *AvailabilityReconciler) apply(ctx context.Context, number int, available bool, active *int64) error {
	c, err := r.catways.FindByNumber(ctx, number)
	if err != nil {
		if domain.IsNotFound(err) {
			r.logger.Warn("catway missing during availability reconcile",
				zap.Int("catway_number", number),
			)
			return nil
		}
		return err
	}
	if !c.SetAvailability(available) {
		return nil
	}

	if err := r.catways.SetAvailability(ctx, number, available); err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}

	r.metrics.IncAvailabilityChange(available)
	r.logger.Info("catway availability changed",
		zap.Int("catway_number", number),
		zap.Bool("is_available", available),
	)

	evt := schema.AvailabilityChangedEvent{
		CatwayNumber:       number,
		IsAvailable:        available,
		ActiveReservations: active,
		OccurredAt:         time.Now().UTC(),
	}
	r.events.publish(ctx, schema.CatwayAvailabilityChanged, schema.CatwaySubject(number), evt)
	return nil
}

func (r *AvailabilityReconciler) fail(number int, err error) {
	r.metrics.IncReconcileFailure()
	r.logger.Error("failed to reconcile catway availability",
		zap.Int("catway_number", number),
		zap.Error(err),
	)
}
