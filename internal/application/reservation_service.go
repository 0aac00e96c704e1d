package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	catwayDomain "github.com/port-russell/service-marina/internal/domain/catway"
	reservationDomain "github.com/port-russell/service-marina/internal/domain/reservation"
	"github.com/port-russell/service-marina/internal/events/schema"
	"github.com/port-russell/service-marina/internal/lock"
	"github.com/port-russell/service-marina/internal/metrics"
	"github.com/port-russell/service-marina/internal/platform/domain"
	"github.com/port-russell/service-marina/internal/platform/messaging"
)

// CreateReservationRequest holds the data needed to reserve a catway.
// The catway number comes from the URL.
type CreateReservationRequest struct {
	ClientName string `json:"clientName" binding:"required"`
	BoatName   string `json:"boatName" binding:"required"`
	CheckIn    Date   `json:"checkIn" binding:"required"`
	CheckOut   Date   `json:"checkOut" binding:"required"`
}

// UpdateReservationRequest is a partial update. Absent fields are unchanged.
// A catwayNumber different from the one in the URL moves the reservation.
type UpdateReservationRequest struct {
	CatwayNumber *int    `json:"catwayNumber"`
	ClientName   *string `json:"clientName"`
	BoatName     *string `json:"boatName"`
	CheckIn      *Date   `json:"checkIn"`
	CheckOut     *Date   `json:"checkOut"`
	Status       *string `json:"status"`
}

// ReservationDTO is the response representation of a reservation.
type ReservationDTO struct {
	ID           uuid.UUID `json:"id"`
	CatwayNumber int       `json:"catwayNumber"`
	ClientName   string    `json:"clientName"`
	BoatName     string    `json:"boatName"`
	CheckIn      time.Time `json:"checkIn"`
	CheckOut     time.Time `json:"checkOut"`
	Status       string    `json:"status"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ReservationService is the application service orchestrating reservation use cases.
//
// Every write holds the lock of each catway it touches for the whole
// read-check-write sequence and the availability reconcile that follows it.
type ReservationService struct {
	catways      catwayDomain.CatwayRepository
	reservations reservationDomain.ReservationRepository
	tx           Transactor
	guard        berthGuard
	reconciler   *AvailabilityReconciler
	events       eventEmitter
	clock        reservationDomain.Clock
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewReservationService creates a new ReservationService.
func NewReservationService(
	catways catwayDomain.CatwayRepository,
	reservations reservationDomain.ReservationRepository,
	tx Transactor,
	locker lock.Locker,
	reconciler *AvailabilityReconciler,
	publisher messaging.Publisher,
	clock reservationDomain.Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		catways:      catways,
		reservations: reservations,
		tx:           tx,
		guard:        berthGuard{locker: locker, metrics: m},
		reconciler:   reconciler,
		events:       eventEmitter{publisher: publisher, metrics: m, logger: logger},
		clock:        clock,
		metrics:      m,
		logger:       logger,
	}
}

// CreateReservation reserves catway number for the requested stay.
func (s *ReservationService) CreateReservation(ctx context.Context, number int, req CreateReservationRequest) (result *ReservationDTO, err error) {
	defer func() { s.metrics.IncReservationOp("create", outcomeOf(err)) }()

	unlock, err := s.guard.lock(ctx, number)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var res *reservationDomain.Reservation
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.catways.FindByNumberForUpdate(ctx, number); err != nil {
			return err
		}

		r, err := reservationDomain.NewReservation(number, req.ClientName, req.BoatName, req.CheckIn.Time(), req.CheckOut.Time(), s.clock.Now())
		if err != nil {
			return err
		}

		if err := s.ensureNoOverlap(ctx, r); err != nil {
			return err
		}

		if err := s.reservations.Save(ctx, r); err != nil {
			return fmt.Errorf("failed to save reservation: %w", err)
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.reconciler.MarkUnavailable(ctx, number)

	s.logger.Info("reservation created",
		zap.String("reservation_id", res.ID().String()),
		zap.Int("catway_number", number),
	)
	s.publishReservation(ctx, schema.ReservationCreated, res)

	dto := toReservationDTO(res)
	return &dto, nil
}

// UpdateReservation applies a partial update to a reservation of catway number.
func (s *ReservationService) UpdateReservation(ctx context.Context, number int, id uuid.UUID, req UpdateReservationRequest) (result *ReservationDTO, err error) {
	defer func() { s.metrics.IncReservationOp("update", outcomeOf(err)) }()

	rev, err := toRevision(req)
	if err != nil {
		return nil, err
	}

	target := number
	if req.CatwayNumber != nil {
		target = *req.CatwayNumber
	}

	unlock, err := s.guard.lock(ctx, number, target)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		res    *reservationDomain.Reservation
		effect reservationDomain.Effect
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.reservations.FindByIDForCatway(ctx, id, number)
		if err != nil {
			return err
		}

		if target != number {
			if _, err := s.catways.FindByNumberForUpdate(ctx, target); err != nil {
				return err
			}
		}

		effect, err = r.Revise(rev, s.clock.Now())
		if err != nil {
			return err
		}

		if effect.NeedsOverlapCheck(r.Status()) {
			if target == number {
				if _, err := s.catways.FindByNumberForUpdate(ctx, number); err != nil {
					return err
				}
			}
			if err := s.ensureNoOverlap(ctx, r); err != nil {
				return err
			}
		}

		r.IncrementVersion()
		if err := s.reservations.Update(ctx, r); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if effect.AffectsAvailability() {
		s.reconciler.Reconcile(ctx, effect.PreviousCatway)
		if effect.CatwayChanged {
			s.reconciler.Reconcile(ctx, res.CatwayNumber())
		}
	}

	s.logger.Info("reservation updated",
		zap.String("reservation_id", res.ID().String()),
		zap.Int("catway_number", res.CatwayNumber()),
		zap.Bool("catway_changed", effect.CatwayChanged),
		zap.Bool("interval_changed", effect.IntervalChanged),
		zap.Bool("status_changed", effect.StatusChanged),
	)
	s.publishReservation(ctx, schema.ReservationUpdated, res)

	dto := toReservationDTO(res)
	return &dto, nil
}

// DeleteReservation removes a reservation of catway number and recounts the catway.
func (s *ReservationService) DeleteReservation(ctx context.Context, number int, id uuid.UUID) (err error) {
	defer func() { s.metrics.IncReservationOp("delete", outcomeOf(err)) }()

	unlock, err := s.guard.lock(ctx, number)
	if err != nil {
		return err
	}
	defer unlock()

	var res *reservationDomain.Reservation
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.reservations.FindByIDForCatway(ctx, id, number)
		if err != nil {
			return err
		}
		if err := s.reservations.Delete(ctx, r.ID()); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return err
	}

	s.reconciler.Reconcile(ctx, number)

	s.logger.Info("reservation deleted",
		zap.String("reservation_id", id.String()),
		zap.Int("catway_number", number),
	)
	s.publishReservation(ctx, schema.ReservationDeleted, res)
	return nil
}

// CompleteReservation marks a reservation completed once its boat has left.
// Completing an already completed reservation is a no-op.
func (s *ReservationService) CompleteReservation(ctx context.Context, id uuid.UUID) (result *ReservationDTO, err error) {
	defer func() { s.metrics.IncReservationOp("complete", outcomeOf(err)) }()

	number, unlock, err := s.lockCurrentBerth(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		res     *reservationDomain.Reservation
		changed bool
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.reservations.FindByIDForCatway(ctx, id, number)
		if err != nil {
			return err
		}
		res = r
		if changed = r.Complete(s.clock.Now()); !changed {
			return nil
		}
		r.IncrementVersion()
		return s.reservations.Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.reconciler.Reconcile(ctx, number)
		s.logger.Info("reservation completed",
			zap.String("reservation_id", id.String()),
			zap.Int("catway_number", number),
		)
		s.publishReservation(ctx, schema.ReservationCompleted, res)
	}

	dto := toReservationDTO(res)
	return &dto, nil
}

// GetReservation returns a reservation only if it belongs to catway number.
func (s *ReservationService) GetReservation(ctx context.Context, number int, id uuid.UUID) (*ReservationDTO, error) {
	r, err := s.reservations.FindByIDForCatway(ctx, id, number)
	if err != nil {
		return nil, err
	}
	dto := toReservationDTO(r)
	return &dto, nil
}

// ListCatwayReservations returns every reservation of catway number ordered by check-in.
func (s *ReservationService) ListCatwayReservations(ctx context.Context, number int) ([]ReservationDTO, error) {
	if _, err := s.catways.FindByNumber(ctx, number); err != nil {
		return nil, err
	}
	list, err := s.reservations.ListByCatway(ctx, number)
	if err != nil {
		return nil, err
	}
	return toReservationDTOs(list), nil
}

// ListReservations returns one page of all reservations ordered by check-in.
func (s *ReservationService) ListReservations(ctx context.Context, page, limit int) (*domain.PaginatedResult[ReservationDTO], error) {
	list, total, err := s.reservations.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toReservationDTOs(list), total, page, limit)
	return &result, nil
}

// ensureNoOverlap must run inside the transaction, under the catway lock.
func (s *ReservationService) ensureNoOverlap(ctx context.Context, r *reservationDomain.Reservation) error {
	active, err := s.reservations.ListActiveByCatway(ctx, r.CatwayNumber())
	if err != nil {
		return err
	}
	conflict := reservationDomain.FindConflict(r.CatwayNumber(), active, r.Interval(), r.ID())
	if conflict == nil {
		return nil
	}

	s.logger.Info("reservation overlaps an active stay",
		zap.Int("catway_number", r.CatwayNumber()),
		zap.String("conflicting_reservation_id", conflict.ID().String()),
	)
	return domain.NewConflictError(fmt.Sprintf(
		"catway %d is already reserved from %s to %s",
		r.CatwayNumber(),
		conflict.CheckIn().Format(time.RFC3339),
		conflict.CheckOut().Format(time.RFC3339),
	))
}

func (s *ReservationService) publishReservation(ctx context.Context, eventType string, r *reservationDomain.Reservation) {
	evt := schema.ReservationEvent{
		ReservationID: r.ID(),
		CatwayNumber:  r.CatwayNumber(),
		ClientName:    r.ClientName(),
		BoatName:      r.BoatName(),
		CheckIn:       r.CheckIn(),
		CheckOut:      r.CheckOut(),
		Status:        r.Status().String(),
		OccurredAt:    time.Now().UTC(),
	}
	s.events.publish(ctx, eventType, schema.CatwaySubject(r.CatwayNumber()), evt)
}

// lockCurrentBerth locks the catway a reservation is on when only its id is
// known. The number is read again under the lock; if a concurrent move changed
// it, the lock is released and the lookup retried once.
func (s *ReservationService) lockCurrentBerth(ctx context.Context, id uuid.UUID) (int, lock.Unlock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		before, err := s.reservations.FindByID(ctx, id)
		if err != nil {
			return 0, nil, err
		}
		number := before.CatwayNumber()

		unlock, err := s.guard.lock(ctx, number)
		if err != nil {
			return 0, nil, err
		}
		after, err := s.reservations.FindByID(ctx, id)
		if err != nil {
			unlock()
			return 0, nil, err
		}
		if after.CatwayNumber() == number {
			return number, unlock, nil
		}
		unlock()
		s.logger.Debug("reservation moved before its catway was locked",
			zap.String("reservation_id", id.String()),
			zap.Int("from", number),
			zap.Int("to", after.CatwayNumber()),
		)
	}
	return 0, nil, domain.NewConflictError(fmt.Sprintf("reservation %s is being moved, retry", id))
}

func toRevision(req UpdateReservationRequest) (reservationDomain.Revision, error) {
	rev := reservationDomain.Revision{
		CatwayNumber: req.CatwayNumber,
		ClientName:   req.ClientName,
		BoatName:     req.BoatName,
		CheckIn:      datePtrTime(req.CheckIn),
		CheckOut:     datePtrTime(req.CheckOut),
	}
	if req.CatwayNumber != nil && *req.CatwayNumber < 1 {
		return rev, domain.NewValidationError("catwayNumber must be a positive integer")
	}
	if req.Status != nil {
		status, err := reservationDomain.ParseStatus(*req.Status)
		if err != nil {
			return rev, err
		}
		rev.Status = &status
	}
	return rev, nil
}

func toReservationDTO(r *reservationDomain.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:           r.ID(),
		CatwayNumber: r.CatwayNumber(),
		ClientName:   r.ClientName(),
		BoatName:     r.BoatName(),
		CheckIn:      r.CheckIn(),
		CheckOut:     r.CheckOut(),
		Status:       r.Status().String(),
		Version:      r.Version(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

func toReservationDTOs(list []*reservationDomain.Reservation) []ReservationDTO {
	out := make([]ReservationDTO, len(list))
	for i, r := range list {
		out[i] = toReservationDTO(r)
	}
	return out
}
