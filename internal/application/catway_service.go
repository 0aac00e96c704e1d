package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	catwayDomain "github.com/port-russell/service-marina/internal/domain/catway"
	reservationDomain "github.com/port-russell/service-marina/internal/domain/reservation"
	"github.com/port-russell/service-marina/internal/events/schema"
	"github.com/port-russell/service-marina/internal/lock"
	"github.com/port-russell/service-marina/internal/metrics"
	"github.com/port-russell/service-marina/internal/platform/domain"
	"github.com/port-russell/service-marina/internal/platform/messaging"
)

// CreateCatwayRequest holds the data needed to create a catway.
type CreateCatwayRequest struct {
	CatwayNumber int    `json:"catwayNumber" binding:"required"`
	Type         string `json:"type" binding:"required"`
	CatwayState  string `json:"catwayState" binding:"required"`
}

// UpdateCatwayRequest replaces a catway's type and state. The number cannot change;
// when present it must match the URL.
type UpdateCatwayRequest struct {
	CatwayNumber *int   `json:"catwayNumber"`
	Type         string `json:"type" binding:"required"`
	CatwayState  string `json:"catwayState" binding:"required"`
}

// PatchCatwayStateRequest changes only the state description.
type PatchCatwayStateRequest struct {
	CatwayState string `json:"catwayState" binding:"required"`
}

// CatwayDTO is the response representation of a catway.
type CatwayDTO struct {
	CatwayNumber int       `json:"catwayNumber"`
	Type         string    `json:"type"`
	CatwayState  string    `json:"catwayState"`
	IsAvailable  bool      `json:"isAvailable"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CatwayService is the application service orchestrating catway use cases.
type CatwayService struct {
	catways      catwayDomain.CatwayRepository
	reservations reservationDomain.ReservationRepository
	tx           Transactor
	guard        berthGuard
	events       eventEmitter
	logger       *zap.Logger
}

// NewCatwayService creates a new CatwayService.
func NewCatwayService(
	catways catwayDomain.CatwayRepository,
	reservations reservationDomain.ReservationRepository,
	tx Transactor,
	locker lock.Locker,
	publisher messaging.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CatwayService {
	return &CatwayService{
		catways:      catways,
		reservations: reservations,
		tx:           tx,
		guard:        berthGuard{locker: locker, metrics: m},
		events:       eventEmitter{publisher: publisher, metrics: m, logger: logger},
		logger:       logger,
	}
}

// CreateCatway registers a new, available catway. A taken number is a validation error.
func (s *CatwayService) CreateCatway(ctx context.Context, req CreateCatwayRequest) (*CatwayDTO, error) {
	kind, err := catwayDomain.ParseKind(req.Type)
	if err != nil {
		return nil, err
	}
	c, err := catwayDomain.NewCatway(req.CatwayNumber, kind, req.CatwayState)
	if err != nil {
		return nil, err
	}

	unlock, err := s.guard.lock(ctx, c.Number())
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.catways.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("catway created", zap.Int("catway_number", c.Number()), zap.String("type", kind.String()))
	s.publishCatway(ctx, schema.CatwayCreated, c)

	dto := toCatwayDTO(c)
	return &dto, nil
}

// GetCatway returns a catway by number.
func (s *CatwayService) GetCatway(ctx context.Context, number int) (*CatwayDTO, error) {
	c, err := s.catways.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	dto := toCatwayDTO(c)
	return &dto, nil
}

// ListCatways returns one page of catways ordered by number.
func (s *CatwayService) ListCatways(ctx context.Context, page, limit int) (*domain.PaginatedResult[CatwayDTO], error) {
	list, total, err := s.catways.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]CatwayDTO, len(list))
	for i, c := range list {
		dtos[i] = toCatwayDTO(c)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// UpdateCatway replaces type and state of catway number.
func (s *CatwayService) UpdateCatway(ctx context.Context, number int, req UpdateCatwayRequest) (*CatwayDTO, error) {
	if req.CatwayNumber != nil && *req.CatwayNumber != number {
		return nil, domain.NewValidationError("catwayNumber cannot be changed")
	}
	kind, err := catwayDomain.ParseKind(req.Type)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, number, func(c *catwayDomain.Catway) error {
		if err := c.ChangeKind(kind); err != nil {
			return err
		}
		return c.ChangeState(req.CatwayState)
	})
}

// PatchCatwayState changes only the state of catway number.
func (s *CatwayService) PatchCatwayState(ctx context.Context, number int, req PatchCatwayStateRequest) (*CatwayDTO, error) {
	return s.mutate(ctx, number, func(c *catwayDomain.Catway) error {
		return c.ChangeState(req.CatwayState)
	})
}

func (s *CatwayService) mutate(ctx context.Context, number int, change func(c *catwayDomain.Catway) error) (*CatwayDTO, error) {
	unlock, err := s.guard.lock(ctx, number)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var updated *catwayDomain.Catway
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.catways.FindByNumberForUpdate(ctx, number)
		if err != nil {
			return err
		}
		if err := change(c); err != nil {
			return err
		}
		c.IncrementVersion()
		if err := s.catways.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("catway updated",
		zap.Int("catway_number", number),
		zap.String("type", updated.Kind().String()),
		zap.String("state", updated.State()),
	)
	s.publishCatway(ctx, schema.CatwayUpdated, updated)

	dto := toCatwayDTO(updated)
	return &dto, nil
}

// DeleteCatway removes catway number unless an active reservation still references it.
func (s *CatwayService) DeleteCatway(ctx context.Context, number int) error {
	unlock, err := s.guard.lock(ctx, number)
	if err != nil {
		return err
	}
	defer unlock()

	var deleted *catwayDomain.Catway
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.catways.FindByNumberForUpdate(ctx, number)
		if err != nil {
			return err
		}
		active, err := s.reservations.CountActiveByCatway(ctx, number)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.NewConflictError(fmt.Sprintf(
				"cannot delete: active reservations exist (catway %d has %d)", number, active))
		}
		if err := s.catways.Delete(ctx, number); err != nil {
			return err
		}
		deleted = c
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("catway deleted", zap.Int("catway_number", number))
	s.publishCatway(ctx, schema.CatwayDeleted, deleted)
	return nil
}

func (s *CatwayService) publishCatway(ctx context.Context, eventType string, c *catwayDomain.Catway) {
	evt := schema.CatwayEvent{
		CatwayNumber: c.Number(),
		Type:         c.Kind().String(),
		CatwayState:  c.State(),
		OccurredAt:   time.Now().UTC(),
	}
	s.events.publish(ctx, eventType, schema.CatwaySubject(c.Number()), evt)
}

func toCatwayDTO(c *catwayDomain.Catway) CatwayDTO {
	return CatwayDTO{
		CatwayNumber: c.Number(),
		Type:         c.Kind().String(),
		CatwayState:  c.State(),
		IsAvailable:  c.IsAvailable(),
		Version:      c.Version(),
		CreatedAt:    c.CreatedAt(),
		UpdatedAt:    c.UpdatedAt(),
	}
}
