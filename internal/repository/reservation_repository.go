package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	reservationDomain "github.com/port-russell/service-marina/internal/domain/reservation"
	"github.com/port-russell/service-marina/internal/platform/database"
	"github.com/port-russell/service-marina/internal/platform/domain"
)

// ReservationModel is the GORM model for the reservations table.
type ReservationModel struct {
	ID           UUID `gorm:"primaryKey"`
	CatwayNumber int       `gorm:"not null;index:idx_reservations_catway_status,priority:1"`
	ClientName   string    `gorm:"not null;size:200"`
	BoatName     string    `gorm:"not null;size:200"`
	CheckIn      time.Time `gorm:"not null;index"`
	CheckOut     time.Time `gorm:"not null"`
	Status       string    `gorm:"not null;size:20;index:idx_reservations_catway_status,priority:2"`
	Version      int64     `gorm:"not null;default:1"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReservationModel) TableName() string {
	return "reservations"
}

// GormReservationRepository is the GORM-based implementation of ReservationRepository.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository.
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID retrieves a reservation by its identifier.
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservationDomain.Reservation, error) {
	var model ReservationModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reservation", id.String())
		}
		return nil, fmt.Errorf("failed to find reservation by ID: %w", err)
	}
	return toDomainReservation(&model)
}

// FindByIDForCatway retrieves a reservation only if it refers to catwayNumber.
func (r *GormReservationRepository) FindByIDForCatway(ctx context.Context, id uuid.UUID, catwayNumber int) (*reservationDomain.Reservation, error) {
	var model ReservationModel
	err := database.Conn(ctx, r.db).
		Where("id = ? AND catway_number = ?", id, catwayNumber).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reservation", id.String())
		}
		return nil, fmt.Errorf("failed to find reservation for catway: %w", err)
	}
	return toDomainReservation(&model)
}

// ListActiveByCatway returns every active reservation on a catway.
func (r *GormReservationRepository) ListActiveByCatway(ctx context.Context, catwayNumber int) ([]*reservationDomain.Reservation, error) {
	var models []ReservationModel
	if err := database.Conn(ctx, r.db).
		Where("catway_number = ? AND status = ?", catwayNumber, string(reservationDomain.StatusActive)).
		Order("check_in ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list active reservations: %w", err)
	}
	return toDomainReservations(models)
}

// CountActiveByCatway counts active reservations on a catway.
func (r *GormReservationRepository) CountActiveByCatway(ctx context.Context, catwayNumber int) (int64, error) {
	var n int64
	if err := database.Conn(ctx, r.db).
		Model(&ReservationModel{}).
		Where("catway_number = ? AND status = ?", catwayNumber, string(reservationDomain.StatusActive)).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count active reservations: %w", err)
	}
	return n, nil
}

// ListByCatway returns all reservations on a catway ordered by check-in.
func (r *GormReservationRepository) ListByCatway(ctx context.Context, catwayNumber int) ([]*reservationDomain.Reservation, error) {
	var models []ReservationModel
	if err := database.Conn(ctx, r.db).
		Where("catway_number = ?", catwayNumber).
		Order("check_in ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list catway reservations: %w", err)
	}
	return toDomainReservations(models)
}

// ListAll retrieves all reservations ordered by check-in with pagination.
func (r *GormReservationRepository) ListAll(ctx context.Context, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	db := database.Conn(ctx, r.db)

	var total int64
	if err := db.Model(&ReservationModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	var models []ReservationModel
	offset := (page - 1) * limit
	if err := db.Order("check_in ASC").Order("id ASC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}

	out, err := toDomainReservations(models)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Save persists a new reservation.
func (r *GormReservationRepository) Save(ctx context.Context, res *reservationDomain.Reservation) error {
	if err := database.Conn(ctx, r.db).Create(toReservationModel(res)).Error; err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

// Update persists changes with optimistic locking.
func (r *GormReservationRepository) Update(ctx context.Context, res *reservationDomain.Reservation) error {
	model := toReservationModel(res)

	expectedVersion := res.Version() - 1
	result := database.Conn(ctx, r.db).
		Model(&ReservationModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"catway_number": model.CatwayNumber,
			"client_name":   model.ClientName,
			"boat_name":     model.BoatName,
			"check_in":      model.CheckIn,
			"check_out":     model.CheckOut,
			"status":        model.Status,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("reservation was modified by another transaction")
	}
	return nil
}

// Delete removes a reservation.
func (r *GormReservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&ReservationModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Reservation", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toReservationModel(res *reservationDomain.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:           UUID(res.ID()),
		CatwayNumber: res.CatwayNumber(),
		ClientName:   res.ClientName(),
		BoatName:     res.BoatName(),
		CheckIn:      res.CheckIn().UTC(),
		CheckOut:     res.CheckOut().UTC(),
		Status:       string(res.Status()),
		Version:      res.Version(),
		CreatedAt:    res.CreatedAt(),
		UpdatedAt:    res.UpdatedAt(),
	}
}

func toDomainReservation(m *ReservationModel) (*reservationDomain.Reservation, error) {
	status, err := reservationDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", m.ID, err)
	}
	return reservationDomain.ReconstructReservation(
		uuid.UUID(m.ID),
		m.CatwayNumber,
		m.ClientName,
		m.BoatName,
		m.CheckIn,
		m.CheckOut,
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainReservations(models []ReservationModel) ([]*reservationDomain.Reservation, error) {
	out := make([]*reservationDomain.Reservation, len(models))
	for i := range models {
		res, err := toDomainReservation(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}
