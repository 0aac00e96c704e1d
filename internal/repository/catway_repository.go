package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	catwayDomain "github.com/port-russell/service-marina/internal/domain/catway"
	"github.com/port-russell/service-marina/internal/platform/database"
	"github.com/port-russell/service-marina/internal/platform/domain"
)

// CatwayModel is the GORM model for the catways table.
type CatwayModel struct {
	Number      int       `gorm:"primaryKey;autoIncrement:false"`
	Kind        string    `gorm:"not null;size:10"`
	State       string    `gorm:"not null;size:500"`
	IsAvailable bool      `gorm:"not null;index"`
	Version     int64     `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (CatwayModel) TableName() string {
	return "catways"
}

// GormCatwayRepository is the GORM-based implementation of CatwayRepository.
type GormCatwayRepository struct {
	db *gorm.DB
}

// NewGormCatwayRepository creates a new GormCatwayRepository.
func NewGormCatwayRepository(db *gorm.DB) *GormCatwayRepository {
	return &GormCatwayRepository{db: db}
}

// FindByNumber retrieves a catway by its number.
func (r *GormCatwayRepository) FindByNumber(ctx context.Context, number int) (*catwayDomain.Catway, error) {
	return r.find(database.Conn(ctx, r.db), number)
}

// FindByNumberForUpdate retrieves a catway, taking a row lock where the dialect allows it.
func (r *GormCatwayRepository) FindByNumberForUpdate(ctx context.Context, number int) (*catwayDomain.Catway, error) {
	q := database.Conn(ctx, r.db)
	if database.InTx(ctx) && database.SupportsRowLocks(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.find(q, number)
}

func (r *GormCatwayRepository) find(q *gorm.DB, number int) (*catwayDomain.Catway, error) {
	var model CatwayModel
	if err := q.Where("number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Catway", strconv.Itoa(number))
		}
		return nil, fmt.Errorf("failed to find catway by number: %w", err)
	}
	return toDomainCatway(&model), nil
}

// List retrieves catways ordered by number with pagination.
func (r *GormCatwayRepository) List(ctx context.Context, page, limit int) ([]*catwayDomain.Catway, int64, error) {
	db := database.Conn(ctx, r.db)

	var total int64
	if err := db.Model(&CatwayModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count catways: %w", err)
	}

	var models []CatwayModel
	offset := (page - 1) * limit
	if err := db.Order("number ASC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list catways: %w", err)
	}

	catways := make([]*catwayDomain.Catway, len(models))
	for i := range models {
		catways[i] = toDomainCatway(&models[i])
	}
	return catways, total, nil
}

// Save persists a new catway.
func (r *GormCatwayRepository) Save(ctx context.Context, c *catwayDomain.Catway) error {
	db := database.Conn(ctx, r.db)
	duplicate := domain.NewValidationError(fmt.Sprintf("catway %d already exists", c.Number()))

	var n int64
	if err := db.Model(&CatwayModel{}).Where("number = ?", c.Number()).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check catway number: %w", err)
	}
	if n > 0 {
		return duplicate
	}

	if err := db.Create(toCatwayModel(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return duplicate
		}
		return fmt.Errorf("failed to save catway: %w", err)
	}
	return nil
}

// Update persists kind and state with optimistic locking.
func (r *GormCatwayRepository) Update(ctx context.Context, c *catwayDomain.Catway) error {
	expectedVersion := c.Version() - 1
	result := database.Conn(ctx, r.db).
		Model(&CatwayModel{}).
		Where("number = ? AND version = ?", c.Number(), expectedVersion).
		Updates(map[string]interface{}{
			"kind":       string(c.Kind()),
			"state":      c.State(),
			"version":    c.Version(),
			"updated_at": c.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update catway: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("catway was modified by another transaction")
	}
	return nil
}

// SetAvailability writes only the derived availability flag.
func (r *GormCatwayRepository) SetAvailability(ctx context.Context, number int, available bool) error {
	result := database.Conn(ctx, r.db).
		Model(&CatwayModel{}).
		Where("number = ?", number).
		Updates(map[string]interface{}{
			"is_available": available,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set catway availability: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Catway", strconv.Itoa(number))
	}
	return nil
}

// Delete removes a catway.
func (r *GormCatwayRepository) Delete(ctx context.Context, number int) error {
	result := database.Conn(ctx, r.db).Where("number = ?", number).Delete(&CatwayModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete catway: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Catway", strconv.Itoa(number))
	}
	return nil
}

// --- Conversion Helpers ---

func toCatwayModel(c *catwayDomain.Catway) *CatwayModel {
	return &CatwayModel{
		Number:      c.Number(),
		Kind:        string(c.Kind()),
		State:       c.State(),
		IsAvailable: c.IsAvailable(),
		Version:     c.Version(),
		CreatedAt:   c.CreatedAt(),
		UpdatedAt:   c.UpdatedAt(),
	}
}

func toDomainCatway(m *CatwayModel) *catwayDomain.Catway {
	return catwayDomain.ReconstructCatway(
		m.Number,
		catwayDomain.Kind(m.Kind),
		m.State,
		m.IsAvailable,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
