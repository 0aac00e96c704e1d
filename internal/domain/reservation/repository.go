package reservation

import (
	"context"

	"github.com/google/uuid"
)

// ReservationRepository defines the persistence contract for reservations.
type ReservationRepository interface {
	// FindByID retrieves a reservation by its identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// FindByIDForCatway retrieves a reservation only if it refers to catwayNumber.
	FindByIDForCatway(ctx context.Context, id uuid.UUID, catwayNumber int) (*Reservation, error)

	// ListActiveByCatway returns every active reservation on a catway.
	ListActiveByCatway(ctx context.Context, catwayNumber int) ([]*Reservation, error)

	// CountActiveByCatway counts active reservations on a catway.
	CountActiveByCatway(ctx context.Context, catwayNumber int) (int64, error)

	// ListByCatway returns all reservations on a catway ordered by check-in.
	ListByCatway(ctx context.Context, catwayNumber int) ([]*Reservation, error)

	// ListAll retrieves all reservations ordered by check-in with pagination.
	ListAll(ctx context.Context, page, limit int) ([]*Reservation, int64, error)

	// Save persists a new reservation.
	Save(ctx context.Context, r *Reservation) error

	// Update persists changes with optimistic locking.
	Update(ctx context.Context, r *Reservation) error

	// Delete removes a reservation.
	Delete(ctx context.Context, id uuid.UUID) error
}
