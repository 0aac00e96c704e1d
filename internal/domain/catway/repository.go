package catway

import "context"

// CatwayRepository defines the persistence contract for catways.
type CatwayRepository interface {
	// FindByNumber retrieves a catway by its number.
	FindByNumber(ctx context.Context, number int) (*Catway, error)

	// FindByNumberForUpdate retrieves a catway and, on databases that support it,
	// locks its row until the surrounding transaction ends.
	FindByNumberForUpdate(ctx context.Context, number int) (*Catway, error)

	// List retrieves catways ordered by number with pagination.
	List(ctx context.Context, page, limit int) ([]*Catway, int64, error)

	// Save persists a new catway. A duplicate number is a validation error.
	Save(ctx context.Context, c *Catway) error

	// Update persists kind and state with optimistic locking.
	Update(ctx context.Context, c *Catway) error

	// SetAvailability writes only the derived availability flag.
	SetAvailability(ctx context.Context, number int, available bool) error

	// Delete removes a catway.
	Delete(ctx context.Context, number int) error
}
