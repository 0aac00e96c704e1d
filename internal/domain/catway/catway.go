// Package catway models the marina's berths.
package catway

import (
	"strconv"
	"strings"
	"time"

	"github.com/port-russell/service-marina/internal/platform/domain"
)

// Catway is a berth, identified by its number.
type Catway struct {
	number      int
	kind        Kind
	state       string
	isAvailable bool

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewCatway creates an available Catway.
func NewCatway(number int, kind Kind, state string) (*Catway, error) {
	if number < 1 {
		return nil, domain.NewValidationError("catwayNumber must be a positive integer")
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	state = strings.TrimSpace(state)
	if state == "" {
		return nil, domain.NewValidationError("catwayState is required")
	}

	now := time.Now().UTC()
	return &Catway{
		number:      number,
		kind:        kind,
		state:       state,
		isAvailable: true,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructCatway rebuilds a Catway from persistence data (no validation).
func ReconstructCatway(
	number int,
	kind Kind,
	state string,
	isAvailable bool,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Catway {
	return &Catway{
		number:      number,
		kind:        kind,
		state:       state,
		isAvailable: isAvailable,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// Number returns the berth number.
func (c *Catway) Number() int { return c.number }

// Kind returns the berth length class.
func (c *Catway) Kind() Kind { return c.kind }

// State returns the free-text condition description.
func (c *Catway) State() string { return c.state }

// IsAvailable reports whether no active reservation references the berth.
func (c *Catway) IsAvailable() bool { return c.isAvailable }

// Version returns the entity version for optimistic locking.
func (c *Catway) Version() int64 { return c.version }

// CreatedAt returns the creation timestamp.
func (c *Catway) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (c *Catway) UpdatedAt() time.Time { return c.updatedAt }

// Key returns the number as a string, for logs, errors and event subjects.
func (c *Catway) Key() string { return strconv.Itoa(c.number) }

// ChangeKind sets the length class.
func (c *Catway) ChangeKind(kind Kind) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	c.kind = kind
	c.touch()
	return nil
}

// ChangeState sets the condition description. It is stored trimmed.
func (c *Catway) ChangeState(state string) error {
	state = strings.TrimSpace(state)
	if state == "" {
		return domain.NewValidationError("catwayState is required")
	}
	c.state = state
	c.touch()
	return nil
}

// SetAvailability records the derived availability flag. It reports whether the value changed.
func (c *Catway) SetAvailability(available bool) bool {
	if c.isAvailable == available {
		return false
	}
	c.isAvailable = available
	c.touch()
	return true
}

// IncrementVersion bumps the version for optimistic locking.
func (c *Catway) IncrementVersion() {
	c.version++
	c.touch()
}

func (c *Catway) touch() {
	c.updatedAt = time.Now().UTC()
}
