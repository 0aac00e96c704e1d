package reservation

import (
	"time"

	"github.com/port-russell/service-marina/internal/platform/domain"
)

// Interval is the half-open stay [CheckIn, CheckOut).
type Interval struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewInterval builds an Interval, rejecting empty and inverted ranges.
func NewInterval(checkIn, checkOut time.Time) (Interval, error) {
	iv := Interval{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate checks that CheckOut is strictly after CheckIn.
func (iv Interval) Validate() error {
	if iv.CheckIn.IsZero() {
		return domain.NewValidationError("checkIn is required")
	}
	if iv.CheckOut.IsZero() {
		return domain.NewValidationError("checkOut is required")
	}
	if !iv.CheckOut.After(iv.CheckIn) {
		return domain.NewValidationError("checkOut must be after checkIn")
	}
	return nil
}

// Overlaps reports whether iv and other share any instant. Touching ranges do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(iv.CheckOut)
}

// Equal reports whether both bounds are the same instants.
func (iv Interval) Equal(other Interval) bool {
	return iv.CheckIn.Equal(other.CheckIn) && iv.CheckOut.Equal(other.CheckOut)
}
