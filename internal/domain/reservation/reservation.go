// Package reservation models time-boxed berth reservations and the rule that
// keeps active stays on one berth from overlapping.
package reservation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/port-russell/service-marina/internal/platform/domain"
)

// Reservation is the aggregate root for a boat's stay on a catway.
type Reservation struct {
	id           uuid.UUID
	catwayNumber int
	clientName   string
	boatName     string
	interval     Interval
	status       Status

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewReservation creates an active reservation. checkIn must be after now.
func NewReservation(
	catwayNumber int,
	clientName string,
	boatName string,
	checkIn time.Time,
	checkOut time.Time,
	now time.Time,
) (*Reservation, error) {
	if catwayNumber < 1 {
		return nil, domain.NewValidationError("catwayNumber must be a positive integer")
	}
	clientName, err := requiredText("clientName", clientName)
	if err != nil {
		return nil, err
	}
	boatName, err = requiredText("boatName", boatName)
	if err != nil {
		return nil, err
	}
	iv, err := NewInterval(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if !iv.CheckIn.After(now) {
		return nil, domain.NewValidationError("checkIn must be in the future")
	}

	ts := now.UTC()
	return &Reservation{
		id:           uuid.New(),
		catwayNumber: catwayNumber,
		clientName:   clientName,
		boatName:     boatName,
		interval:     iv,
		status:       StatusActive,
		version:      1,
		createdAt:    ts,
		updatedAt:    ts,
	}, nil
}

// ReconstructReservation rebuilds a Reservation from persistence data (no validation).
func ReconstructReservation(
	id uuid.UUID,
	catwayNumber int,
	clientName string,
	boatName string,
	checkIn time.Time,
	checkOut time.Time,
	status Status,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:           id,
		catwayNumber: catwayNumber,
		clientName:   clientName,
		boatName:     boatName,
		interval:     Interval{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()},
		status:       status,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

// ID returns the reservation's unique identifier.
func (r *Reservation) ID() uuid.UUID { return r.id }

// CatwayNumber returns the number of the berth the reservation refers to.
func (r *Reservation) CatwayNumber() int { return r.catwayNumber }

// ClientName returns the trimmed client name.
func (r *Reservation) ClientName() string { return r.clientName }

// BoatName returns the trimmed boat name.
func (r *Reservation) BoatName() string { return r.boatName }

// Interval returns the stay.
func (r *Reservation) Interval() Interval { return r.interval }

// CheckIn returns the start of the stay.
func (r *Reservation) CheckIn() time.Time { return r.interval.CheckIn }

// CheckOut returns the end of the stay.
func (r *Reservation) CheckOut() time.Time { return r.interval.CheckOut }

// Status returns the lifecycle status.
func (r *Reservation) Status() Status { return r.status }

// Version returns the entity version for optimistic locking.
func (r *Reservation) Version() int64 { return r.version }

// CreatedAt returns the creation timestamp.
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }

// --- Behavior ---

// Revision is a partial update. Nil fields are left unchanged.
type Revision struct {
	CatwayNumber *int
	ClientName   *string
	BoatName     *string
	CheckIn      *time.Time
	CheckOut     *time.Time
	Status       *Status
}

// Effect describes what a revision changed.
type Effect struct {
	PreviousCatway  int
	PreviousStatus  Status
	CatwayChanged   bool
	IntervalChanged bool
	StatusChanged   bool
}

// NeedsOverlapCheck reports whether the revised reservation must be checked
// against the other active reservations on its berth: it is active and it
// moved in time, moved berth or was just re-activated.
func (e Effect) NeedsOverlapCheck(current Status) bool {
	if !current.IsActive() {
		return false
	}
	return e.IntervalChanged || e.CatwayChanged || (e.StatusChanged && !e.PreviousStatus.IsActive())
}

// AffectsAvailability reports whether any berth's availability may have changed.
func (e Effect) AffectsAvailability() bool {
	return e.CatwayChanged || e.StatusChanged
}

// Revise applies rev. Either every field is applied or, on a validation error,
// none is. A changed checkIn must be after now; checkOut must stay after checkIn.
func (r *Reservation) Revise(rev Revision, now time.Time) (Effect, error) {
	effect := Effect{PreviousCatway: r.catwayNumber, PreviousStatus: r.status}

	catwayNumber := r.catwayNumber
	if rev.CatwayNumber != nil {
		if *rev.CatwayNumber < 1 {
			return Effect{}, domain.NewValidationError("catwayNumber must be a positive integer")
		}
		catwayNumber = *rev.CatwayNumber
	}

	clientName := r.clientName
	if rev.ClientName != nil {
		v, err := requiredText("clientName", *rev.ClientName)
		if err != nil {
			return Effect{}, err
		}
		clientName = v
	}

	boatName := r.boatName
	if rev.BoatName != nil {
		v, err := requiredText("boatName", *rev.BoatName)
		if err != nil {
			return Effect{}, err
		}
		boatName = v
	}

	iv := r.interval
	if rev.CheckIn != nil {
		iv.CheckIn = rev.CheckIn.UTC()
	}
	if rev.CheckOut != nil {
		iv.CheckOut = rev.CheckOut.UTC()
	}
	if err := iv.Validate(); err != nil {
		return Effect{}, err
	}
	if !iv.CheckIn.Equal(r.interval.CheckIn) && !iv.CheckIn.After(now) {
		return Effect{}, domain.NewValidationError("checkIn must be in the future")
	}

	status := r.status
	if rev.Status != nil {
		if !rev.Status.IsValid() {
			_, err := ParseStatus(string(*rev.Status))
			return Effect{}, err
		}
		status = *rev.Status
	}

	effect.CatwayChanged = catwayNumber != r.catwayNumber
	effect.IntervalChanged = !iv.Equal(r.interval)
	effect.StatusChanged = status != r.status

	r.catwayNumber = catwayNumber
	r.clientName = clientName
	r.boatName = boatName
	r.interval = iv
	r.status = status
	r.updatedAt = now.UTC()
	return effect, nil
}

// Complete marks the stay as finished. It reports whether the status changed.
func (r *Reservation) Complete(now time.Time) bool {
	if r.status == StatusCompleted {
		return false
	}
	r.status = StatusCompleted
	r.updatedAt = now.UTC()
	return true
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Reservation) IncrementVersion() {
	r.version++
}

func requiredText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", domain.NewValidationError(field + " is required")
	}
	return v, nil
}
