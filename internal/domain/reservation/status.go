package reservation

import (
	"fmt"

	"github.com/port-russell/service-marina/internal/platform/domain"
)

// Status is the lifecycle state of a reservation. Any status may follow any other.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the reservation occupies its berth.
func (s Status) IsActive() bool { return s == StatusActive }

// String returns the string representation of the status.
func (s Status) String() string { return string(s) }

// ParseStatus converts s to a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid reservation status: %q", s))
	}
	return status, nil
}
