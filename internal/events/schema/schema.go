// Package schema defines the topics, event types and payloads exchanged with
// other harbour services.
package schema

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source identifies this service in the CloudEvents source attribute.
const Source = "service-marina"

// Topics.
const (
	TopicMarinaEvents  = "marina.events"
	TopicHarbourEvents = "harbour.events"
)

// Event types published on TopicMarinaEvents.
const (
	ReservationCreated        = "marina.reservation.created"
	ReservationUpdated        = "marina.reservation.updated"
	ReservationDeleted        = "marina.reservation.deleted"
	ReservationCompleted      = "marina.reservation.completed"
	CatwayCreated             = "marina.catway.created"
	CatwayUpdated             = "marina.catway.updated"
	CatwayDeleted             = "marina.catway.deleted"
	CatwayAvailabilityChanged = "marina.catway.availability_changed"
)

// Event types consumed from TopicHarbourEvents.
const (
	BoatDeparted = "harbour.boat.departed"
)

// CatwaySubject is the CloudEvents subject for events about one berth.
func CatwaySubject(number int) string {
	return fmt.Sprintf("catway/%d", number)
}

// ReservationEvent is the payload of every marina.reservation.* event.
type ReservationEvent struct {
	ReservationID uuid.UUID `json:"reservationId"`
	CatwayNumber  int       `json:"catwayNumber"`
	ClientName    string    `json:"clientName"`
	BoatName      string    `json:"boatName"`
	CheckIn       time.Time `json:"checkIn"`
	CheckOut      time.Time `json:"checkOut"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// CatwayEvent is the payload of marina.catway.created, updated and deleted.
type CatwayEvent struct {
	CatwayNumber int       `json:"catwayNumber"`
	Type         string    `json:"type"`
	CatwayState  string    `json:"catwayState"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// AvailabilityChangedEvent is published when a berth's availability flag flips.
// ActiveReservations is absent when the flag was set without a recount.
type AvailabilityChangedEvent struct {
	CatwayNumber       int       `json:"catwayNumber"`
	IsAvailable        bool      `json:"isAvailable"`
	ActiveReservations *int64    `json:"activeReservations,omitempty"`
	OccurredAt         time.Time `json:"occurredAt"`
}

// BoatDepartedEvent is emitted by the harbour master's office when a boat leaves its berth.
type BoatDepartedEvent struct {
	ReservationID uuid.UUID `json:"reservationId"`
	CatwayNumber  int       `json:"catwayNumber"`
	DepartedAt    time.Time `json:"departedAt"`
}
