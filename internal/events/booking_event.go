package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
)

// Booking event types.
const (
	TypeBookingCreated = "booking.created"
	TypeBookingUpdated = "booking.updated"
	TypeBookingDeleted = "booking.deleted"
)

// BookingEvent is the envelope published to every sink.
type BookingEvent struct {
	EventID    string           `json:"event_id"`
	Type       string           `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	BookingID  string           `json:"booking_id"`
	Booking    bookings.Booking `json:"booking"`
}

// FromChange wraps a store change in a new envelope.
func FromChange(change bookings.ChangeEvent) BookingEvent {
	return BookingEvent{
		EventID:    uuid.NewString(),
		Type:       typeFor(change.Type),
		OccurredAt: change.At.UTC(),
		BookingID:  change.BookingID,
		Booking:    change.Booking,
	}
}

func typeFor(ct bookings.ChangeType) string {
	switch ct {
	case bookings.ChangeCreated:
		return TypeBookingCreated
	case bookings.ChangeDeleted:
		return TypeBookingDeleted
	default:
		return TypeBookingUpdated
	}
}

// Sink delivers booking events to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, evt BookingEvent) error
}
