package bookings

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound   = errors.New("bookings: booking not found")
	ErrInvalidTransition = errors.New("bookings: invalid status transition")
	// ErrSlotTaken is returned by stores when an active booking already
	// holds the same (date, time, staff).
	ErrSlotTaken = errors.New("bookings: slot already taken")
)

// ValidationError reports a request that references unknown or malformed data.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bookings: invalid %s: %s", e.Field, e.Reason)
}

// Conflict sources.
const (
	ConflictLocal    = "local"
	ConflictCalendar = "calendar"
	ConflictStore    = "store"
)

// ConflictError reports that a slot is no longer bookable.
type ConflictError struct {
	Date    string
	Time    string
	StaffID string
	Source  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("bookings: slot %s %s for staff %s is no longer available (%s)", e.Date, e.Time, e.StaffID, e.Source)
}

// TransitionError wraps ErrInvalidTransition with the offending states.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
