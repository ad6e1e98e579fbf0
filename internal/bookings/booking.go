package bookings

import (
	"time"

	"github.com/wolfman30/salon-scheduler/internal/catalog"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the state machine:
// pending -> confirmed, pending -> cancelled, confirmed -> cancelled.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	}
	return false
}

// Booking is a client appointment. Service and Staff are snapshots taken at
// creation and never follow later catalog edits.
type Booking struct {
	ID               string          `json:"id"`
	ClientName       string          `json:"client_name"`
	ClientPhone      string          `json:"client_phone"`
	Service          catalog.Service `json:"service"`
	Staff            catalog.Staff   `json:"staff"`
	Date             string          `json:"date"`
	Time             string          `json:"time"`
	Status           Status          `json:"status"`
	Notes            string          `json:"notes,omitempty"`
	CalendarEventID  string          `json:"calendar_event_id,omitempty"`
	CalendarMirrored bool            `json:"calendar_mirrored"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Active reports whether the booking still holds its slot.
func (b Booking) Active() bool {
	return b.Status != StatusCancelled
}

// SameSlot reports whether b occupies (date, time, staffID).
func (b Booking) SameSlot(date, clock, staffID string) bool {
	return b.Date == date && b.Time == clock && b.Staff.ID == staffID
}

func (b Booking) clone() Booking {
	b.Staff = b.Staff.Clone()
	return b
}

// Form is the client's booking request.
type Form struct {
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	ServiceID   string `json:"service_id"`
	StaffID     string `json:"staff_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Notes       string `json:"notes,omitempty"`
}

// TimeSlot is a computed grid slot.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status     Status
	Date       string
	StaffID    string
	ActiveOnly bool
}

func (f Filter) matches(b Booking) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.Date != "" && b.Date != f.Date {
		return false
	}
	if f.StaffID != "" && b.Staff.ID != f.StaffID {
		return false
	}
	if f.ActiveOnly && !b.Active() {
		return false
	}
	return true
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Status           *Status
	Notes            *string
	CalendarEventID  *string
	CalendarMirrored *bool
}

func (p Patch) apply(b *Booking, now time.Time) {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	if p.CalendarEventID != nil {
		b.CalendarEventID = *p.CalendarEventID
	}
	if p.CalendarMirrored != nil {
		b.CalendarMirrored = *p.CalendarMirrored
	}
	b.UpdatedAt = now
}
