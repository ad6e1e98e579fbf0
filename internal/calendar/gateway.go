package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is reported when no external calendar is wired.
var ErrNotConfigured = errors.New("calendar: integration not configured")

// Status tags the outcome of a gateway call.
type Status int

const (
	StatusOK Status = iota
	StatusUnavailable
)

func (s Status) String() string {
	if s == StatusOK {
		return "ok"
	}
	return "unavailable"
}

// Interval is a half-open busy range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Covers reports whether t falls inside the interval.
func (i Interval) Covers(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// BusyResult is either Ok(intervals) or Unavailable(reason).
type BusyResult struct {
	Status    Status
	Intervals []Interval
	Reason    error
}

// Busy wraps intervals in an Ok result.
func Busy(intervals []Interval) BusyResult {
	return BusyResult{Status: StatusOK, Intervals: intervals}
}

// BusyUnavailable wraps a failure.
func BusyUnavailable(reason error) BusyResult {
	return BusyResult{Status: StatusUnavailable, Reason: reason}
}

// OK reports whether the gateway answered.
func (r BusyResult) OK() bool { return r.Status == StatusOK }

// Covers reports whether any interval covers t. Unavailable results never do.
func (r BusyResult) Covers(t time.Time) bool {
	if !r.OK() {
		return false
	}
	for _, iv := range r.Intervals {
		if iv.Covers(t) {
			return true
		}
	}
	return false
}

// EventRequest describes a mirrored calendar event.
type EventRequest struct {
	Summary          string
	Description      string
	Location         string
	Start            time.Time
	End              time.Time
	AttendeeIdentity string
}

// EventResult is either Ok(eventID) or Unavailable(reason).
type EventResult struct {
	Status  Status
	EventID string
	Reason  error
}

// Created wraps the id of a created event.
func Created(eventID string) EventResult {
	return EventResult{Status: StatusOK, EventID: eventID}
}

// EventUnavailable wraps a failure.
func EventUnavailable(reason error) EventResult {
	return EventResult{Status: StatusUnavailable, Reason: reason}
}

// Removed reports a deleted event.
func Removed(eventID string) EventResult {
	return EventResult{Status: StatusOK, EventID: eventID}
}

func (r EventResult) OK() bool { return r.Status == StatusOK }

// Gateway is the external calendar capability. Implementations never return
// errors directly; failures are reported through the result's Status.
type Gateway interface {
	ListBusyIntervals(ctx context.Context, date time.Time, identity string) BusyResult
	CreateEvent(ctx context.Context, req EventRequest) EventResult
	// DeleteEvent withdraws an event created by CreateEvent.
	DeleteEvent(ctx context.Context, eventID string) EventResult
}

// Disabled is the gateway used when no calendar is configured.
type Disabled struct{}

func (Disabled) ListBusyIntervals(context.Context, time.Time, string) BusyResult {
	return BusyUnavailable(ErrNotConfigured)
}

func (Disabled) CreateEvent(context.Context, EventRequest) EventResult {
	return EventUnavailable(ErrNotConfigured)
}

func (Disabled) DeleteEvent(context.Context, string) EventResult {
	return EventUnavailable(ErrNotConfigured)
}

var _ Gateway = Disabled{}
