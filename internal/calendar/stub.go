package calendar

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// StubGateway is an in-memory gateway for tests and local development.
type StubGateway struct {
	mu       sync.Mutex
	busy     map[string][]Interval
	events   []stubEvent
	seq      int
	deleted  []string
	listErr  error
	eventErr error
	calls    int
}

type stubEvent struct {
	id  string
	req EventRequest
}

func NewStubGateway() *StubGateway {
	return &StubGateway{busy: make(map[string][]Interval)}
}

// AddBusy registers a busy interval for identity.
func (s *StubGateway) AddBusy(identity string, start, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy[identity] = append(s.busy[identity], Interval{Start: start, End: end})
}

// FailListing makes subsequent ListBusyIntervals calls report Unavailable.
func (s *StubGateway) FailListing(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// FailEvents makes subsequent CreateEvent calls report Unavailable.
func (s *StubGateway) FailEvents(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventErr = err
}

func (s *StubGateway) ListBusyIntervals(_ context.Context, date time.Time, identity string) BusyResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.listErr != nil {
		return BusyUnavailable(s.listErr)
	}
	y, m, d := date.Date()
	var out []Interval
	for _, iv := range s.busy[identity] {
		iy, im, id := iv.Start.In(date.Location()).Date()
		if iy == y && im == m && id == d {
			out = append(out, iv)
		}
	}
	return Busy(out)
}

func (s *StubGateway) CreateEvent(_ context.Context, req EventRequest) EventResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventErr != nil {
		return EventUnavailable(s.eventErr)
	}
	s.seq++
	id := "stub-" + strconv.Itoa(s.seq)
	s.events = append(s.events, stubEvent{id: id, req: req})
	return Created(id)
}

func (s *StubGateway) DeleteEvent(_ context.Context, eventID string) EventResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventErr != nil {
		return EventUnavailable(s.eventErr)
	}
	for i, ev := range s.events {
		if ev.id == eventID {
			s.events = append(s.events[:i], s.events[i+1:]...)
			break
		}
	}
	s.deleted = append(s.deleted, eventID)
	return Removed(eventID)
}

// Events returns the events that currently exist.
func (s *StubGateway) Events() []EventRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventRequest, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.req)
	}
	return out
}

// Deleted returns the ids passed to DeleteEvent.
func (s *StubGateway) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// ListCalls returns how many busy lookups were made.
func (s *StubGateway) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var _ Gateway = (*StubGateway)(nil)
