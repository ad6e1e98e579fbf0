package bookings

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps bookings in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]Booking
	hub      *hub
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[string]Booking),
		hub:      newHub(),
		now:      time.Now,
	}
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if filter.matches(b) {
			out = append(out, b.clone())
		}
	}
	sortBookings(out)
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	b = b.clone()
	return &b, nil
}

func (s *MemoryStore) Insert(_ context.Context, b Booking) error {
	s.mu.Lock()
	if _, exists := s.bookings[b.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("bookings: duplicate id %s", b.ID)
	}
	if b.Active() {
		for _, existing := range s.bookings {
			if existing.Active() && existing.SameSlot(b.Date, b.Time, b.Staff.ID) {
				s.mu.Unlock()
				return ErrSlotTaken
			}
		}
	}
	s.bookings[b.ID] = b.clone()
	s.mu.Unlock()

	s.hub.publish(ChangeEvent{Type: ChangeCreated, BookingID: b.ID, Booking: b.clone(), At: s.now()})
	return nil
}

func (s *MemoryStore) Update(_ context.Context, id string, patch Patch) (*Booking, error) {
	s.mu.Lock()
	b, ok := s.bookings[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrBookingNotFound
	}
	patch.apply(&b, s.now())
	s.bookings[id] = b
	s.mu.Unlock()

	s.hub.publish(ChangeEvent{Type: ChangeUpdated, BookingID: id, Booking: b.clone(), At: b.UpdatedAt})
	out := b.clone()
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	b, ok := s.bookings[id]
	if !ok {
		s.mu.Unlock()
		return ErrBookingNotFound
	}
	delete(s.bookings, id)
	s.mu.Unlock()

	s.hub.publish(ChangeEvent{Type: ChangeDeleted, BookingID: id, Booking: b.clone(), At: s.now()})
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return s.hub.subscribe(ctx), nil
}

func (s *MemoryStore) SubscribeLocal(ctx context.Context) (<-chan ChangeEvent, error) {
	return s.hub.subscribe(ctx), nil
}

func sortBookings(list []Booking) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date < list[j].Date
		}
		if list[i].Time != list[j].Time {
			return list[i].Time < list[j].Time
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

var _ Store = (*MemoryStore)(nil)
