package bookings

import (
	"context"
	"sync"
	"time"
)

// ChangeType names a mutation of the booking collection.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// ChangeEvent is delivered to subscribers after a successful mutation.
type ChangeEvent struct {
	Type      ChangeType `json:"type"`
	BookingID string     `json:"booking_id"`
	Booking   Booking    `json:"booking"`
	At        time.Time  `json:"at"`
}

// Store is the durable booking collection. Implementations reload from their
// backing state on every call; none of them cache.
type Store interface {
	List(ctx context.Context, filter Filter) ([]Booking, error)
	Get(ctx context.Context, id string) (*Booking, error)
	Insert(ctx context.Context, b Booking) error
	Update(ctx context.Context, id string, patch Patch) (*Booking, error)
	Delete(ctx context.Context, id string) error
	// Subscribe streams change events until ctx is cancelled, then closes
	// the channel.
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
	// SubscribeLocal streams only the changes made through this store
	// instance, for consumers that must see each change exactly once
	// across processes.
	SubscribeLocal(ctx context.Context) (<-chan ChangeEvent, error)
}

const subscriberBuffer = 32

// hub fans change events out to in-process subscribers. Slow subscribers
// lose events instead of blocking writers.
type hub struct {
	mu   sync.Mutex
	subs map[int]chan ChangeEvent
	next int
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan ChangeEvent)}
}

func (h *hub) subscribe(ctx context.Context) <-chan ChangeEvent {
	ch := make(chan ChangeEvent, subscriberBuffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

func (h *hub) publish(evt ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
