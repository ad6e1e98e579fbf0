package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

const (
	redisBookingsKey    = "salon:bookings"
	redisChangesChannel = "salon:bookings:changes"
)

// RedisStore keeps bookings as JSON in a Redis hash. Active slots are claimed
// with SETNX and changes are broadcast on a pub/sub channel, so every API
// process sees every other process's writes. Local writes are also fanned out
// in-process for SubscribeLocal.
type RedisStore struct {
	client *redis.Client
	logger *logging.Logger
	local  *hub
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, logger *logging.Logger) *RedisStore {
	if client == nil {
		panic("bookings: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{client: client, logger: logger, local: newHub(), now: time.Now}
}

func slotKey(staffID, date, clock string) string {
	return fmt.Sprintf("salon:bookings:slot:%s:%s:%s", staffID, date, clock)
}

func (s *RedisStore) List(ctx context.Context, filter Filter) ([]Booking, error) {
	raw, err := s.client.HGetAll(ctx, redisBookingsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("bookings: redis list: %w", err)
	}
	out := make([]Booking, 0, len(raw))
	for id, data := range raw {
		var b Booking
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			s.logger.Warn("skipping unreadable booking", "booking_id", id, "error", err)
			continue
		}
		if filter.matches(b) {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Booking, error) {
	data, err := s.client.HGet(ctx, redisBookingsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: redis get: %w", err)
	}
	var b Booking
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("bookings: decode %s: %w", id, err)
	}
	return &b, nil
}

func (s *RedisStore) Insert(ctx context.Context, b Booking) error {
	exists, err := s.client.HExists(ctx, redisBookingsKey, b.ID).Result()
	if err != nil {
		return fmt.Errorf("bookings: redis insert: %w", err)
	}
	if exists {
		return fmt.Errorf("bookings: duplicate id %s", b.ID)
	}

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("bookings: encode %s: %w", b.ID, err)
	}

	claim := slotKey(b.Staff.ID, b.Date, b.Time)
	if b.Active() {
		claimed, err := s.client.SetNX(ctx, claim, b.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("bookings: redis claim slot: %w", err)
		}
		if !claimed {
			return ErrSlotTaken
		}
	}
	if err := s.client.HSet(ctx, redisBookingsKey, b.ID, data).Err(); err != nil {
		if b.Active() {
			s.client.Del(ctx, claim)
		}
		return fmt.Errorf("bookings: redis insert: %w", err)
	}

	s.publish(ctx, ChangeEvent{Type: ChangeCreated, BookingID: b.ID, Booking: b, At: s.now()})
	return nil
}

func (s *RedisStore) Update(ctx context.Context, id string, patch Patch) (*Booking, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := current.Active()
	patch.apply(current, s.now())

	data, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("bookings: encode %s: %w", id, err)
	}
	if err := s.client.HSet(ctx, redisBookingsKey, id, data).Err(); err != nil {
		return nil, fmt.Errorf("bookings: redis update: %w", err)
	}
	if wasActive && !current.Active() {
		s.releaseSlot(ctx, *current)
	}

	s.publish(ctx, ChangeEvent{Type: ChangeUpdated, BookingID: id, Booking: *current, At: current.UpdatedAt})
	return current, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.client.HDel(ctx, redisBookingsKey, id).Err(); err != nil {
		return fmt.Errorf("bookings: redis delete: %w", err)
	}
	if current.Active() {
		s.releaseSlot(ctx, *current)
	}

	s.publish(ctx, ChangeEvent{Type: ChangeDeleted, BookingID: id, Booking: *current, At: s.now()})
	return nil
}

// Subscribe listens on the shared change channel. The subscription is
// confirmed before returning, so no event published afterwards is missed.
func (s *RedisStore) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	pubsub := s.client.Subscribe(ctx, redisChangesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("bookings: redis subscribe: %w", err)
	}

	out := make(chan ChangeEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var evt ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					s.logger.Warn("dropping unreadable change event", "error", err)
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// SubscribeLocal streams the changes written through this instance only.
func (s *RedisStore) SubscribeLocal(ctx context.Context) (<-chan ChangeEvent, error) {
	return s.local.subscribe(ctx), nil
}

func (s *RedisStore) releaseSlot(ctx context.Context, b Booking) {
	claim := slotKey(b.Staff.ID, b.Date, b.Time)
	owner, err := s.client.Get(ctx, claim).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("failed to read slot claim", "booking_id", b.ID, "error", err)
		}
		return
	}
	if owner != b.ID {
		return
	}
	if err := s.client.Del(ctx, claim).Err(); err != nil {
		s.logger.Warn("failed to release slot claim", "booking_id", b.ID, "error", err)
	}
}

func (s *RedisStore) publish(ctx context.Context, evt ChangeEvent) {
	s.local.publish(evt)
	data, err := json.Marshal(evt)
	if err != nil {
		s.logger.Warn("failed to encode change event", "booking_id", evt.BookingID, "error", err)
		return
	}
	if err := s.client.Publish(ctx, redisChangesChannel, data).Err(); err != nil {
		s.logger.Warn("failed to publish change event", "booking_id", evt.BookingID, "error", err)
	}
}

var _ Store = (*RedisStore)(nil)
