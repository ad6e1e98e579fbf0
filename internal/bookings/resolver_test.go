package bookings

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-scheduler/internal/calendar"
)

func newTestResolver(t *testing.T, store Store, gw calendar.Gateway) *Resolver {
	t.Helper()
	return NewResolver(ResolverConfig{
		Catalog:  testRegistry(t),
		Store:    store,
		Gateway:  gw,
		Location: time.UTC,
		Logger:   testLogger(),
	})
}

func availableTimes(slots []TimeSlot) []string {
	var out []string
	for _, s := range slots {
		if s.Available {
			out = append(out, s.Time)
		}
	}
	return out
}

func TestComputeSlotsMarksBookedSlot(t *testing.T) {
	store := NewMemoryStore()
	seedBooking(t, store, "b1", "ana", testMonday, "10:00", StatusConfirmed)
	resolver := newTestResolver(t, store, calendar.NewStubGateway())

	slots, err := resolver.ComputeSlots(t.Context(), testDay(t, testMonday), "ana")
	require.NoError(t, err)
	require.Len(t, slots, 16)

	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "16:30", slots[15].Time)
	for _, s := range slots {
		assert.Equal(t, s.Time != "10:00", s.Available, "slot %s", s.Time)
	}
}

func TestComputeSlotsStrictlyIncreasingWithinHours(t *testing.T) {
	resolver := newTestResolver(t, NewMemoryStore(), nil)

	slots, err := resolver.ComputeSlots(t.Context(), testDay(t, testMonday), "ana")
	require.NoError(t, err)
	for i := 1; i < len(slots); i++ {
		prev := testDay(t, testMonday).Add(mustClock(t, slots[i-1].Time))
		cur := testDay(t, testMonday).Add(mustClock(t, slots[i].Time))
		assert.Equal(t, SlotStep, cur.Sub(prev))
	}
	assert.GreaterOrEqual(t, slots[0].Time, "09:00")
	assert.Less(t, slots[len(slots)-1].Time, "17:00")
}

func mustClock(t *testing.T, clock string) time.Duration {
	t.Helper()
	d, err := time.Parse("15:04", clock)
	require.NoError(t, err)
	return time.Duration(d.Hour())*time.Hour + time.Duration(d.Minute())*time.Minute
}

func TestComputeSlotsDayOff(t *testing.T) {
	gw := calendar.NewStubGateway()
	resolver := newTestResolver(t, NewMemoryStore(), gw)

	slots, err := resolver.ComputeSlots(t.Context(), testDay(t, testSunday), "ana")
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
	assert.Zero(t, gw.ListCalls())
}

func TestComputeSlotsUnknownStaff(t *testing.T) {
	resolver := newTestResolver(t, NewMemoryStore(), nil)

	slots, err := resolver.ComputeSlots(t.Context(), testDay(t, testMonday), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestComputeSlotsDropsTrailingPartialStep(t *testing.T) {
	resolver := newTestResolver(t, NewMemoryStore(), nil)

	slots, err := resolver.ComputeSlots(t.Context(), testDay(t, testMonday), "bia")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "10:30", "11:00", "11:30"}, availableTimes(slots))
}

func TestComputeSlotsCancelledBookingFreesSlot(t *testing.T) {
	store := NewMemoryStore()
	seedBooking(t, store, "b1", "ana", testMonday, "11:00", StatusPending)
	resolver := newTestResolver(t, store, nil)

	slots, err := resolver.ComputeSlots(t.Context(), testDay(t, testMonday), "ana")
	require.NoError(t, err)
	assert.NotContains(t, availableTimes(slots), "11:00")

	cancelled := StatusCancelled
	_, err = store.Update(t.Context(), "b1", Patch{Status: &cancelled})
	require.NoError(t, err)

	slots, err = resolver.ComputeSlots(t.Context(), testDay(t, testMonday), "ana")
	require.NoError(t, err)
	assert.Contains(t, availableTimes(slots), "11:00")
	assert.Len(t, availableTimes(slots), 16)
}

func TestComputeSlotsIgnoresOtherStaffAndDates(t *testing.T) {
	store := NewMemoryStore()
	seedBooking(t, store, "b1", "bia", testMonday, "10:00", StatusConfirmed)
	seedBooking(t, store, "b2", "ana", "2026-10-20", "10:00", StatusConfirmed)
	resolver := newTestResolver(t, store, nil)

	slots, err := resolver.ComputeSlots(t.Context(), testDay(t, testMonday), "ana")
	require.NoError(t, err)
	assert.Len(t, availableTimes(slots), 16)
}

func TestComputeSlotsExternalBusyInterval(t *testing.T) {
	gw := calendar.NewStubGateway()
	day := testDay(t, testMonday)
	gw.AddBusy("ana@salon.test", day.Add(13*time.Hour), day.Add(14*time.Hour+15*time.Minute))
	resolver := newTestResolver(t, NewMemoryStore(), gw)

	slots, err := resolver.ComputeSlots(t.Context(), day, "ana")
	require.NoError(t, err)

	unavailable := map[string]bool{}
	for _, s := range slots {
		if !s.Available {
			unavailable[s.Time] = true
		}
	}
	assert.Equal(t, map[string]bool{"13:00": true, "13:30": true, "14:00": true}, unavailable)
}

func TestComputeSlotsFailsOpenOnGatewayError(t *testing.T) {
	gw := calendar.NewStubGateway()
	day := testDay(t, testMonday)
	gw.AddBusy("ana@salon.test", day.Add(9*time.Hour), day.Add(17*time.Hour))
	gw.FailListing(errors.New("unauthenticated"))
	resolver := newTestResolver(t, NewMemoryStore(), gw)

	slots, err := resolver.ComputeSlots(t.Context(), day, "ana")
	require.NoError(t, err)
	assert.Len(t, availableTimes(slots), 16)
	assert.Equal(t, 1, gw.ListCalls())
}

func TestComputeSlotsSkipsGatewayWithoutIdentity(t *testing.T) {
	gw := calendar.NewStubGateway()
	resolver := newTestResolver(t, NewMemoryStore(), gw)

	_, err := resolver.ComputeSlots(t.Context(), testDay(t, testMonday), "bia")
	require.NoError(t, err)
	assert.Zero(t, gw.ListCalls())
}

func TestSlotGrid(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{name: "full day", start: "09:00", end: "17:00", want: 16},
		{name: "partial tail", start: "09:00", end: "09:45", want: 1},
		{name: "shorter than a step", start: "09:00", end: "09:20", want: 0},
		{name: "half hour start", start: "08:30", end: "10:00", want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := slotGrid(catalogHours(tt.start, tt.end))
			require.NoError(t, err)
			assert.Len(t, grid, tt.want)
		})
	}
}
