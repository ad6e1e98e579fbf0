package bookings

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-scheduler/internal/calendar"
)

type managerHarness struct {
	store   *MemoryStore
	gateway *calendar.StubGateway
	manager *Manager
}

func newManagerHarness(t *testing.T) *managerHarness {
	t.Helper()
	store := NewMemoryStore()
	gw := calendar.NewStubGateway()
	resolver := newTestResolver(t, store, gw)
	ids := 0
	return &managerHarness{
		store:   store,
		gateway: gw,
		manager: NewManager(ManagerConfig{
			Resolver:      resolver,
			SalonLocation: "Salão Bella",
			HorizonDays:   30,
			Now:           func() time.Time { return testNow },
			NewID: func() string {
				ids++
				return fmt.Sprintf("bk-%d", ids)
			},
			Logger: testLogger(),
		}),
	}
}

func validForm() Form {
	return Form{
		ClientName:  "Joana",
		ClientPhone: "11988887777",
		ServiceID:   "cut",
		StaffID:     "ana",
		Date:        testMonday,
		Time:        "10:00",
		Notes:       "primeira visita",
	}
}

func TestCreateBookingPersistsPendingSnapshot(t *testing.T) {
	h := newManagerHarness(t)

	b, err := h.manager.CreateBooking(t.Context(), validForm())
	require.NoError(t, err)

	assert.Equal(t, "bk-1", b.ID)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, "Corte Feminino", b.Service.Name)
	assert.Equal(t, "ana@salon.test", b.Staff.CalendarIdentity)
	assert.True(t, b.CalendarMirrored)
	assert.Equal(t, "stub-1", b.CalendarEventID)

	stored, err := h.store.Get(t.Context(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, *b, *stored)

	events := h.gateway.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Corte Feminino - Joana", events[0].Summary)
	assert.Equal(t, "ana@salon.test", events[0].AttendeeIdentity)
	assert.Equal(t, time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC), events[0].End)
	assert.Contains(t, events[0].Description, "Telefone: 11988887777")
}

func TestCreateBookingTwiceConflicts(t *testing.T) {
	h := newManagerHarness(t)

	_, err := h.manager.CreateBooking(t.Context(), validForm())
	require.NoError(t, err)

	_, err = h.manager.CreateBooking(t.Context(), validForm())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ConflictLocal, conflict.Source)
	assert.Equal(t, "10:00", conflict.Time)

	all, err := h.store.List(t.Context(), Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateBookingAfterCancelSucceeds(t *testing.T) {
	h := newManagerHarness(t)

	first, err := h.manager.CreateBooking(t.Context(), validForm())
	require.NoError(t, err)
	_, err = h.manager.CancelBooking(t.Context(), first.ID)
	require.NoError(t, err)

	second, err := h.manager.CreateBooking(t.Context(), validForm())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateBookingCalendarConflict(t *testing.T) {
	h := newManagerHarness(t)
	day := testDay(t, testMonday)
	h.gateway.AddBusy("ana@salon.test", day.Add(9*time.Hour+45*time.Minute), day.Add(10*time.Hour+30*time.Minute))

	_, err := h.manager.CreateBooking(t.Context(), validForm())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ConflictCalendar, conflict.Source)
	assert.Empty(t, h.gateway.Events())
}

func TestCreateBookingGatewayFailuresDoNotBlock(t *testing.T) {
	h := newManagerHarness(t)
	h.gateway.FailListing(errors.New("token expired"))
	h.gateway.FailEvents(errors.New("token expired"))

	b, err := h.manager.CreateBooking(t.Context(), validForm())
	require.NoError(t, err)
	assert.False(t, b.CalendarMirrored)
	assert.Empty(t, b.CalendarEventID)

	_, err = h.store.Get(t.Context(), b.ID)
	require.NoError(t, err)
}

func TestCreateBookingValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{name: "unknown service", edit: func(f *Form) { f.ServiceID = "nope" }, field: "service_id"},
		{name: "unknown staff", edit: func(f *Form) { f.StaffID = "nope" }, field: "staff_id"},
		{name: "missing name", edit: func(f *Form) { f.ClientName = "  " }, field: "client_name"},
		{name: "missing phone", edit: func(f *Form) { f.ClientPhone = "" }, field: "client_phone"},
		{name: "specialty mismatch", edit: func(f *Form) { f.ServiceID = "mani" }, field: "staff_id"},
		{name: "bad date", edit: func(f *Form) { f.Date = "19/10/2026" }, field: "date"},
		{name: "bad time", edit: func(f *Form) { f.Time = "10h" }, field: "time"},
		{name: "past date", edit: func(f *Form) { f.Date = "2026-10-16" }, field: "date"},
		{name: "beyond horizon", edit: func(f *Form) { f.Date = "2026-12-01" }, field: "date"},
		{name: "day off", edit: func(f *Form) { f.Date = "2026-10-24" }, field: "date"},
		{name: "off grid", edit: func(f *Form) { f.Time = "10:15" }, field: "time"},
		{name: "after hours", edit: func(f *Form) { f.Time = "17:00" }, field: "time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newManagerHarness(t)
			form := validForm()
			tt.edit(&form)

			_, err := h.manager.CreateBooking(t.Context(), form)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)

			all, err := h.store.List(t.Context(), Filter{})
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Empty(t, h.gateway.Events())
		})
	}
}

// racingStore lets the local re-check pass and then rejects the insert the
// way a store with its own slot guard does.
type racingStore struct {
	*MemoryStore
}

func (racingStore) Insert(context.Context, Booking) error { return ErrSlotTaken }

func TestCreateBookingStoreGuardSurfacesConflict(t *testing.T) {
	store := racingStore{NewMemoryStore()}
	resolver := NewResolver(ResolverConfig{Catalog: testRegistry(t), Store: store, Location: time.UTC, Logger: testLogger()})
	manager := NewManager(ManagerConfig{Resolver: resolver, Now: func() time.Time { return testNow }, Logger: testLogger()})

	_, err := manager.CreateBooking(t.Context(), validForm())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ConflictStore, conflict.Source)
}

type brokenStore struct {
	*MemoryStore
}

func (brokenStore) Insert(context.Context, Booking) error { return errors.New("connection reset") }

func TestCreateBookingWithdrawsMirroredEventWhenInsertFails(t *testing.T) {
	tests := []struct {
		name     string
		store    Store
		conflict bool
	}{
		{name: "slot guard", store: racingStore{NewMemoryStore()}, conflict: true},
		{name: "store error", store: brokenStore{NewMemoryStore()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := calendar.NewStubGateway()
			manager := NewManager(ManagerConfig{
				Resolver: newTestResolver(t, tt.store, gw),
				Now:      func() time.Time { return testNow },
				Logger:   testLogger(),
			})

			_, err := manager.CreateBooking(t.Context(), validForm())
			require.Error(t, err)
			var conflict *ConflictError
			assert.Equal(t, tt.conflict, errors.As(err, &conflict))
			assert.Empty(t, gw.Events())
			assert.Equal(t, []string{"stub-1"}, gw.Deleted())
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		start   Status
		action  func(*Manager, string) (*Booking, error)
		want    Status
		wantErr bool
	}{
		{name: "confirm pending", start: StatusPending, action: confirm, want: StatusConfirmed},
		{name: "cancel pending", start: StatusPending, action: cancel, want: StatusCancelled},
		{name: "cancel confirmed", start: StatusConfirmed, action: cancel, want: StatusCancelled},
		{name: "confirm confirmed", start: StatusConfirmed, action: confirm, wantErr: true},
		{name: "confirm cancelled", start: StatusCancelled, action: confirm, wantErr: true},
		{name: "cancel cancelled", start: StatusCancelled, action: cancel, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newManagerHarness(t)
			seedBooking(t, h.store, "b1", "ana", testMonday, "10:00", tt.start)

			got, err := tt.action(h.manager, "b1")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
				var tErr *TransitionError
				require.ErrorAs(t, err, &tErr)
				assert.Equal(t, tt.start, tErr.From)

				stored, err := h.store.Get(t.Context(), "b1")
				require.NoError(t, err)
				assert.Equal(t, tt.start, stored.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func confirm(m *Manager, id string) (*Booking, error) {
	return m.ConfirmBooking(context.Background(), id)
}

func cancel(m *Manager, id string) (*Booking, error) {
	return m.CancelBooking(context.Background(), id)
}

func TestTransitionUnknownBooking(t *testing.T) {
	h := newManagerHarness(t)
	_, err := h.manager.ConfirmBooking(t.Context(), "missing")
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestDeleteBookingAnyStatus(t *testing.T) {
	h := newManagerHarness(t)
	seedBooking(t, h.store, "b1", "ana", testMonday, "10:00", StatusPending)
	seedBooking(t, h.store, "b2", "ana", testMonday, "11:00", StatusCancelled)

	require.NoError(t, h.manager.DeleteBooking(t.Context(), "b1"))
	require.NoError(t, h.manager.DeleteBooking(t.Context(), "b2"))
	require.ErrorIs(t, h.manager.DeleteBooking(t.Context(), "b1"), ErrBookingNotFound)

	all, err := h.manager.ListBookings(t.Context(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListBookingsFiltersAndOrders(t *testing.T) {
	h := newManagerHarness(t)
	seedBooking(t, h.store, "late", "ana", testMonday, "15:00", StatusPending)
	seedBooking(t, h.store, "next", "ana", "2026-10-20", "09:00", StatusConfirmed)
	seedBooking(t, h.store, "early", "bia", testMonday, "10:00", StatusPending)

	all, err := h.manager.ListBookings(t.Context(), Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"early", "late", "next"}, []string{all[0].ID, all[1].ID, all[2].ID})

	pending, err := h.manager.BookingsByStatus(t.Context(), StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	ana, err := h.manager.ListBookings(t.Context(), Filter{StaffID: "ana", Date: testMonday})
	require.NoError(t, err)
	require.Len(t, ana, 1)
	assert.Equal(t, "late", ana[0].ID)

	_, err = h.manager.ListBookings(t.Context(), Filter{Status: "archived"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestManagerNotifiesSubscribers(t *testing.T) {
	h := newManagerHarness(t)
	ctx, cancelSub := context.WithCancel(t.Context())
	defer cancelSub()

	changes, err := h.manager.Subscribe(ctx)
	require.NoError(t, err)

	b, err := h.manager.CreateBooking(t.Context(), validForm())
	require.NoError(t, err)
	_, err = h.manager.ConfirmBooking(t.Context(), b.ID)
	require.NoError(t, err)

	created := receiveChange(t, changes)
	assert.Equal(t, ChangeCreated, created.Type)
	assert.Equal(t, b.ID, created.BookingID)

	updated := receiveChange(t, changes)
	assert.Equal(t, ChangeUpdated, updated.Type)
	assert.Equal(t, StatusConfirmed, updated.Booking.Status)
}

func receiveChange(t *testing.T, ch <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "change channel closed")
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return ChangeEvent{}
	}
}
