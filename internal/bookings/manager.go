package bookings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/salon-scheduler/internal/calendar"
	"github.com/wolfman30/salon-scheduler/internal/catalog"
	observemetrics "github.com/wolfman30/salon-scheduler/internal/observability/metrics"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// ManagerConfig carries the lifecycle manager's collaborators and policy.
type ManagerConfig struct {
	Resolver *Resolver
	// SalonLocation is the place name written on mirrored calendar events.
	SalonLocation string
	// HorizonDays bounds how far ahead a booking may be made; 0 disables
	// the check.
	HorizonDays int
	Now         func() time.Time
	NewID       func() string
	Logger      *logging.Logger
	Metrics     *observemetrics.SchedulerMetrics
}

// Manager is the only writer of booking records.
type Manager struct {
	resolver      *Resolver
	catalog       Catalog
	store         Store
	gateway       calendar.Gateway
	loc           *time.Location
	salonLocation string
	horizonDays   int
	now           func() time.Time
	newID         func() string
	logger        *logging.Logger
	metrics       *observemetrics.SchedulerMetrics
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Resolver == nil {
		panic("bookings: resolver required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Manager{
		resolver:      cfg.Resolver,
		catalog:       cfg.Resolver.catalog,
		store:         cfg.Resolver.store,
		gateway:       cfg.Resolver.gateway,
		loc:           cfg.Resolver.loc,
		salonLocation: cfg.SalonLocation,
		horizonDays:   cfg.HorizonDays,
		now:           cfg.Now,
		newID:         cfg.NewID,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
	}
}

// CreateBooking validates the form, re-checks the slot against the store and
// the external calendar, mirrors the event best-effort and persists a pending
// booking. The checks are advisory: two concurrent callers can both pass
// them, in which case the store's own slot guard rejects the later insert.
func (m *Manager) CreateBooking(ctx context.Context, form Form) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("salon.service_id", form.ServiceID),
		attribute.String("salon.staff_id", form.StaffID),
		attribute.String("salon.date", form.Date),
		attribute.String("salon.time", form.Time),
	)

	b, err := m.createBooking(ctx, form)
	if err != nil {
		span.RecordError(err)
		m.metrics.ObserveBookingCreated(createResult(err))
		return nil, err
	}
	m.metrics.ObserveBookingCreated("created")
	span.SetAttributes(attribute.String("salon.booking_id", b.ID))
	return b, nil
}

func (m *Manager) createBooking(ctx context.Context, form Form) (*Booking, error) {
	svc, ok := m.catalog.Service(form.ServiceID)
	if !ok {
		return nil, &ValidationError{Field: "service_id", Reason: fmt.Sprintf("unknown service %q", form.ServiceID)}
	}
	staff, ok := m.catalog.StaffMember(form.StaffID)
	if !ok {
		return nil, &ValidationError{Field: "staff_id", Reason: fmt.Sprintf("unknown staff member %q", form.StaffID)}
	}
	day, slotStart, err := m.validateForm(form, svc, staff)
	if err != nil {
		return nil, err
	}
	dateKey := day.Format(time.DateOnly)
	clock := catalog.FormatClock(slotStart.Hour()*60 + slotStart.Minute())

	// local re-check
	existing, err := m.store.List(ctx, Filter{Date: dateKey, StaffID: staff.ID, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("bookings: re-check slot: %w", err)
	}
	for _, b := range existing {
		if b.Time == clock {
			return nil, &ConflictError{Date: dateKey, Time: clock, StaffID: staff.ID, Source: ConflictLocal}
		}
	}

	// external re-check, fail open
	if busy := m.resolver.busyIntervals(ctx, day, staff); busy.Covers(slotStart) {
		return nil, &ConflictError{Date: dateKey, Time: clock, StaffID: staff.ID, Source: ConflictCalendar}
	}

	now := m.now()
	booking := Booking{
		ID:          m.newID(),
		ClientName:  strings.TrimSpace(form.ClientName),
		ClientPhone: strings.TrimSpace(form.ClientPhone),
		Service:     svc,
		Staff:       staff.Clone(),
		Date:        dateKey,
		Time:        clock,
		Status:      StatusPending,
		Notes:       strings.TrimSpace(form.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.mirror(ctx, &booking)

	if err := m.store.Insert(ctx, booking); err != nil {
		m.withdraw(ctx, booking)
		if errors.Is(err, ErrSlotTaken) {
			return nil, &ConflictError{Date: dateKey, Time: clock, StaffID: staff.ID, Source: ConflictStore}
		}
		return nil, fmt.Errorf("bookings: persist: %w", err)
	}

	m.logger.Info("booking created",
		"booking_id", booking.ID,
		"service_id", svc.ID,
		"staff_id", staff.ID,
		"date", dateKey,
		"time", clock,
		"calendar_mirrored", booking.CalendarMirrored,
	)
	return &booking, nil
}

// mirror creates the external calendar event. Failure only leaves the
// booking unmirrored.
func (m *Manager) mirror(ctx context.Context, b *Booking) {
	payload := CalendarPayload(*b, m.loc, m.salonLocation)
	res := m.gateway.CreateEvent(ctx, calendar.EventRequest{
		Summary:          payload.Title,
		Description:      payload.Description,
		Location:         payload.Location,
		Start:            payload.Start,
		End:              payload.End,
		AttendeeIdentity: b.Staff.CalendarIdentity,
	})
	if !res.OK() {
		level := m.logger.Warn
		if errors.Is(res.Reason, calendar.ErrNotConfigured) {
			level = m.logger.Debug
		}
		level("calendar mirror skipped", "booking_id", b.ID, "error", res.Reason)
		return
	}
	b.CalendarEventID = res.EventID
	b.CalendarMirrored = true
}

// withdraw deletes the mirrored event of a booking that was never stored.
func (m *Manager) withdraw(ctx context.Context, b Booking) {
	if !b.CalendarMirrored {
		return
	}
	res := m.gateway.DeleteEvent(context.WithoutCancel(ctx), b.CalendarEventID)
	if !res.OK() {
		m.logger.Error("calendar event left behind for rejected booking",
			"booking_id", b.ID,
			"calendar_event_id", b.CalendarEventID,
			"error", res.Reason,
		)
		return
	}
	m.logger.Info("calendar event withdrawn for rejected booking", "booking_id", b.ID, "calendar_event_id", b.CalendarEventID)
}

func (m *Manager) validateForm(form Form, svc catalog.Service, staff catalog.Staff) (day, slotStart time.Time, err error) {
	if strings.TrimSpace(form.ClientName) == "" {
		return day, slotStart, &ValidationError{Field: "client_name", Reason: "required"}
	}
	if strings.TrimSpace(form.ClientPhone) == "" {
		return day, slotStart, &ValidationError{Field: "client_phone", Reason: "required"}
	}
	if !staff.HasSpecialty(svc.Category) {
		return day, slotStart, &ValidationError{Field: "staff_id", Reason: fmt.Sprintf("%s does not perform %s services", staff.Name, svc.Category)}
	}

	day, err = time.ParseInLocation(time.DateOnly, strings.TrimSpace(form.Date), m.loc)
	if err != nil {
		return day, slotStart, &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	minute, err := catalog.ParseClock(form.Time)
	if err != nil {
		return day, slotStart, &ValidationError{Field: "time", Reason: "expected HH:MM"}
	}

	now := m.now().In(m.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, m.loc)
	if day.Before(today) {
		return day, slotStart, &ValidationError{Field: "date", Reason: "date is in the past"}
	}
	if m.horizonDays > 0 && day.After(today.AddDate(0, 0, m.horizonDays)) {
		return day, slotStart, &ValidationError{Field: "date", Reason: fmt.Sprintf("bookings open at most %d days ahead", m.horizonDays)}
	}

	if !staff.WorksOn(day.Weekday()) {
		return day, slotStart, &ValidationError{Field: "date", Reason: fmt.Sprintf("%s does not work on %s", staff.Name, day.Weekday())}
	}
	grid, err := slotGrid(staff.WorkingHours)
	if err != nil {
		return day, slotStart, err
	}
	if !slices.Contains(grid, minute) {
		return day, slotStart, &ValidationError{Field: "time", Reason: "not a bookable slot for this staff member"}
	}
	return day, m.resolver.slotStart(day, minute), nil
}

// ConfirmBooking moves a pending booking to confirmed.
func (m *Manager) ConfirmBooking(ctx context.Context, id string) (*Booking, error) {
	return m.transition(ctx, id, StatusConfirmed, "confirm")
}

// CancelBooking cancels a pending or confirmed booking, freeing its slot.
func (m *Manager) CancelBooking(ctx context.Context, id string) (*Booking, error) {
	return m.transition(ctx, id, StatusCancelled, "cancel")
}

func (m *Manager) transition(ctx context.Context, id string, next Status, name string) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings."+name)
	defer span.End()
	span.SetAttributes(attribute.String("salon.booking_id", id))

	// reload before mutating
	current, err := m.store.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		m.metrics.ObserveTransition(name, false)
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		err := &TransitionError{From: current.Status, To: next}
		span.RecordError(err)
		m.metrics.ObserveTransition(name, false)
		return nil, err
	}

	updated, err := m.store.Update(ctx, id, Patch{Status: &next})
	if err != nil {
		span.RecordError(err)
		m.metrics.ObserveTransition(name, false)
		return nil, err
	}
	m.metrics.ObserveTransition(name, true)
	m.logger.Info("booking status changed", "booking_id", id, "from", current.Status, "to", next)
	return updated, nil
}

// DeleteBooking removes a booking regardless of status.
func (m *Manager) DeleteBooking(ctx context.Context, id string) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.delete")
	defer span.End()
	span.SetAttributes(attribute.String("salon.booking_id", id))

	if err := m.store.Delete(ctx, id); err != nil {
		span.RecordError(err)
		m.metrics.ObserveTransition("delete", false)
		return err
	}
	m.metrics.ObserveTransition("delete", true)
	m.logger.Info("booking deleted", "booking_id", id)
	return nil
}

// GetBooking returns a single booking.
func (m *Manager) GetBooking(ctx context.Context, id string) (*Booking, error) {
	return m.store.Get(ctx, id)
}

// ListBookings returns bookings ordered by date then time.
func (m *Manager) ListBookings(ctx context.Context, filter Filter) ([]Booking, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", filter.Status)}
	}
	if filter.Date != "" {
		if _, err := time.Parse(time.DateOnly, filter.Date); err != nil {
			return nil, &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
		}
	}
	return m.store.List(ctx, filter)
}

// BookingsByStatus is a convenience for ListBookings filtered on status.
func (m *Manager) BookingsByStatus(ctx context.Context, status Status) ([]Booking, error) {
	return m.ListBookings(ctx, Filter{Status: status})
}

// Subscribe exposes the store's change stream to UI collaborators.
func (m *Manager) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return m.store.Subscribe(ctx)
}

// SubscribeLocal exposes only the changes made by this process.
func (m *Manager) SubscribeLocal(ctx context.Context) (<-chan ChangeEvent, error) {
	return m.store.SubscribeLocal(ctx)
}

// Location returns the salon time zone.
func (m *Manager) Location() *time.Location { return m.loc }

func createResult(err error) string {
	var vErr *ValidationError
	var cErr *ConflictError
	switch {
	case errors.As(err, &vErr):
		return "validation_error"
	case errors.As(err, &cErr):
		return "conflict"
	default:
		return "error"
	}
}
