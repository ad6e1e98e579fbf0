package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/salon-scheduler/internal/calendar"
	"github.com/wolfman30/salon-scheduler/internal/catalog"
	observemetrics "github.com/wolfman30/salon-scheduler/internal/observability/metrics"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

var bookingsTracer = otel.Tracer("salon.internal.bookings")

// SlotStep is the booking grid granularity.
const SlotStep = 30 * time.Minute

// Catalog is the reference data the core reads.
type Catalog interface {
	Service(id string) (catalog.Service, bool)
	StaffMember(id string) (catalog.Staff, bool)
}

// ResolverConfig carries the resolver's collaborators.
type ResolverConfig struct {
	Catalog  Catalog
	Store    Store
	Gateway  calendar.Gateway
	Location *time.Location
	Logger   *logging.Logger
	Metrics  *observemetrics.SchedulerMetrics
}

// Resolver computes bookable slots from a staff member's weekly pattern,
// stored bookings and external busy intervals. It never mutates state.
type Resolver struct {
	catalog Catalog
	store   Store
	gateway calendar.Gateway
	loc     *time.Location
	logger  *logging.Logger
	metrics *observemetrics.SchedulerMetrics
}

func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Catalog == nil {
		panic("bookings: catalog required")
	}
	if cfg.Store == nil {
		panic("bookings: store required")
	}
	if cfg.Gateway == nil {
		cfg.Gateway = calendar.Disabled{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Resolver{
		catalog: cfg.Catalog,
		store:   cfg.Store,
		gateway: cfg.Gateway,
		loc:     cfg.Location,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Location returns the salon time zone used to interpret dates and times.
func (r *Resolver) Location() *time.Location { return r.loc }

// ComputeSlots returns the 30-minute grid for staffID on date, in ascending
// order. Unknown staff and days off yield an empty result, not an error.
// Only the calendar date of date is used.
func (r *Resolver) ComputeSlots(ctx context.Context, date time.Time, staffID string) ([]TimeSlot, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.compute_slots")
	defer span.End()
	day := r.dayStart(date)
	span.SetAttributes(
		attribute.String("salon.date", day.Format(time.DateOnly)),
		attribute.String("salon.staff_id", staffID),
	)

	staff, ok := r.catalog.StaffMember(staffID)
	if !ok {
		r.metrics.ObserveAvailability("unknown_staff")
		return []TimeSlot{}, nil
	}
	if !staff.WorksOn(day.Weekday()) {
		r.metrics.ObserveAvailability("day_off")
		return []TimeSlot{}, nil
	}

	grid, err := slotGrid(staff.WorkingHours)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	dateKey := day.Format(time.DateOnly)
	booked, err := r.store.List(ctx, Filter{Date: dateKey, StaffID: staff.ID, ActiveOnly: true})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: load bookings: %w", err)
	}
	taken := make(map[string]bool, len(booked))
	for _, b := range booked {
		taken[b.Time] = true
	}

	busy := r.busyIntervals(ctx, day, staff)

	slots := make([]TimeSlot, 0, len(grid))
	for _, minute := range grid {
		clock := catalog.FormatClock(minute)
		available := !taken[clock] && !busy.Covers(r.slotStart(day, minute))
		slots = append(slots, TimeSlot{Time: clock, Available: available})
	}
	r.metrics.ObserveAvailability("ok")
	return slots, nil
}

// busyIntervals asks the gateway for the staff member's busy ranges. Any
// gateway failure degrades to "no external conflicts".
func (r *Resolver) busyIntervals(ctx context.Context, day time.Time, staff catalog.Staff) calendar.BusyResult {
	if staff.CalendarIdentity == "" {
		return calendar.Busy(nil)
	}
	res := r.gateway.ListBusyIntervals(ctx, day, staff.CalendarIdentity)
	if !res.OK() {
		if errors.Is(res.Reason, calendar.ErrNotConfigured) {
			r.logger.Debug("calendar not configured, ignoring external busy intervals", "staff_id", staff.ID)
		} else {
			r.logger.Warn("calendar unavailable, ignoring external busy intervals",
				"staff_id", staff.ID,
				"date", day.Format(time.DateOnly),
				"error", res.Reason,
			)
		}
	}
	return res
}

func (r *Resolver) dayStart(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.loc)
}

func (r *Resolver) slotStart(day time.Time, minute int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, minute/60, minute%60, 0, 0, r.loc)
}

// slotGrid returns candidate start minutes from start (inclusive) to end
// (exclusive); a trailing partial step is dropped.
func slotGrid(hours catalog.WorkingHours) ([]int, error) {
	start, end, err := hours.Minutes()
	if err != nil {
		return nil, fmt.Errorf("bookings: working hours: %w", err)
	}
	step := int(SlotStep / time.Minute)
	var grid []int
	for m := start; m+step <= end; m += step {
		grid = append(grid, m)
	}
	return grid, nil
}
