package calendar

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var calendarTracer = otel.Tracer("salon.internal.calendar")

// Observer receives per-call gateway measurements.
type Observer interface {
	ObserveCalendarRequest(operation, status string, seconds float64)
}

type instrumented struct {
	next     Gateway
	observer Observer
}

// Instrument wraps a gateway with tracing and metrics.
func Instrument(next Gateway, observer Observer) Gateway {
	if next == nil {
		next = Disabled{}
	}
	return &instrumented{next: next, observer: observer}
}

func (i *instrumented) ListBusyIntervals(ctx context.Context, date time.Time, identity string) BusyResult {
	ctx, span := calendarTracer.Start(ctx, "calendar.list_busy")
	defer span.End()
	span.SetAttributes(
		attribute.String("salon.date", date.Format(time.DateOnly)),
		attribute.String("salon.calendar_identity", identity),
	)

	start := time.Now()
	res := i.next.ListBusyIntervals(ctx, date, identity)
	i.observe("list_busy", res.Status, start)
	span.SetAttributes(attribute.String("salon.calendar_status", res.Status.String()))
	if res.Reason != nil {
		span.RecordError(res.Reason)
	}
	return res
}

func (i *instrumented) CreateEvent(ctx context.Context, req EventRequest) EventResult {
	ctx, span := calendarTracer.Start(ctx, "calendar.create_event")
	defer span.End()

	start := time.Now()
	res := i.next.CreateEvent(ctx, req)
	i.observe("create_event", res.Status, start)
	span.SetAttributes(attribute.String("salon.calendar_status", res.Status.String()))
	if res.Reason != nil {
		span.RecordError(res.Reason)
	}
	return res
}

func (i *instrumented) DeleteEvent(ctx context.Context, eventID string) EventResult {
	ctx, span := calendarTracer.Start(ctx, "calendar.delete_event")
	defer span.End()
	span.SetAttributes(attribute.String("salon.calendar_event_id", eventID))

	start := time.Now()
	res := i.next.DeleteEvent(ctx, eventID)
	i.observe("delete_event", res.Status, start)
	if res.Reason != nil {
		span.RecordError(res.Reason)
	}
	return res
}

func (i *instrumented) observe(op string, status Status, start time.Time) {
	if i.observer == nil {
		return
	}
	i.observer.ObserveCalendarRequest(op, status.String(), time.Since(start).Seconds())
}
