package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// GoogleConfig configures the Google Calendar gateway.
type GoogleConfig struct {
	CalendarID      string
	CredentialsJSON []byte
	CredentialsFile string
	Location        *time.Location
	Timeout         time.Duration
}

// GoogleGateway talks to the Google Calendar v3 API.
type GoogleGateway struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
	timeout    time.Duration
	logger     *logging.Logger
}

// NewGoogleGateway builds a gateway from service-account credentials. Extra
// client options are appended after the credentials.
func NewGoogleGateway(ctx context.Context, cfg GoogleConfig, logger *logging.Logger, opts ...option.ClientOption) (*GoogleGateway, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	clientOpts := []option.ClientOption{option.WithScopes(gcal.CalendarEventsScope)}
	switch {
	case len(cfg.CredentialsJSON) > 0:
		clientOpts = append(clientOpts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: create google client: %w", err)
	}
	return &GoogleGateway{
		svc:        svc,
		calendarID: cfg.CalendarID,
		loc:        cfg.Location,
		timeout:    cfg.Timeout,
		logger:     logger,
	}, nil
}

// ListBusyIntervals lists the day's events and keeps the ones that belong to
// identity, matched by attendee email or by the identity appearing in the summary.
func (g *GoogleGateway) ListBusyIntervals(ctx context.Context, date time.Time, identity string) BusyResult {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	y, m, d := date.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, g.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var intervals []Interval
	call := g.svc.Events.List(g.calendarID).
		TimeMin(dayStart.Format(time.RFC3339)).
		TimeMax(dayEnd.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, ev := range page.Items {
			if !blocksTime(ev) || !belongsTo(ev, identity) {
				continue
			}
			iv, err := g.eventInterval(ev)
			if err != nil {
				g.logger.Warn("skipping calendar event with unreadable times", "event_id", ev.Id, "error", err)
				continue
			}
			intervals = append(intervals, iv)
		}
		return nil
	})
	if err != nil {
		return BusyUnavailable(fmt.Errorf("calendar: list events: %w", err))
	}
	return Busy(intervals)
}

// CreateEvent inserts a timed event in the salon's time zone.
func (g *GoogleGateway) CreateEvent(ctx context.Context, req EventRequest) EventResult {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	ev := &gcal.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Location:    req.Location,
		Start: &gcal.EventDateTime{
			DateTime: req.Start.In(g.loc).Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: req.End.In(g.loc).Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
	}
	if req.AttendeeIdentity != "" {
		ev.Attendees = []*gcal.EventAttendee{{Email: req.AttendeeIdentity}}
	}

	created, err := g.svc.Events.Insert(g.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return EventUnavailable(fmt.Errorf("calendar: insert event: %w", err))
	}
	return Created(created.Id)
}

// DeleteEvent removes an event, treating an already-gone event as deleted.
func (g *GoogleGateway) DeleteEvent(ctx context.Context, eventID string) EventResult {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	err := g.svc.Events.Delete(g.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			return Removed(eventID)
		}
		return EventUnavailable(fmt.Errorf("calendar: delete event %s: %w", eventID, err))
	}
	return Removed(eventID)
}

func (g *GoogleGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *GoogleGateway) eventInterval(ev *gcal.Event) (Interval, error) {
	if ev.Start == nil || ev.End == nil {
		return Interval{}, errors.New("event has no start or end")
	}
	start, err := g.parseEventTime(ev.Start)
	if err != nil {
		return Interval{}, err
	}
	end, err := g.parseEventTime(ev.End)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

func (g *GoogleGateway) parseEventTime(edt *gcal.EventDateTime) (time.Time, error) {
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	// all-day events carry only a date
	return time.ParseInLocation(time.DateOnly, edt.Date, g.loc)
}

func blocksTime(ev *gcal.Event) bool {
	return ev.Status != "cancelled" && ev.Transparency != "transparent"
}

func belongsTo(ev *gcal.Event, identity string) bool {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" {
		return true
	}
	for _, attendee := range ev.Attendees {
		if attendee != nil && strings.EqualFold(attendee.Email, identity) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(ev.Summary), identity)
}

var _ Gateway = (*GoogleGateway)(nil)
