package notify

import (
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
)

const calendarTemplateBase = "https://calendar.google.com/calendar/render"

// WhatsAppLink returns a wa.me deep link that opens a chat with number and
// pre-fills text. Non-digits are stripped from number.
func WhatsAppLink(number, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(text)
}

// CalendarTemplateLink returns a Google Calendar "create event" link
// pre-filled from payload. Times are encoded in UTC.
func CalendarTemplateLink(payload bookings.EventPayload) string {
	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", payload.Title)
	params.Set("dates", calendarStamp(payload.Start)+"/"+calendarStamp(payload.End))
	params.Set("details", payload.Description)
	params.Set("location", payload.Location)
	return calendarTemplateBase + "?" + params.Encode()
}

func calendarStamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
