package bookings

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/salon-scheduler/internal/catalog"
)

// EventPayload is the structured data behind calendar deep links and
// mirrored events.
type EventPayload struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
}

// CalendarPayload builds the calendar event for b. The end is the start plus
// the booked service's duration.
func CalendarPayload(b Booking, loc *time.Location, location string) EventPayload {
	if loc == nil {
		loc = time.UTC
	}
	start := bookingStart(b, loc)
	var details strings.Builder
	fmt.Fprintf(&details, "Cliente: %s\n", b.ClientName)
	fmt.Fprintf(&details, "Telefone: %s\n", b.ClientPhone)
	fmt.Fprintf(&details, "Serviço: %s\n", b.Service.Name)
	if b.Staff.Name != "" {
		fmt.Fprintf(&details, "Profissional: %s\n", b.Staff.Name)
	}
	fmt.Fprintf(&details, "Valor: R$ %s", catalog.FormatPrice(b.Service.Price))
	if b.Notes != "" {
		fmt.Fprintf(&details, "\nObservações: %s", b.Notes)
	}
	return EventPayload{
		Title:       fmt.Sprintf("%s - %s", b.Service.Name, b.ClientName),
		Start:       start,
		End:         start.Add(time.Duration(b.Service.DurationMinutes) * time.Minute),
		Description: details.String(),
		Location:    location,
	}
}

// ConfirmationMessage renders the plain-text summary sent through the
// messaging hand-off.
func ConfirmationMessage(b Booking, salonName string) string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "*AGENDAMENTO %s*\n\n", strings.ToUpper(salonName))
	fmt.Fprintf(&msg, "*Cliente:* %s\n", b.ClientName)
	fmt.Fprintf(&msg, "*Telefone:* %s\n\n", b.ClientPhone)
	fmt.Fprintf(&msg, "*Serviço:* %s\n", b.Service.Name)
	if b.Staff.Name != "" {
		fmt.Fprintf(&msg, "*Profissional:* %s\n", b.Staff.Name)
	}
	fmt.Fprintf(&msg, "*Data:* %s\n", displayDate(b.Date))
	fmt.Fprintf(&msg, "*Horário:* %s\n", b.Time)
	fmt.Fprintf(&msg, "*Duração:* %d minutos\n", b.Service.DurationMinutes)
	fmt.Fprintf(&msg, "*Valor:* R$ %s\n", catalog.FormatPrice(b.Service.Price))
	if b.Notes != "" {
		fmt.Fprintf(&msg, "\n*Observações:* %s\n", b.Notes)
	}
	msg.WriteString("\nGostaria de confirmar este agendamento!\n\nObrigado(a)!")
	return msg.String()
}

func bookingStart(b Booking, loc *time.Location) time.Time {
	day, err := time.ParseInLocation(time.DateOnly, b.Date, loc)
	if err != nil {
		return time.Time{}
	}
	minute, err := catalog.ParseClock(b.Time)
	if err != nil {
		return day
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, minute/60, minute%60, 0, 0, loc)
}

func displayDate(date string) string {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return day.Format("02/01/2006")
}
