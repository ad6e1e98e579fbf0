package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
	"github.com/wolfman30/salon-scheduler/internal/catalog"
	"github.com/wolfman30/salon-scheduler/internal/events"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// BookingEmailSink emails the salon inbox whenever a booking is created.
// Other event types are ignored.
type BookingEmailSink struct {
	email      EmailSender
	recipients []string
	salonName  string
	logger     *logging.Logger
}

func NewBookingEmailSink(email EmailSender, salonName string, recipients []string, logger *logging.Logger) *BookingEmailSink {
	if email == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingEmailSink{email: email, recipients: recipients, salonName: salonName, logger: logger}
}

func (s *BookingEmailSink) Name() string { return "email" }

func (s *BookingEmailSink) Deliver(ctx context.Context, evt events.BookingEvent) error {
	if evt.Type != events.TypeBookingCreated || len(s.recipients) == 0 {
		return nil
	}
	b := evt.Booking
	subject := fmt.Sprintf("Novo agendamento - %s (%s %s)", b.ClientName, b.Date, b.Time)
	body := bookings.ConfirmationMessage(b, s.salonName)
	htmlBody := bookingHTML(b)

	var failed int
	for _, recipient := range s.recipients {
		msg := EmailMessage{
			To:      recipient,
			Subject: subject,
			Body:    body,
			HTML:    htmlBody,
			Tags:    map[string]string{"event": evt.Type, "booking_id": b.ID},
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send booking email", "error", err, "to", recipient, "booking_id", b.ID)
			failed++
			continue
		}
		s.logger.Info("notify: booking email sent", "to", recipient, "booking_id", b.ID)
	}
	if failed > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", failed)
	}
	return nil
}

func bookingHTML(b bookings.Booking) string {
	row := func(label, value string) string {
		return fmt.Sprintf(`<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>%s:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`,
			label, html.EscapeString(value))
	}
	rows := row("Cliente", b.ClientName) +
		row("Telefone", b.ClientPhone) +
		row("Serviço", b.Service.Name) +
		row("Profissional", b.Staff.Name) +
		row("Data", b.Date) +
		row("Horário", b.Time) +
		row("Valor", "R$ "+catalog.FormatPrice(b.Service.Price))
	if b.Notes != "" {
		rows += row("Observações", b.Notes)
	}
	warning := ""
	if !b.CalendarMirrored {
		warning = `<p style="background: #fef3c7; padding: 12px; border-radius: 8px; border-left: 4px solid #f59e0b;">O evento não foi criado na agenda externa.</p>`
	}
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #db2777;">Novo agendamento</h2>
<table style="border-collapse: collapse; margin: 20px 0;">
%s
</table>
%s
</div>`, rows, warning)
}

var _ events.Sink = (*BookingEmailSink)(nil)
