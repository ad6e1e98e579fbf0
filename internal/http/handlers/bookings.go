package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
	"github.com/wolfman30/salon-scheduler/internal/notify"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// BookingService is the lifecycle surface the HTTP layer drives.
type BookingService interface {
	CreateBooking(ctx context.Context, form bookings.Form) (*bookings.Booking, error)
	ConfirmBooking(ctx context.Context, id string) (*bookings.Booking, error)
	CancelBooking(ctx context.Context, id string) (*bookings.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	GetBooking(ctx context.Context, id string) (*bookings.Booking, error)
	ListBookings(ctx context.Context, filter bookings.Filter) ([]bookings.Booking, error)
	Location() *time.Location
}

// HandoffConfig carries the salon details used in outbound links.
type HandoffConfig struct {
	SalonName      string
	SalonLocation  string
	WhatsAppNumber string
}

// Handoff is what the client needs to relay a booking outside the service.
type Handoff struct {
	Message          string `json:"message"`
	WhatsAppURL      string `json:"whatsapp_url"`
	CalendarURL      string `json:"calendar_url"`
	CalendarMirrored bool   `json:"calendar_mirrored"`
}

type bookingResponse struct {
	Booking *bookings.Booking `json:"booking"`
	Handoff Handoff           `json:"handoff"`
}

// BookingHandler serves public booking creation and the admin booking API.
type BookingHandler struct {
	service BookingService
	handoff HandoffConfig
	logger  *logging.Logger
}

func NewBookingHandler(service BookingService, handoff HandoffConfig, logger *logging.Logger) *BookingHandler {
	if service == nil {
		panic("handlers: booking service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{service: service, handoff: handoff, logger: logger}
}

func (h *BookingHandler) buildHandoff(b bookings.Booking) Handoff {
	msg := bookings.ConfirmationMessage(b, h.handoff.SalonName)
	payload := bookings.CalendarPayload(b, h.service.Location(), h.handoff.SalonLocation)
	return Handoff{
		Message:          msg,
		WhatsAppURL:      notify.WhatsAppLink(h.handoff.WhatsAppNumber, msg),
		CalendarURL:      notify.CalendarTemplateLink(payload),
		CalendarMirrored: b.CalendarMirrored,
	}
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form bookings.Form
	if err := decodeJSON(w, r, &form); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	b, err := h.service.CreateBooking(r.Context(), form)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingResponse{Booking: b, Handoff: h.buildHandoff(*b)})
}

// List handles GET /admin/bookings.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := bookings.Filter{
		Status:  bookings.Status(strings.TrimSpace(q.Get("status"))),
		Date:    strings.TrimSpace(q.Get("date")),
		StaffID: strings.TrimSpace(q.Get("staff_id")),
	}
	list, err := h.service.ListBookings(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []bookings.Booking{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ConfirmBooking)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelBooking)
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*bookings.Booking, error)) {
	b, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBooking(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Handoff handles GET /admin/bookings/{id}/handoff.
func (h *BookingHandler) Handoff(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Booking: b, Handoff: h.buildHandoff(*b)})
}
