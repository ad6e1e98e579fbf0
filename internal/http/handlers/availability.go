package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// SlotResolver computes bookable slots.
type SlotResolver interface {
	ComputeSlots(ctx context.Context, date time.Time, staffID string) ([]bookings.TimeSlot, error)
	Location() *time.Location
}

type availabilityResponse struct {
	Date    string              `json:"date"`
	StaffID string              `json:"staff_id"`
	Slots   []bookings.TimeSlot `json:"slots"`
}

// AvailabilityHandler serves the slot grid for one staff member and date.
type AvailabilityHandler struct {
	resolver SlotResolver
	logger   *logging.Logger
}

func NewAvailabilityHandler(resolver SlotResolver, logger *logging.Logger) *AvailabilityHandler {
	if resolver == nil {
		panic("handlers: resolver required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityHandler{resolver: resolver, logger: logger}
}

// GetSlots handles GET /availability?date=YYYY-MM-DD&staff_id=. A missing
// staff_id yields an empty grid, the same as an unknown one.
func (h *AvailabilityHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := strings.TrimSpace(q.Get("date"))
	day, err := time.ParseInLocation(time.DateOnly, date, h.resolver.Location())
	if err != nil {
		jsonError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	staffID := strings.TrimSpace(q.Get("staff_id"))

	resp := availabilityResponse{Date: date, StaffID: staffID, Slots: []bookings.TimeSlot{}}
	if staffID != "" {
		slots, err := h.resolver.ComputeSlots(r.Context(), day, staffID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		resp.Slots = slots
	}
	writeJSON(w, http.StatusOK, resp)
}
