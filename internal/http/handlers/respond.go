package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
	"github.com/wolfman30/salon-scheduler/internal/cart"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

type errorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Source string `json:"source,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	var (
		vErr *bookings.ValidationError
		cErr *bookings.ConflictError
	)
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: vErr.Reason, Field: vErr.Field})
	case errors.As(err, &cErr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "slot no longer available", Source: cErr.Source})
	case errors.Is(err, bookings.ErrInvalidTransition):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, bookings.ErrBookingNotFound):
		jsonError(w, "booking not found", http.StatusNotFound)
	case errors.Is(err, cart.ErrCartNotFound):
		jsonError(w, "cart not found", http.StatusNotFound)
	case errors.Is(err, cart.ErrUnknownProduct):
		jsonError(w, "unknown product", http.StatusBadRequest)
	case errors.Is(err, cart.ErrEmptyCart):
		jsonError(w, "cart is empty", http.StatusBadRequest)
	default:
		logger.Error("request failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
