package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
	"github.com/wolfman30/salon-scheduler/internal/catalog"
)

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCatalogEndpoints(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/services", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]catalog.Service](t, rec), 2)

	rec = h.do(t, http.MethodGet, "/services?category=nails", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	services := decodeBody[[]catalog.Service](t, rec)
	require.Len(t, services, 1)
	assert.Equal(t, "mani", services[0].ID)

	rec = h.do(t, http.MethodGet, "/services?category=spa", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/services/cut", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Corte Feminino", decodeBody[catalog.Service](t, rec).Name)

	rec = h.do(t, http.MethodGet, "/services/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/staff?specialty=hair", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]catalog.Staff](t, rec), 1)

	rec = h.do(t, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]catalog.Product](t, rec), 1)
}

func TestAvailabilityEndpoint(t *testing.T) {
	h := newHarness(t)
	h.createBooking(t, validForm())

	rec := h.do(t, http.MethodGet, "/availability?date="+monday+"&staff_id=ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[availabilityResponse](t, rec)
	require.Len(t, resp.Slots, 16)
	for _, slot := range resp.Slots {
		assert.Equal(t, slot.Time != "10:00", slot.Available, slot.Time)
	}

	rec = h.do(t, http.MethodGet, "/availability?date="+monday, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[availabilityResponse](t, rec).Slots)

	rec = h.do(t, http.MethodGet, "/availability?date=19/10/2026&staff_id=ana", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

var _ SlotResolver = (*bookings.Resolver)(nil)
