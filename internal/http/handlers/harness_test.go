package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
	"github.com/wolfman30/salon-scheduler/internal/calendar"
	"github.com/wolfman30/salon-scheduler/internal/cart"
	"github.com/wolfman30/salon-scheduler/internal/catalog"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// 2026-10-19 is a Monday.
const monday = "2026-10-19"

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type harness struct {
	registry *catalog.Registry
	store    *bookings.MemoryStore
	gateway  *calendar.StubGateway
	manager  *bookings.Manager
	carts    *cart.Service
	router   chi.Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg, err := catalog.NewRegistry(
		[]catalog.Service{
			{ID: "cut", Name: "Corte Feminino", Category: catalog.CategoryHair, DurationMinutes: 60, Price: 80},
			{ID: "mani", Name: "Manicure", Category: catalog.CategoryNails, DurationMinutes: 45, Price: 35},
		},
		[]catalog.Staff{
			{
				ID:               "ana",
				Name:             "Ana",
				Specialties:      []catalog.Category{catalog.CategoryHair},
				WorkingHours:     catalog.WorkingHours{Start: "09:00", End: "17:00"},
				WorkingDays:      []int{1, 2, 3, 4, 5},
				CalendarIdentity: "ana@salon.test",
			},
		},
		[]catalog.Product{
			{ID: "shampoo", Name: "Shampoo", Price: 40, Category: "hair"},
		},
	)
	require.NoError(t, err)

	logger := logging.New("error")
	store := bookings.NewMemoryStore()
	gateway := calendar.NewStubGateway()
	resolver := bookings.NewResolver(bookings.ResolverConfig{
		Catalog:  reg,
		Store:    store,
		Gateway:  gateway,
		Location: time.UTC,
		Logger:   logger,
	})
	seq := 0
	manager := bookings.NewManager(bookings.ManagerConfig{
		Resolver:      resolver,
		SalonLocation: "Rua das Flores, 10",
		HorizonDays:   30,
		Now:           func() time.Time { return fixedNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("bk-%d", seq)
		},
		Logger: logger,
	})
	carts := cart.NewService(cart.Config{
		Catalog:        reg,
		Store:          cart.NewMemoryStore(time.Hour),
		WhatsAppNumber: "+55 11 99999-0000",
		Logger:         logger,
	})

	bh := NewBookingHandler(manager, HandoffConfig{
		SalonName:      "Salão Bella",
		SalonLocation:  "Rua das Flores, 10",
		WhatsAppNumber: "+55 11 99999-0000",
	}, logger)
	ch := NewCartHandler(carts, logger)
	cat := NewCatalogHandler(reg)
	avail := NewAvailabilityHandler(resolver, logger)

	r := chi.NewRouter()
	r.Get("/health", Health)
	r.Get("/services", cat.ListServices)
	r.Get("/services/{id}", cat.GetService)
	r.Get("/staff", cat.ListStaff)
	r.Get("/products", cat.ListProducts)
	r.Get("/availability", avail.GetSlots)
	r.Post("/bookings", bh.Create)
	r.Get("/admin/bookings", bh.List)
	r.Get("/admin/bookings/{id}", bh.Get)
	r.Post("/admin/bookings/{id}/confirm", bh.Confirm)
	r.Post("/admin/bookings/{id}/cancel", bh.Cancel)
	r.Delete("/admin/bookings/{id}", bh.Delete)
	r.Get("/admin/bookings/{id}/handoff", bh.Handoff)
	r.Post("/carts", ch.Create)
	r.Get("/carts/{id}", ch.Get)
	r.Post("/carts/{id}/items", ch.AddItem)
	r.Put("/carts/{id}/items/{productID}", ch.SetQuantity)
	r.Delete("/carts/{id}/items/{productID}", ch.RemoveItem)
	r.Delete("/carts/{id}", ch.Clear)
	r.Post("/carts/{id}/checkout", ch.Checkout)

	return &harness{registry: reg, store: store, gateway: gateway, manager: manager, carts: carts, router: r}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func validForm() bookings.Form {
	return bookings.Form{
		ClientName:  "Maria Souza",
		ClientPhone: "11988887777",
		ServiceID:   "cut",
		StaffID:     "ana",
		Date:        monday,
		Time:        "10:00",
	}
}

func (h *harness) createBooking(t *testing.T, form bookings.Form) bookings.Booking {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/bookings", form)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return *decodeBody[bookingResponse](t, rec).Booking
}
