package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/salon-scheduler/internal/cart"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// CartService is the cart surface the HTTP layer drives.
type CartService interface {
	Create(ctx context.Context) (*cart.View, error)
	Get(ctx context.Context, id string) (*cart.View, error)
	AddItem(ctx context.Context, id, productID string) (*cart.View, error)
	SetQuantity(ctx context.Context, id, productID string, quantity int) (*cart.View, error)
	RemoveItem(ctx context.Context, id, productID string) (*cart.View, error)
	Clear(ctx context.Context, id string) (*cart.View, error)
	Checkout(ctx context.Context, id string) (*cart.CheckoutResult, error)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartHandler serves the product cart API.
type CartHandler struct {
	service CartService
	logger  *logging.Logger
}

func NewCartHandler(service CartService, logger *logging.Logger) *CartHandler {
	if service == nil {
		panic("handlers: cart service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CartHandler{service: service, logger: logger}
}

func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Create(r.Context())
	h.respond(w, http.StatusCreated, v, err)
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, http.StatusOK, v, err)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ProductID == "" {
		jsonError(w, "product_id is required", http.StatusBadRequest)
		return
	}
	v, err := h.service.AddItem(r.Context(), chi.URLParam(r, "id"), req.ProductID)
	h.respond(w, http.StatusOK, v, err)
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "quantity is required", http.StatusBadRequest)
		return
	}
	v, err := h.service.SetQuantity(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productID"), req.Quantity)
	h.respond(w, http.StatusOK, v, err)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productID"))
	h.respond(w, http.StatusOK, v, err)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Clear(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, http.StatusOK, v, err)
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Checkout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CartHandler) respond(w http.ResponseWriter, status int, v *cart.View, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, status, v)
}
