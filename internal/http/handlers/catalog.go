package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/salon-scheduler/internal/catalog"
)

// CatalogReader is the read side of the reference catalog.
type CatalogReader interface {
	Services() []catalog.Service
	Service(id string) (catalog.Service, bool)
	ServicesByCategory(cat catalog.Category) []catalog.Service
	StaffMembers() []catalog.Staff
	StaffBySpecialty(cat catalog.Category) []catalog.Staff
	Products() []catalog.Product
}

// CatalogHandler serves services, staff and products.
type CatalogHandler struct {
	catalog CatalogReader
}

func NewCatalogHandler(reader CatalogReader) *CatalogHandler {
	if reader == nil {
		panic("handlers: catalog required")
	}
	return &CatalogHandler{catalog: reader}
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	category := catalog.Category(r.URL.Query().Get("category"))
	if category == "" {
		writeJSON(w, http.StatusOK, h.catalog.Services())
		return
	}
	if !category.Valid() {
		jsonError(w, "unknown category", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.ServicesByCategory(category))
}

func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.catalog.Service(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "service not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *CatalogHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	specialty := catalog.Category(r.URL.Query().Get("specialty"))
	if specialty == "" {
		writeJSON(w, http.StatusOK, h.catalog.StaffMembers())
		return
	}
	if !specialty.Valid() {
		jsonError(w, "unknown specialty", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.StaffBySpecialty(specialty))
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Products())
}
