package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/models"
	"sesmt-backend/internal/receita"
	"sesmt-backend/internal/repository"
)

// SupplierStore is the persistence behind the supplier endpoints.
type SupplierStore interface {
	List(ctx context.Context, f models.SupplierFilter) ([]models.Supplier, error)
	Get(ctx context.Context, id string) (models.Supplier, error)
	Create(ctx context.Context, req models.SupplierRequest) (models.Supplier, error)
	Update(ctx context.Context, id string, req models.SupplierRequest) (models.Supplier, error)
	SetActive(ctx context.Context, id string, active bool, deactivatedAt *string) (models.Supplier, error)
	Delete(ctx context.Context, id string) error
}

// EntityDocumentLister lists entity documents newest first.
type EntityDocumentLister interface {
	List(ctx context.Context) ([]models.EntityDocument, error)
}

// RegistryLookup resolves a CNPJ against the public company registry.
type RegistryLookup interface {
	GetByCNPJ(ctx context.Context, cnpj string) (models.CompanyRegistration, error)
}

// SupplierHandler handles supplier-related HTTP requests.
type SupplierHandler struct {
	store    SupplierStore
	docs     EntityDocumentLister
	registry RegistryLookup
	now      Clock
}

// NewSupplierHandler creates a new SupplierHandler.
func NewSupplierHandler(store SupplierStore, docs EntityDocumentLister, registry RegistryLookup, now Clock) *SupplierHandler {
	return &SupplierHandler{store: store, docs: docs, registry: registry, now: now}
}

// ── List ───────────────────────────────────────────────────────

// List returns suppliers ordered by legal name, each with the program
// status of its CNPJ when entity documents exist for it.
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.SupplierFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Active: parseBoolParam(q.Get("active")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	suppliers, err := h.store.List(ctx, filter)
	if err != nil {
		log.Printf("Error fetching suppliers: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch suppliers")
		return
	}

	idx, err := h.entityIndex(ctx)
	if err != nil {
		log.Printf("Error fetching entity documents: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch suppliers")
		return
	}

	data := make([]models.SupplierWithCompliance, 0, len(suppliers))
	for _, s := range suppliers {
		data = append(data, withCompliance(s, idx))
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": data})
}

func (h *SupplierHandler) entityIndex(ctx context.Context) (*compliance.EntityIndex, error) {
	docs, err := h.docs.List(ctx)
	if err != nil {
		return nil, err
	}
	return entityIndex(docs, h.now()), nil
}

func withCompliance(s models.Supplier, idx *compliance.EntityIndex) models.SupplierWithCompliance {
	out := models.SupplierWithCompliance{Supplier: s}
	if st, ok := idx.StatusFor(s.CNPJ); ok {
		out.Compliance = entityStatusView(st)
	}
	return out
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/suppliers/{id}.
func (h *SupplierHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "Supplier not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := h.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "Supplier not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching supplier %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch supplier")
		return
	}

	idx, err := h.entityIndex(ctx)
	if err != nil {
		log.Printf("Error fetching entity documents: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch supplier")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": withCompliance(s, idx)})
}

// ── Lookup ─────────────────────────────────────────────────────

// Lookup handles GET /api/suppliers/lookup/{cnpj} and returns the public
// registry data used to prefill the supplier form.
func (h *SupplierHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	cnpj := compliance.NormalizeTaxID(chi.URLParam(r, "cnpj"))
	if !compliance.ValidCNPJ(cnpj) {
		JSONError(w, http.StatusBadRequest, "Invalid CNPJ")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	reg, err := h.registry.GetByCNPJ(ctx, cnpj)
	if errors.Is(err, receita.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "CNPJ not found in the public registry")
		return
	}
	if err != nil {
		log.Printf("Error looking up CNPJ %s: %v", cnpj, err)
		JSONError(w, http.StatusBadGateway, "CNPJ lookup is unavailable")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": reg})
}

// ── Create / Update ────────────────────────────────────────────

func normalizeSupplier(req *models.SupplierRequest) {
	req.CNPJ = compliance.NormalizeTaxID(req.CNPJ)
	req.LegalName = strings.TrimSpace(req.LegalName)
}

// Create adds a new supplier.
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.SupplierRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	normalizeSupplier(&req)
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := h.store.Create(ctx, req)
	if errors.Is(err, repository.ErrDuplicate) {
		JSONError(w, http.StatusConflict, "A supplier with this CNPJ already exists")
		return
	}
	if err != nil {
		log.Printf("Error creating supplier: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create supplier")
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    s,
		"message": "Supplier created successfully",
	})
}

// Update replaces a supplier's fields.
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "Supplier not found")
		return
	}

	var req models.SupplierRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	normalizeSupplier(&req)
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := h.store.Update(ctx, id, req)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		JSONError(w, http.StatusNotFound, "Supplier not found")
		return
	case errors.Is(err, repository.ErrDuplicate):
		JSONError(w, http.StatusConflict, "A supplier with this CNPJ already exists")
		return
	case err != nil:
		log.Printf("Error updating supplier %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update supplier")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    s,
		"message": "Supplier updated successfully",
	})
}

// ── Active / Delete ────────────────────────────────────────────

// SetActive handles PATCH /api/suppliers/{id}/active.
func (h *SupplierHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "Supplier not found")
		return
	}

	var req models.SetActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := h.store.SetActive(ctx, id, *req.Active, deactivationDate(req.Date, h.now()))
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "Supplier not found")
		return
	}
	if err != nil {
		log.Printf("Error toggling supplier %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update supplier")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": s})
}

// Delete removes a supplier.
func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "Supplier not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "Supplier not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting supplier %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete supplier")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"message": "Supplier deleted successfully"})
}
