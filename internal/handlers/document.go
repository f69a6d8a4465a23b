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
	"sesmt-backend/internal/repository"
)

// EntityDocumentStore is the persistence behind the entity document endpoints.
type EntityDocumentStore interface {
	List(ctx context.Context) ([]models.EntityDocument, error)
	Get(ctx context.Context, id string) (models.EntityDocument, error)
	Create(ctx context.Context, w repository.EntityDocumentWrite) (models.EntityDocument, error)
	Update(ctx context.Context, id string, w repository.EntityDocumentWrite) (models.EntityDocument, error)
	Delete(ctx context.Context, id string) error
}

// DocumentHandler handles organization program documents (risk program
// and health program) keyed by CNPJ.
type DocumentHandler struct {
	store EntityDocumentStore
	now   Clock
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(store EntityDocumentStore, now Clock) *DocumentHandler {
	return &DocumentHandler{store: store, now: now}
}

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/entity-documents.
// Returns every row newest first; counters count each CNPJ once using its
// newest row. ?cnpj= narrows to one organization.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	docs, err := h.store.List(ctx)
	if err != nil {
		log.Printf("Error fetching entity documents: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch documents")
		return
	}

	if cnpj := compliance.NormalizeTaxID(r.URL.Query().Get("cnpj")); cnpj != "" {
		kept := docs[:0]
		for _, d := range docs {
			if compliance.NormalizeTaxID(d.CNPJ) == cnpj {
				kept = append(kept, d)
			}
		}
		docs = kept
	}

	today := h.now()
	data := make([]models.EntityDocumentWithCompliance, 0, len(docs))
	for _, d := range docs {
		data = append(data, entityView(d, today))
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":     data,
		"counters": entityIndex(docs, today).Tally(),
	})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/entity-documents/{id}.
func (h *DocumentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "Document not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doc, err := h.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "Document not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching entity document %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch document")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": entityView(doc, h.now())})
}

// ── Status ─────────────────────────────────────────────────────

// Status handles GET /api/entity-documents/status/{cnpj} and answers
// {riskProgramStatus, healthProgramStatus} from the newest row for that CNPJ.
func (h *DocumentHandler) Status(w http.ResponseWriter, r *http.Request) {
	cnpj := compliance.NormalizeTaxID(chi.URLParam(r, "cnpj"))
	if !compliance.ValidCNPJ(cnpj) {
		JSONError(w, http.StatusBadRequest, "Invalid CNPJ")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	docs, err := h.store.List(ctx)
	if err != nil {
		log.Printf("Error fetching entity documents: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch documents")
		return
	}

	st, ok := entityIndex(docs, h.now()).StatusFor(cnpj)
	if !ok {
		JSONError(w, http.StatusNotFound, "No documents on file for this CNPJ")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": entityStatusView(st)})
}

// ── Create / Update ────────────────────────────────────────────

// entityWrite parses the request's dates and derives their expiry dates.
func entityWrite(req models.EntityDocumentRequest, today time.Time) repository.EntityDocumentWrite {
	rec := compliance.ComputeEntity(compliance.EntityRecord{
		TaxID:               req.CNPJ,
		RiskProgramIssued:   compliance.ParseOptionalDate(req.RiskProgramIssued),
		HealthProgramIssued: compliance.ParseOptionalDate(req.HealthProgramIssued),
	}, today)
	return repository.EntityDocumentWrite{
		CNPJ:                rec.TaxID,
		CompanyName:         strings.TrimSpace(req.CompanyName),
		RiskProgramIssued:   compliance.FormatDate(rec.RiskProgram.IssuanceDate),
		RiskProgramExpiry:   compliance.FormatDate(rec.RiskProgram.ExpiryDate),
		HealthProgramIssued: compliance.FormatDate(rec.HealthProgram.IssuanceDate),
		HealthProgramExpiry: compliance.FormatDate(rec.HealthProgram.ExpiryDate),
	}
}

// Create handles POST /api/entity-documents.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.EntityDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	today := h.now()
	doc, err := h.store.Create(ctx, entityWrite(req, today))
	if err != nil {
		log.Printf("Error creating entity document: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create document")
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    entityView(doc, today),
		"message": "Document created successfully",
	})
}

// Update handles PUT /api/entity-documents/{id}.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "Document not found")
		return
	}

	var req models.EntityDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	today := h.now()
	doc, err := h.store.Update(ctx, id, entityWrite(req, today))
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "Document not found")
		return
	}
	if err != nil {
		log.Printf("Error updating entity document %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update document")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    entityView(doc, today),
		"message": "Document updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/entity-documents/{id}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "Document not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "Document not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting entity document %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"message": "Document deleted successfully"})
}
