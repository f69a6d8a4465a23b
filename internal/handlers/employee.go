package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/models"
	"sesmt-backend/internal/repository"
)

// EmployeeStore is the persistence the employee endpoints need.
type EmployeeStore interface {
	List(ctx context.Context, f models.EmployeeFilter) ([]models.EmployeeRecord, error)
	Get(ctx context.Context, id string) (models.EmployeeRecord, error)
	Create(ctx context.Context, emp models.Employee, tracks map[compliance.TrackID]models.StoredTrack) (models.EmployeeRecord, error)
	Update(ctx context.Context, id string, upd models.EmployeeUpdate, tracks map[compliance.TrackID]models.StoredTrack) (models.EmployeeRecord, error)
	SetActive(ctx context.Context, id string, active bool, deactivatedAt *string) (models.EmployeeRecord, error)
	Delete(ctx context.Context, id string) error
}

// EnablementSource supplies the live track-enablement snapshot.
type EnablementSource interface {
	Enablement(ctx context.Context) (compliance.Enablement, error)
}

// EmployeeHandler handles employee-related HTTP requests.
type EmployeeHandler struct {
	store    EmployeeStore
	settings EnablementSource
	now      Clock
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(store EmployeeStore, settings EnablementSource, now Clock) *EmployeeHandler {
	return &EmployeeHandler{store: store, settings: settings, now: now}
}

// ── Create ─────────────────────────────────────────────────────

// Create handles POST /api/employees.
// Each submitted issuance date is parsed and computed, the mandatory-track
// rule is checked against the current enablement, then the record is saved.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEmployeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Employer = strings.TrimSpace(req.Employer)
	req.JobTitle = strings.TrimSpace(req.JobTitle)

	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	today := h.now()
	rows, values := storedTracks(req.Tracks, today)
	if !h.checkMandatory(ctx, w, values) {
		return
	}

	rec, err := h.store.Create(ctx, models.Employee{
		Name:     req.Name,
		Employer: req.Employer,
		JobTitle: req.JobTitle,
		PhotoURL: nilIfEmpty(req.PhotoURL),
	}, rows)
	if err != nil {
		log.Printf("Error creating employee: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create employee")
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    evaluateEmployee(rec, today).view,
		"message": "Employee created successfully",
	})
}

// checkMandatory enforces the mandatory-track rule against a fresh
// enablement snapshot. It writes the response and returns false on failure.
func (h *EmployeeHandler) checkMandatory(ctx context.Context, w http.ResponseWriter, values map[compliance.TrackID]compliance.TrackValue) bool {
	enabled, err := h.settings.Enablement(ctx)
	if err != nil {
		log.Printf("Error loading track settings: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to load track settings")
		return false
	}

	err = compliance.CheckMandatory(enabled, values)
	var verr *compliance.ValidationError
	if errors.As(err, &verr) {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": verr.Message,
			"track": verr.Track,
		})
		return false
	}
	if err != nil {
		log.Printf("Error checking mandatory tracks: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to validate tracks")
		return false
	}
	return true
}

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/employees.
// SQL narrows by search/employer/job title/active; status and track filters
// run on the computed values. Counters cover the whole filtered set, the
// page only slices the detail rows.
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	evs, ok := h.filtered(w, r)
	if !ok {
		return
	}

	start, end, meta := paginate(len(evs), page, limit)
	data := make([]models.EmployeeWithCompliance, 0, end-start)
	for _, ev := range evs[start:end] {
		data = append(data, ev.view)
	}

	JSON(w, http.StatusOK, models.EmployeeListResponse{
		Data:       data,
		Counters:   tallyOf(evs),
		Pagination: meta,
	})
}

// filtered loads and evaluates every employee matching the query string.
func (h *EmployeeHandler) filtered(w http.ResponseWriter, r *http.Request) ([]evaluation, bool) {
	q := r.URL.Query()

	status := compliance.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		JSONError(w, http.StatusBadRequest, "Invalid status filter")
		return nil, false
	}
	track := compliance.TrackID(q.Get("track"))
	if track != "" && !compliance.IsPersonTrack(track) {
		JSONError(w, http.StatusBadRequest, "Invalid track filter")
		return nil, false
	}

	filter := models.EmployeeFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Employer: q.Get("employer"),
		JobTitle: q.Get("job_title"),
		Active:   parseBoolParam(q.Get("active")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	recs, err := h.store.List(ctx, filter)
	if err != nil {
		log.Printf("Error querying employees: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch employees")
		return nil, false
	}

	all := evaluateEmployees(recs, h.now())
	out := all[:0]
	for _, ev := range all {
		if matchesStatus(ev, status, track) {
			out = append(out, ev)
		}
	}
	return out, true
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/employees/{id}.
func (h *EmployeeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "Employee not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "Employee not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching employee %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch employee")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": evaluateEmployee(rec, h.now()).view,
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update handles PUT /api/employees/{id}. Only tracks present in the body
// are recomputed; the mandatory rule sees stored values for the rest.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "Employee not found")
		return
	}

	var req models.UpdateEmployeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.HasFields() {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	existing, err := h.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "Employee not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching employee %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update employee")
		return
	}

	today := h.now()
	rows, submitted := storedTracks(req.Tracks, today)
	if !h.checkMandatory(ctx, w, currentValues(existing, submitted, today)) {
		return
	}

	rec, err := h.store.Update(ctx, id, models.EmployeeUpdate{
		Name:     trimmed(req.Name),
		Employer: trimmed(req.Employer),
		JobTitle: trimmed(req.JobTitle),
		PhotoURL: req.PhotoURL,
	}, rows)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "Employee not found")
		return
	}
	if err != nil {
		log.Printf("Error updating employee %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update employee")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    evaluateEmployee(rec, today).view,
		"message": "Employee updated successfully",
	})
}

// ── Active toggle ──────────────────────────────────────────────

// SetActive handles PATCH /api/employees/{id}/active.
// Deactivation records a date (today unless given); records are never
// soft-deleted by this endpoint.
func (h *EmployeeHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "Employee not found")
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

	today := h.now()
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.store.SetActive(ctx, id, *req.Active, deactivationDate(req.Date, today))
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "Employee not found")
		return
	}
	if err != nil {
		log.Printf("Error toggling employee %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update employee")
		return
	}

	msg := "Employee activated"
	if !*req.Active {
		msg = "Employee deactivated"
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    evaluateEmployee(rec, today).view,
		"message": msg,
	})
}

// deactivationDate normalizes the optional date to yyyy-mm-dd, defaulting to today.
func deactivationDate(raw *string, today time.Time) *string {
	if raw != nil {
		if t, ok := compliance.ParseIssuanceDate(*raw); ok {
			return compliance.FormatDate(&t)
		}
	}
	s := today.Format(compliance.DateLayout)
	return &s
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/employees/{id}. This is a hard delete; use
// the active toggle to keep history.
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "Employee not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "Employee not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting employee %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete employee")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Employee deleted successfully",
	})
}

// ── Export ──────────────────────────────────────────────────────

// Export handles GET /api/employees/export and returns CSV for every
// employee matching the list filters, one column group per track.
func (h *EmployeeHandler) Export(w http.ResponseWriter, r *http.Request) {
	evs, ok := h.filtered(w, r)
	if !ok {
		return
	}

	defs := compliance.PersonTracks()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=employees.csv")

	header := []string{"Name", "Employer", "Job Title", "Active", "Status"}
	for _, def := range defs {
		header = append(header,
			def.Name+" Issued", def.Name+" Expires", def.Name+" Days Remaining", def.Name+" Status")
	}
	writeCSVRow(w, header)

	for _, ev := range evs {
		emp := ev.view
		row := []string{emp.Name, emp.Employer, emp.JobTitle, fmt.Sprintf("%t", emp.Active), string(emp.ComplianceStatus)}
		for _, def := range defs {
			tf := emp.Tracks[def.ID]
			row = append(row, deref(tf.IssuanceDate), deref(tf.ExpiryDate), intOrEmpty(tf.DaysRemaining), string(tf.Status))
		}
		writeCSVRow(w, row)
	}
}

// ── Helpers ────────────────────────────────────────────────────

// nilIfEmpty returns nil if the string is empty, otherwise returns a pointer to it.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrEmpty(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}

// writeCSVRow writes one escaped CSV line.
func writeCSVRow(w http.ResponseWriter, fields []string) {
	for i, f := range fields {
		fields[i] = csvEscape(f)
	}
	fmt.Fprintln(w, strings.Join(fields, ","))
}

// csvEscape wraps a value in quotes if it contains commas, quotes or newlines.
func csvEscape(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}
