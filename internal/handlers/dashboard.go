package handlers

import (
	"context"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/models"
)

// SupplierLister lists suppliers for dashboard counters.
type SupplierLister interface {
	List(ctx context.Context, f models.SupplierFilter) ([]models.Supplier, error)
}

// DashboardHandler serves the aggregate counters of the home screen.
type DashboardHandler struct {
	employees EmployeeLister
	docs      EntityDocumentLister
	suppliers SupplierLister
	now       Clock
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(employees EmployeeLister, docs EntityDocumentLister, suppliers SupplierLister, now Clock) *DashboardHandler {
	return &DashboardHandler{employees: employees, docs: docs, suppliers: suppliers, now: now}
}

// maxCriticalAlerts caps the alert list embedded in the metrics response.
const maxCriticalAlerts = 10

// ── GetMetrics ─────────────────────────────────────────────────

// GetMetrics handles GET /api/dashboard.
// Employee counters and per-track tallies cover active employees; entity
// counters count each CNPJ once.
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	recs, err := h.employees.List(ctx, models.EmployeeFilter{})
	if err != nil {
		log.Printf("Error querying employees: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}
	docs, err := h.docs.List(ctx)
	if err != nil {
		log.Printf("Error querying entity documents: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}
	active := true
	suppliers, err := h.suppliers.List(ctx, models.SupplierFilter{Active: &active})
	if err != nil {
		log.Printf("Error querying suppliers: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	today := h.now()
	activeEvs := activeOnly(evaluateEmployees(recs, today))

	perPerson := make([]map[compliance.TrackID]compliance.TrackValue, len(activeEvs))
	for i, ev := range activeEvs {
		perPerson[i] = ev.values
	}

	idx := entityIndex(docs, today)
	alerts := expiryAlerts(activeEvs)
	if len(alerts) > maxCriticalAlerts {
		alerts = alerts[:maxCriticalAlerts]
	}

	JSON(w, http.StatusOK, models.DashboardMetrics{
		TotalEmployees:  len(recs),
		ActiveEmployees: len(activeEvs),
		Employees:       tallyOf(activeEvs),
		Tracks:          compliance.TallyByTrack(perPerson),
		Entities:        idx.Tally(),
		TotalEntities:   idx.Len(),
		ActiveSuppliers: len(suppliers),
		CriticalAlerts:  alerts,
	})
}

// ── GetExpiryAlerts ────────────────────────────────────────────

// GetExpiryAlerts handles GET /api/dashboard/expiring and lists every
// expired or renew-soon track of active employees, most urgent first.
// ?limit= caps the list.
func (h *DashboardHandler) GetExpiryAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	recs, err := h.employees.List(ctx, models.EmployeeFilter{})
	if err != nil {
		log.Printf("Error fetching expiry alerts: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}

	alerts := expiryAlerts(activeOnly(evaluateEmployees(recs, h.now())))
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(alerts) {
		alerts = alerts[:limit]
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": alerts})
}

func activeOnly(evs []evaluation) []evaluation {
	out := make([]evaluation, 0, len(evs))
	for _, ev := range evs {
		if ev.view.Active {
			out = append(out, ev)
		}
	}
	return out
}

// expiryAlerts flattens expired and renew-soon tracks, sorted by days remaining.
func expiryAlerts(evs []evaluation) []models.ExpiryAlert {
	alerts := []models.ExpiryAlert{}
	for _, ev := range evs {
		for _, def := range compliance.PersonTracks() {
			tf := ev.view.Tracks[def.ID]
			if tf.Status != compliance.StatusExpired && tf.Status != compliance.StatusRenewSoon {
				continue
			}
			alerts = append(alerts, models.ExpiryAlert{
				EmployeeID:    ev.view.ID,
				EmployeeName:  ev.view.Name,
				Employer:      ev.view.Employer,
				Track:         def.ID,
				TrackName:     def.Name,
				ExpiryDate:    deref(tf.ExpiryDate),
				DaysRemaining: *tf.DaysRemaining,
				Status:        tf.Status,
			})
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysRemaining < alerts[j].DaysRemaining
	})
	return alerts
}
