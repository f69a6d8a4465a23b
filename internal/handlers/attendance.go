package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/models"
	"sesmt-backend/internal/repository"
)

// AttendanceStore persists the monthly attendance grid.
type AttendanceStore interface {
	ListRange(ctx context.Context, from, to time.Time) ([]models.AttendanceMark, error)
	Save(ctx context.Context, marks []models.AttendanceMark) error
}

// EmployeeLister lists employees for grids and dashboards.
type EmployeeLister interface {
	List(ctx context.Context, f models.EmployeeFilter) ([]models.EmployeeRecord, error)
}

// AttendanceHandler serves the monthly attendance grid.
type AttendanceHandler struct {
	store     AttendanceStore
	employees EmployeeLister
	now       Clock
}

// NewAttendanceHandler creates an AttendanceHandler.
func NewAttendanceHandler(store AttendanceStore, employees EmployeeLister, now Clock) *AttendanceHandler {
	return &AttendanceHandler{store: store, employees: employees, now: now}
}

// parseMonth reads ?month=YYYY-MM, defaulting to the current month.
func (h *AttendanceHandler) parseMonth(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		now := h.now()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), true
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ── Month grid ─────────────────────────────────────────────────

// Month handles GET /api/attendance?month=YYYY-MM.
// Rows are the active employees plus anyone with a mark in the month.
func (h *AttendanceHandler) Month(w http.ResponseWriter, r *http.Request) {
	first, ok := h.parseMonth(r)
	if !ok {
		JSONError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	grid, err := h.buildMonth(ctx, first)
	if err != nil {
		log.Printf("Error building attendance for %s: %v", first.Format("2006-01"), err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch attendance")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": grid})
}

func (h *AttendanceHandler) buildMonth(ctx context.Context, first time.Time) (models.AttendanceMonth, error) {
	next := first.AddDate(0, 1, 0)

	marks, err := h.store.ListRange(ctx, first, next)
	if err != nil {
		return models.AttendanceMonth{}, err
	}
	recs, err := h.employees.List(ctx, models.EmployeeFilter{})
	if err != nil {
		return models.AttendanceMonth{}, err
	}

	byEmployee := map[string][]models.AttendanceMark{}
	for _, m := range marks {
		byEmployee[m.EmployeeID] = append(byEmployee[m.EmployeeID], m)
	}

	grid := models.AttendanceMonth{
		Month:       first.Format("2006-01"),
		DaysInMonth: next.AddDate(0, 0, -1).Day(),
		Codes:       models.AttendanceCodes,
		Rows:        []models.AttendanceRow{},
	}
	for _, rec := range recs {
		own := byEmployee[rec.ID]
		if !rec.Active && len(own) == 0 {
			continue
		}
		row := models.AttendanceRow{
			EmployeeID:   rec.ID,
			EmployeeName: rec.Name,
			Employer:     rec.Employer,
			Days:         map[int]string{},
			Totals:       map[string]int{},
		}
		for _, m := range own {
			day, err := time.Parse(time.DateOnly, m.Day)
			if err != nil {
				continue
			}
			row.Days[day.Day()] = m.Code
			row.Totals[m.Code]++
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}

// ── Save ───────────────────────────────────────────────────────

// Save handles PUT /api/attendance. Marks are upserted in one transaction;
// an empty code clears the cell.
func (h *AttendanceHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.BulkAttendanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	marks := make([]models.AttendanceMark, 0, len(req.Marks))
	for _, m := range req.Marks {
		// Already validated, so parsing cannot fail here.
		day, _ := compliance.ParseIssuanceDate(m.Day)
		marks = append(marks, models.AttendanceMark{
			EmployeeID: m.EmployeeID,
			Day:        day.Format(compliance.DateLayout),
			Code:       m.Code,
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	err := h.store.Save(ctx, marks)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusUnprocessableEntity, "Unknown employee in attendance marks")
		return
	}
	if err != nil {
		log.Printf("Error saving attendance: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to save attendance")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Attendance saved",
		"count":   len(marks),
	})
}

// ── Export ──────────────────────────────────────────────────────

// Export handles GET /api/attendance/export?month=YYYY-MM and returns CSV.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	first, ok := h.parseMonth(r)
	if !ok {
		JSONError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	grid, err := h.buildMonth(ctx, first)
	if err != nil {
		log.Printf("Error exporting attendance: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=attendance-%s.csv", grid.Month))

	header := []string{"Name", "Employer"}
	for d := 1; d <= grid.DaysInMonth; d++ {
		header = append(header, strconv.Itoa(d))
	}
	header = append(header, grid.Codes...)
	writeCSVRow(w, header)

	for _, row := range grid.Rows {
		fields := []string{row.EmployeeName, row.Employer}
		for d := 1; d <= grid.DaysInMonth; d++ {
			fields = append(fields, row.Days[d])
		}
		for _, code := range grid.Codes {
			fields = append(fields, strconv.Itoa(row.Totals[code]))
		}
		writeCSVRow(w, fields)
	}
}
