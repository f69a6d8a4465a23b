package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"sesmt-backend/internal/models"
)

// Clock returns the current time. Handlers compute every derived
// compliance field against the calendar day it reports.
type Clock func() time.Time

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// JSONError writes {"error": msg}.
func JSONError(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// validationFailed writes the 422 body used for field-level errors.
func validationFailed(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":   "Validation failed",
		"details": errs,
	})
}

const maxBodySize = 1 << 20 // 1 MB

// decodeJSON reads the request body into v, rejecting oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			JSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// validID reports whether s is a UUID, so malformed IDs 404 before hitting the database.
func validID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// parsePagination reads page and limit query params (defaults 1 and 20, limit capped at 100).
func parsePagination(r *http.Request) (page, limit int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// paginate returns the [start, end) bounds of the requested page over
// total items, plus the metadata describing it.
func paginate(total, page, limit int) (start, end int, meta models.PaginationMeta) {
	meta = models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
	// Past the last page the slice is empty; checked before multiplying.
	if page-1 > total/limit {
		return total, total, meta
	}
	start = (page - 1) * limit
	if start > total {
		start = total
	}
	end = start + limit
	if end > total {
		end = total
	}
	return start, end, meta
}

// parseBoolParam parses "true"/"false" query values; anything else is nil.
func parseBoolParam(s string) *bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}
