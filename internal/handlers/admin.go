package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/models"
	"sesmt-backend/internal/repository"
)

// TrackSettingsStore reads and toggles per-track enablement.
type TrackSettingsStore interface {
	List(ctx context.Context) (map[compliance.TrackID]repository.TrackSettingRow, error)
	SetEnabled(ctx context.Context, id compliance.TrackID, enabled bool) error
}

// AdminHandler exposes the track catalog and its enablement switches.
type AdminHandler struct {
	settings TrackSettingsStore
}

func NewAdminHandler(settings TrackSettingsStore) *AdminHandler {
	return &AdminHandler{settings: settings}
}

// ── Tracks ───────────────────────────────────────────────────

// ListTracks returns the person catalog in catalog order with live
// enablement, plus the entity catalog. Accessible to all authenticated
// users (needed to render forms).
func (h *AdminHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	settings, err := h.listSettings(ctx)
	if err != nil {
		log.Printf("Failed to list track settings: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch tracks")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":     settings,
		"entities": compliance.EntityTracks(),
	})
}

func (h *AdminHandler) listSettings(ctx context.Context) ([]models.TrackSetting, error) {
	rows, err := h.settings.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.TrackSetting, 0, len(rows))
	for _, def := range compliance.PersonTracks() {
		s := models.TrackSetting{Definition: def, Enabled: true}
		if row, ok := rows[def.ID]; ok {
			s.Enabled = row.Enabled
			s.UpdatedAt = &row.UpdatedAt
		}
		out = append(out, s)
	}
	return out, nil
}

// UpdateTrack toggles one track (admin-only). The change applies to the
// next save; stored records are not revalidated.
func (h *AdminHandler) UpdateTrack(w http.ResponseWriter, r *http.Request) {
	id := compliance.TrackID(chi.URLParam(r, "trackId"))
	def, err := compliance.Lookup(id)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Track not found")
		return
	}

	var req models.UpdateTrackSettingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.settings.SetEnabled(ctx, def.ID, *req.Enabled); err != nil {
		log.Printf("Failed to update track %s: %v", def.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update track")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    models.TrackSetting{Definition: def, Enabled: *req.Enabled},
		"message": "Track updated successfully",
	})
}
