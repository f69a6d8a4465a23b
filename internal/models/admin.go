package models

import "sesmt-backend/internal/compliance"

// TrackSetting is a catalog entry together with its live enablement flag.
type TrackSetting struct {
	compliance.Definition
	Enabled   bool    `json:"enabled"`
	UpdatedAt *string `json:"updatedAt,omitempty"`
}

// UpdateTrackSettingRequest toggles a track.
type UpdateTrackSettingRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// Validate checks the toggle payload.
func (r *UpdateTrackSettingRequest) Validate() map[string]string {
	return validationErrors(r)
}
