package repository

import (
	"context"
	"fmt"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/database"
)

// TrackSettingRow is the stored enablement of one track.
type TrackSettingRow struct {
	Enabled   bool
	UpdatedAt string
}

// TrackSettingsRepository reads and toggles per-track enablement.
type TrackSettingsRepository struct {
	db database.Service
}

// NewTrackSettingsRepository creates a TrackSettingsRepository.
func NewTrackSettingsRepository(db database.Service) *TrackSettingsRepository {
	return &TrackSettingsRepository{db: db}
}

// List returns the stored rows keyed by track.
func (r *TrackSettingsRepository) List(ctx context.Context) (map[compliance.TrackID]TrackSettingRow, error) {
	rows, err := r.db.GetPool().Query(ctx, `
		SELECT track_id, enabled, updated_at::text FROM track_settings
	`)
	if err != nil {
		return nil, fmt.Errorf("list track settings: %w", err)
	}
	defer rows.Close()

	out := map[compliance.TrackID]TrackSettingRow{}
	for rows.Next() {
		var (
			id  compliance.TrackID
			row TrackSettingRow
		)
		if err := rows.Scan(&id, &row.Enabled, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan track setting: %w", err)
		}
		out[id] = row
	}
	return out, rows.Err()
}

// Enablement returns a snapshot of which person tracks are enabled.
// Catalog tracks without a row count as enabled.
func (r *TrackSettingsRepository) Enablement(ctx context.Context) (compliance.Enablement, error) {
	rows, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	enabled := compliance.Enablement{}
	for _, def := range compliance.PersonTracks() {
		row, ok := rows[def.ID]
		enabled[def.ID] = !ok || row.Enabled
	}
	return enabled, nil
}

// SetEnabled stores the flag for one track.
func (r *TrackSettingsRepository) SetEnabled(ctx context.Context, id compliance.TrackID, enabled bool) error {
	_, err := r.db.GetPool().Exec(ctx, `
		INSERT INTO track_settings (track_id, enabled, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (track_id) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()
	`, id, enabled)
	if err != nil {
		return fmt.Errorf("set track enabled: %w", err)
	}
	return nil
}
