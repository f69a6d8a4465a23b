// Package compliance provides pure functions for safety-compliance expiry
// calculations: issuance date in, expiry date, day counts and status out.
// These functions have no dependencies on HTTP, the database, or any other
// infrastructure and are safe to call concurrently.
package compliance

import "time"

// ── Status ───────────────────────────────────────────────────────
// Status is always computed from (issuanceDate, definition, today).
// It is never stored in the database.

// Status is the tri-state expiry status of a track, plus NotInformed for
// tracks without an issuance date.
type Status string

const (
	StatusNotInformed Status = "not_informed" // No issuance date (or an unusable one)
	StatusValid       Status = "valid"        // More than the renewal threshold left
	StatusRenewSoon   Status = "renew_soon"   // Within the renewal threshold
	StatusExpired     Status = "expired"      // Past the expiry date
)

// severity orders statuses for worst-case aggregation.
func (s Status) severity() int {
	switch s {
	case StatusValid:
		return 1
	case StatusRenewSoon:
		return 2
	case StatusExpired:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotInformed, StatusValid, StatusRenewSoon, StatusExpired:
		return true
	}
	return false
}

// ── Track Value ──────────────────────────────────────────────────

// TrackValue is one person's (or one entity's) state on a single track.
// Everything except IssuanceDate is derived.
type TrackValue struct {
	Track         TrackID
	IssuanceDate  *time.Time
	ExpiryDate    *time.Time
	DaysElapsed   *int
	DaysRemaining *int
	Status        Status
}

// Informed reports whether the value carries an issuance date.
func (v TrackValue) Informed() bool {
	return v.IssuanceDate != nil
}

// Complete reports whether both the issuance date and the derived expiry
// date are populated.
func (v TrackValue) Complete() bool {
	return v.IssuanceDate != nil && v.ExpiryDate != nil
}

// ── Internal Helpers ─────────────────────────────────────────────

// civilDay maps a date onto UTC midnight of the same calendar day so that
// day differences are not affected by DST transitions.
func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}
