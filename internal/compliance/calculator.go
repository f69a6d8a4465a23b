package compliance

import "time"

const secondsPerDay = 24 * 60 * 60

// ── Expiry Computation ───────────────────────────────────────────

// ExpiryDate returns issuance plus the track's validity period using
// calendar addition (day-of-month is kept where the target month allows it,
// otherwise time.AddDate normalization applies).
func ExpiryDate(issuance time.Time, def Definition) time.Time {
	return issuance.AddDate(def.Years, def.Months, 0)
}

// StatusFor derives the status from a signed days-remaining count.
func StatusFor(daysRemaining, renewalThresholdDays int) Status {
	switch {
	case daysRemaining < 0:
		return StatusExpired
	case daysRemaining <= renewalThresholdDays:
		return StatusRenewSoon
	default:
		return StatusValid
	}
}

// Compute derives the full track value for one issuance date.
// Parameters:
//   - issuance: the issuance date (nil → not informed)
//   - def:      the track's validity rule
//   - today:    reference date (injected for testability); its time of day is ignored
//
// Issuance, expiry and today are all truncated to their calendar day before
// counting. Days elapsed are clamped at zero, days remaining may be negative.
func Compute(issuance *time.Time, def Definition, today time.Time) TrackValue {
	v := TrackValue{Track: def.ID, Status: StatusNotInformed}
	if issuance == nil || issuance.IsZero() {
		return v
	}

	issued := *issuance
	expiry := ExpiryDate(issued, def)
	ref := civilDay(today)

	elapsed := daysBetween(civilDay(issued), ref)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := daysBetween(ref, civilDay(expiry))

	v.IssuanceDate = timePtr(issued)
	v.ExpiryDate = timePtr(expiry)
	v.DaysElapsed = intPtr(elapsed)
	v.DaysRemaining = intPtr(remaining)
	v.Status = StatusFor(remaining, def.RenewalThresholdDays)
	return v
}

// ComputeText parses free-text issuance input and computes the track value.
// Anything that does not parse to a complete calendar date yields NotInformed.
func ComputeText(raw string, def Definition, today time.Time) TrackValue {
	issued, ok := ParseIssuanceDate(raw)
	if !ok {
		return TrackValue{Track: def.ID, Status: StatusNotInformed}
	}
	return Compute(&issued, def, today)
}

// ComputeTrack is Compute keyed by track id; it fails only for ids outside
// the person catalog.
func ComputeTrack(id TrackID, issuance *time.Time, today time.Time) (TrackValue, error) {
	def, err := Lookup(id)
	if err != nil {
		return TrackValue{}, err
	}
	return Compute(issuance, def, today), nil
}

// ── Helper Computations ──────────────────────────────────────────

// daysBetween returns the whole days from one UTC midnight to another.
// It works on Unix seconds so distant years do not saturate time.Duration.
func daysBetween(from, to time.Time) int {
	return int((to.Unix() - from.Unix()) / secondsPerDay)
}
