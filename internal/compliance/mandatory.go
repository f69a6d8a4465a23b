package compliance

import "fmt"

// Enablement is a snapshot of the operator-controlled on/off flag per track.
// Missing entries are disabled. Callers must read it fresh for each save.
type Enablement map[TrackID]bool

// ValidationError rejects a save because the first enabled track in
// priority order is not filled in.
type ValidationError struct {
	Track   TrackID
	Name    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RequiredTrack returns the track whose presence is enforced on save: the
// first enabled track in MandatoryPriority order. ok is false when no track
// is enabled.
func RequiredTrack(enabled Enablement) (Definition, bool) {
	for _, id := range MandatoryPriority() {
		if enabled[id] {
			return MustLookup(id), true
		}
	}
	return Definition{}, false
}

// CheckMandatory enforces the save-time rule: the required track must have
// both its issuance date and its derived expiry date. It is applied once at
// the save boundary, never on reads.
func CheckMandatory(enabled Enablement, values map[TrackID]TrackValue) error {
	def, ok := RequiredTrack(enabled)
	if !ok {
		return nil
	}
	if values[def.ID].Complete() {
		return nil
	}
	return &ValidationError{
		Track:   def.ID,
		Name:    def.Name,
		Message: fmt.Sprintf("%s issuance date is required", def.Name),
	}
}
