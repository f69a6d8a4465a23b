package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"sesmt-backend/internal/compliance"
)

// Employee represents an employee record in the database.
type Employee struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Employer      string    `json:"employer"` // contracting company the employee works for
	JobTitle      string    `json:"jobTitle"`
	PhotoURL      *string   `json:"photoUrl"`
	Active        bool      `json:"active"`
	DeactivatedAt *string   `json:"deactivatedAt,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// StoredTrack is the persisted part of a track value. ExpiryDate is derived
// and rewritten whenever IssuanceDate changes.
type StoredTrack struct {
	IssuanceDate *string `json:"issuanceDate"`
	ExpiryDate   *string `json:"expiryDate"`
}

// EmployeeRecord is an employee with its stored track rows.
type EmployeeRecord struct {
	Employee
	Tracks map[compliance.TrackID]StoredTrack `json:"-"`
}

// TrackField is a track value as returned by the API. Every field except
// IssuanceDate is COMPUTED on read.
type TrackField struct {
	Track         compliance.TrackID `json:"track"`
	Name          string             `json:"name"`
	IssuanceDate  *string            `json:"issuanceDate"`
	ExpiryDate    *string            `json:"expiryDate"`
	DaysElapsed   *int               `json:"daysElapsed"`
	DaysRemaining *int               `json:"daysRemaining"`
	Status        compliance.Status  `json:"status"`
}

// NewTrackField converts an engine value into its API shape.
func NewTrackField(def compliance.Definition, v compliance.TrackValue) TrackField {
	return TrackField{
		Track:         def.ID,
		Name:          def.Name,
		IssuanceDate:  compliance.FormatDate(v.IssuanceDate),
		ExpiryDate:    compliance.FormatDate(v.ExpiryDate),
		DaysElapsed:   v.DaysElapsed,
		DaysRemaining: v.DaysRemaining,
		Status:        v.Status,
	}
}

// EmployeeWithCompliance extends Employee with per-track derived fields and
// the worst-case status across tracks.
type EmployeeWithCompliance struct {
	Employee
	ComplianceStatus compliance.Status                 `json:"complianceStatus"`
	Tracks           map[compliance.TrackID]TrackField `json:"tracks"`
}

// EmployeeFilter narrows employee listings. Status and Track filters are
// applied after compliance is computed, the rest in SQL.
type EmployeeFilter struct {
	Search   string
	Employer string
	JobTitle string
	Active   *bool
}

// EmployeeListResponse is a page of employees plus counters computed over
// the whole filtered set.
type EmployeeListResponse struct {
	Data       []EmployeeWithCompliance `json:"data"`
	Counters   compliance.Tally         `json:"counters"`
	Pagination PaginationMeta           `json:"pagination"`
}

// CreateEmployeeRequest holds the fields needed to create an employee.
// Tracks maps track id → issuance date text (dd/mm/yyyy, dd/mm/yy or yyyy-mm-dd).
type CreateEmployeeRequest struct {
	Name     string             `json:"name" validate:"required,min=2,max=120"`
	Employer string             `json:"employer" validate:"required,max=120"`
	JobTitle string             `json:"jobTitle" validate:"required,max=120"`
	PhotoURL string             `json:"photoUrl,omitempty" validate:"omitempty,max=500"`
	Tracks   map[string]*string `json:"tracks"`
}

// UpdateEmployeeRequest holds the fields that can be updated. Only the
// tracks present in Tracks are recomputed; a null or empty value clears one.
type UpdateEmployeeRequest struct {
	Name     *string            `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Employer *string            `json:"employer,omitempty" validate:"omitempty,max=120"`
	JobTitle *string            `json:"jobTitle,omitempty" validate:"omitempty,max=120"`
	PhotoURL *string            `json:"photoUrl,omitempty" validate:"omitempty,max=500"`
	Tracks   map[string]*string `json:"tracks,omitempty"`
}

// HasFields reports whether the update carries any change.
func (r *UpdateEmployeeRequest) HasFields() bool {
	return r.Name != nil || r.Employer != nil || r.JobTitle != nil || r.PhotoURL != nil || len(r.Tracks) > 0
}

// EmployeeUpdate is the column-level change set passed to the store.
type EmployeeUpdate struct {
	Name     *string
	Employer *string
	JobTitle *string
	PhotoURL *string
}

// SetActiveRequest toggles the active flag. Date defaults to today when
// deactivating and is ignored when activating.
type SetActiveRequest struct {
	Active *bool   `json:"active" validate:"required"`
	Date   *string `json:"date,omitempty" validate:"omitempty,isodate"`
}

// Validate checks if the create request contains valid data.
func (r *CreateEmployeeRequest) Validate() map[string]string {
	errs := validationErrors(r)
	validateTracks(r.Tracks, errs)
	return errs
}

// Validate checks the provided update fields.
func (r *UpdateEmployeeRequest) Validate() map[string]string {
	errs := validationErrors(r)
	validateTracks(r.Tracks, errs)
	return errs
}

// Validate checks the toggle payload.
func (r *SetActiveRequest) Validate() map[string]string {
	return validationErrors(r)
}

// validateTracks rejects unknown track ids and issuance text that is not a
// complete date. null and "" clear the track and always pass.
func validateTracks(tracks map[string]*string, errs map[string]string) {
	for id, text := range tracks {
		key := "tracks." + id
		if !compliance.IsPersonTrack(compliance.TrackID(id)) {
			errs[key] = "Unknown compliance track"
			continue
		}
		if text == nil {
			continue
		}
		var ve validator.ValidationErrors
		if err := validate.Var(*text, "issuedate"); errors.As(err, &ve) {
			errs[key] = messageFor(ve[0])
		}
	}
}
