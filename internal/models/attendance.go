package models

// Attendance codes recorded per employee per day.
const (
	AttendancePresent   = "P"
	AttendanceAbsent    = "F"
	AttendanceJustified = "FJ"
	AttendanceMedical   = "AT"
	AttendanceVacation  = "FE"
	AttendanceDayOff    = "FO"
)

// AttendanceCodes lists the valid codes in display order.
var AttendanceCodes = []string{
	AttendancePresent, AttendanceAbsent, AttendanceJustified,
	AttendanceMedical, AttendanceVacation, AttendanceDayOff,
}

// AttendanceMark is one stored cell of the monthly grid.
type AttendanceMark struct {
	EmployeeID string `json:"employeeId"`
	Day        string `json:"day"` // yyyy-mm-dd
	Code       string `json:"code"`
}

// AttendanceRow is one employee's line in the monthly grid. Days is keyed
// by day of month.
type AttendanceRow struct {
	EmployeeID   string         `json:"employeeId"`
	EmployeeName string         `json:"employeeName"`
	Employer     string         `json:"employer"`
	Days         map[int]string `json:"days"`
	Totals       map[string]int `json:"totals"`
}

// AttendanceMonth is the full grid for one month.
type AttendanceMonth struct {
	Month       string          `json:"month"` // yyyy-mm
	DaysInMonth int             `json:"daysInMonth"`
	Codes       []string        `json:"codes"`
	Rows        []AttendanceRow `json:"rows"`
}

// AttendanceMarkRequest sets or clears a single cell. An empty code clears it.
type AttendanceMarkRequest struct {
	EmployeeID string `json:"employeeId" validate:"required,uuid"`
	Day        string `json:"day" validate:"required,isodate"`
	Code       string `json:"code" validate:"omitempty,oneof=P F FJ AT FE FO"`
}

// BulkAttendanceRequest upserts many cells at once.
type BulkAttendanceRequest struct {
	Marks []AttendanceMarkRequest `json:"marks" validate:"required,min=1,max=2000,dive"`
}

// Validate checks every mark in the batch.
func (r *BulkAttendanceRequest) Validate() map[string]string {
	return validationErrors(r)
}
