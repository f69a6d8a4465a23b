package models

import "sesmt-backend/internal/compliance"

// ── Pagination ───────────────────────────────────────────────────

// PaginationMeta describes one page of a listing.
type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ── Dashboard ────────────────────────────────────────────────────

// DashboardMetrics holds the main dashboard counters. Employee counters
// cover active employees only.
type DashboardMetrics struct {
	TotalEmployees  int                     `json:"totalEmployees"`
	ActiveEmployees int                     `json:"activeEmployees"`
	Employees       compliance.Tally        `json:"employees"`
	Tracks          []compliance.TrackTally `json:"tracks"`
	Entities        compliance.Tally        `json:"entities"`
	TotalEntities   int                     `json:"totalEntities"`
	ActiveSuppliers int                     `json:"activeSuppliers"`
	CriticalAlerts  []ExpiryAlert           `json:"criticalAlerts"`
}

// ── Expiry Alerts ────────────────────────────────────────────────

// ExpiryAlert represents one track that is expired or due for renewal.
type ExpiryAlert struct {
	EmployeeID    string             `json:"employeeId"`
	EmployeeName  string             `json:"employeeName"`
	Employer      string             `json:"employer"`
	Track         compliance.TrackID `json:"track"`
	TrackName     string             `json:"trackName"`
	ExpiryDate    string             `json:"expiryDate"`
	DaysRemaining int                `json:"daysRemaining"`
	Status        compliance.Status  `json:"status"`
}

// ── Notifications ────────────────────────────────────────────────

// Notification is an in-app alert generated by the expiry notifier.
type Notification struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	IsRead     bool   `json:"isRead"`
	CreatedAt  string `json:"createdAt"`
}
