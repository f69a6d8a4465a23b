package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/models"
)

func newDashboard() *DashboardHandler {
	employees := &fakeEmployeeStore{}
	seedEmployees(employees)
	suppliers := &fakeSuppliers{items: []models.Supplier{
		{ID: uuid.NewString(), CNPJ: cnpjAcme, Active: true},
		{ID: uuid.NewString(), CNPJ: cnpjBeta, Active: false},
	}}
	return NewDashboardHandler(employees, seedDocs(), suppliers, fixedClock)
}

func TestDashboardMetrics(t *testing.T) {
	h := newDashboard()

	w := serve(h.GetMetrics, newRequest(t, http.MethodGet, "/api/dashboard", nil, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var m models.DashboardMetrics
	decodeBody(t, w, &m)
	assert.Equal(t, 4, m.TotalEmployees)
	assert.Equal(t, 3, m.ActiveEmployees)
	assert.Equal(t, compliance.Tally{Valid: 1, RenewSoon: 1, Expired: 1}, m.Employees)
	assert.Equal(t, compliance.Tally{Valid: 1, Expired: 1}, m.Entities)
	assert.Equal(t, 2, m.TotalEntities)
	assert.Equal(t, 1, m.ActiveSuppliers)

	require.Len(t, m.Tracks, len(compliance.PersonTracks()))
	exam := m.Tracks[0]
	assert.Equal(t, compliance.TrackBaseExam, exam.Track)
	assert.Equal(t, 1, exam.Expired)
	assert.Equal(t, 2, exam.NotInformed)

	require.Len(t, m.CriticalAlerts, 2)
	assert.Equal(t, "Ana", m.CriticalAlerts[0].EmployeeName)
	assert.Equal(t, -14, m.CriticalAlerts[0].DaysRemaining)
	assert.Equal(t, compliance.TrackTraining35, m.CriticalAlerts[1].Track)
	assert.Equal(t, compliance.StatusRenewSoon, m.CriticalAlerts[1].Status)
}

func TestDashboardExpiryAlerts_Limit(t *testing.T) {
	h := newDashboard()

	w := serve(h.GetExpiryAlerts, newRequest(t, http.MethodGet, "/api/dashboard/expiring?limit=1", nil, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.ExpiryAlert `json:"data"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, compliance.StatusExpired, resp.Data[0].Status)
	assert.Equal(t, "2024-06-01", resp.Data[0].ExpiryDate)
}
