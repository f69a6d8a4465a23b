package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/models"
)

type employeeEnvelope struct {
	Data    models.EmployeeWithCompliance `json:"data"`
	Message string                        `json:"message"`
}

type trackError struct {
	Error string `json:"error"`
	Track string `json:"track"`
}

type validationBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func newEmployeeHandler(store *fakeEmployeeStore, enabled compliance.Enablement) *EmployeeHandler {
	return NewEmployeeHandler(store, &fakeEnablement{enabled: enabled}, fixedClock)
}

func TestEmployeeCreate_MandatoryTrack(t *testing.T) {
	tests := []struct {
		name      string
		enabled   compliance.Enablement
		tracks    map[string]*string
		wantCode  int
		wantTrack compliance.TrackID
	}{
		{
			name:      "equipment enabled and missing",
			enabled:   compliance.Enablement{compliance.TrackEquipment: true, compliance.TrackBaseExam: true},
			tracks:    map[string]*string{"base-exam": strPtr("2024-01-10")},
			wantCode:  http.StatusUnprocessableEntity,
			wantTrack: compliance.TrackEquipment,
		},
		{
			name:      "empty date counts as missing",
			enabled:   compliance.Enablement{compliance.TrackEquipment: true},
			tracks:    map[string]*string{"equipment-compliance": strPtr("")},
			wantCode:  http.StatusUnprocessableEntity,
			wantTrack: compliance.TrackEquipment,
		},
		{
			name:      "base exam required when it is the only enabled track",
			enabled:   compliance.Enablement{compliance.TrackBaseExam: true},
			tracks:    nil,
			wantCode:  http.StatusUnprocessableEntity,
			wantTrack: compliance.TrackBaseExam,
		},
		{
			name:     "nothing enabled requires nothing",
			enabled:  compliance.Enablement{},
			wantCode: http.StatusCreated,
		},
		{
			name:     "required track present",
			enabled:  compliance.Enablement{compliance.TrackEquipment: true},
			tracks:   map[string]*string{"equipment-compliance": strPtr("01/05/2024")},
			wantCode: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeEmployeeStore{}
			h := newEmployeeHandler(store, tt.enabled)

			body := models.CreateEmployeeRequest{Name: "Ana Lima", Employer: "Acme", JobTitle: "Welder", Tracks: tt.tracks}
			w := serve(h.Create, newRequest(t, http.MethodPost, "/api/employees", body, nil))

			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode == http.StatusCreated {
				assert.Len(t, store.recs, 1)
				return
			}

			var resp trackError
			decodeBody(t, w, &resp)
			assert.Equal(t, string(tt.wantTrack), resp.Track)
			assert.Contains(t, resp.Error, compliance.MustLookup(tt.wantTrack).Name)
			assert.Empty(t, store.recs)
		})
	}
}

func TestEmployeeCreate_ComputesTracks(t *testing.T) {
	store := &fakeEmployeeStore{}
	h := newEmployeeHandler(store, compliance.Enablement{compliance.TrackEquipment: true})

	body := models.CreateEmployeeRequest{
		Name:     "  Ana Lima ",
		Employer: "Acme",
		JobTitle: "Welder",
		Tracks: map[string]*string{
			"equipment-compliance": strPtr("01/05/2024"),
			"base-exam":            strPtr("2023-06-01"),
		},
	}
	w := serve(h.Create, newRequest(t, http.MethodPost, "/api/employees", body, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp employeeEnvelope
	decodeBody(t, w, &resp)
	assert.Equal(t, "Ana Lima", resp.Data.Name)
	assert.Equal(t, compliance.StatusExpired, resp.Data.ComplianceStatus)

	equip := resp.Data.Tracks[compliance.TrackEquipment]
	require.NotNil(t, equip.ExpiryDate)
	assert.Equal(t, "2024-09-01", *equip.ExpiryDate)
	assert.Equal(t, compliance.StatusValid, equip.Status)

	exam := resp.Data.Tracks[compliance.TrackBaseExam]
	require.NotNil(t, exam.DaysRemaining)
	assert.Equal(t, -14, *exam.DaysRemaining)

	assert.Equal(t, compliance.StatusNotInformed, resp.Data.Tracks[compliance.TrackTraining35].Status)

	// The derived expiry date is persisted next to the issuance date.
	stored := store.recs[0].Tracks[compliance.TrackEquipment]
	require.NotNil(t, stored.ExpiryDate)
	assert.Equal(t, "2024-05-01", *stored.IssuanceDate)
	assert.Equal(t, "2024-09-01", *stored.ExpiryDate)
}

func TestEmployeeCreate_Validation(t *testing.T) {
	h := newEmployeeHandler(&fakeEmployeeStore{}, compliance.Enablement{})

	body := models.CreateEmployeeRequest{
		Name:   "A",
		Tracks: map[string]*string{"nr-99": strPtr("2024-01-01")},
	}
	w := serve(h.Create, newRequest(t, http.MethodPost, "/api/employees", body, nil))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp validationBody
	decodeBody(t, w, &resp)
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Contains(t, resp.Details, "name")
	assert.Contains(t, resp.Details, "employer")
	assert.Contains(t, resp.Details, "tracks.nr-99")
}

func TestEmployeeCreate_BadJSON(t *testing.T) {
	h := newEmployeeHandler(&fakeEmployeeStore{}, compliance.Enablement{})
	w := serve(h.Create, newRequest(t, http.MethodPost, "/api/employees", "{not json", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func seedEmployees(store *fakeEmployeeStore) {
	store.add("Ana", "Acme", true, map[compliance.TrackID]string{compliance.TrackBaseExam: "2023-06-01"})     // expired
	store.add("Bruno", "Acme", true, map[compliance.TrackID]string{compliance.TrackTraining35: "2022-07-01"}) // renew soon
	store.add("Carla", "Beta", true, map[compliance.TrackID]string{compliance.TrackTraining10: "2024-01-01"}) // valid
	store.add("Davi", "Beta", false, nil)                                                                     // nothing informed
}

func TestEmployeeList_CountersCoverWholeFilteredSet(t *testing.T) {
	store := &fakeEmployeeStore{}
	seedEmployees(store)
	h := newEmployeeHandler(store, nil)

	w := serve(h.List, newRequest(t, http.MethodGet, "/api/employees?page=2&limit=3", nil, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.EmployeeListResponse
	decodeBody(t, w, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Davi", resp.Data[0].Name)
	assert.Equal(t, compliance.Tally{Valid: 2, RenewSoon: 1, Expired: 1}, resp.Counters)
	assert.Equal(t, models.PaginationMeta{Page: 2, Limit: 3, Total: 4, TotalPages: 2}, resp.Pagination)
}

func TestEmployeeList_PageBeyondEnd(t *testing.T) {
	store := &fakeEmployeeStore{}
	seedEmployees(store)
	h := newEmployeeHandler(store, nil)

	for _, page := range []string{"3", "922337203685477581", "9223372036854775807"} {
		t.Run(page, func(t *testing.T) {
			w := serve(h.List, newRequest(t, http.MethodGet, "/api/employees?limit=20&page="+page, nil, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp models.EmployeeListResponse
			decodeBody(t, w, &resp)
			assert.Empty(t, resp.Data)
			assert.Equal(t, 4, resp.Pagination.Total)
			assert.Equal(t, compliance.Tally{Valid: 2, RenewSoon: 1, Expired: 1}, resp.Counters)
		})
	}
}

func TestEmployeeList_Filters(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Ana", "Bruno", "Carla", "Davi"}},
		{"?status=expired", []string{"Ana"}},
		{"?status=renew_soon", []string{"Bruno"}},
		{"?status=valid", []string{"Carla", "Davi"}},
		{"?status=not_informed", []string{"Davi"}},
		{"?track=base-exam", []string{"Ana"}},
		{"?track=base-exam&status=not_informed", []string{"Bruno", "Carla", "Davi"}},
		{"?track=training-35&status=renew_soon", []string{"Bruno"}},
		{"?active=false", []string{"Davi"}},
		{"?employer=Beta&status=valid", []string{"Carla", "Davi"}},
		{"?search=an", []string{"Ana"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			store := &fakeEmployeeStore{}
			seedEmployees(store)
			h := newEmployeeHandler(store, nil)

			w := serve(h.List, newRequest(t, http.MethodGet, "/api/employees"+tt.query, nil, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp models.EmployeeListResponse
			decodeBody(t, w, &resp)
			var names []string
			for _, e := range resp.Data {
				names = append(names, e.Name)
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, len(tt.want), resp.Counters.Total())
		})
	}
}

func TestEmployeeList_RejectsUnknownFilters(t *testing.T) {
	h := newEmployeeHandler(&fakeEmployeeStore{}, nil)

	for _, q := range []string{"?status=late", "?track=nr-99"} {
		w := serve(h.List, newRequest(t, http.MethodGet, "/api/employees"+q, nil, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestEmployeeGetByID(t *testing.T) {
	store := &fakeEmployeeStore{}
	rec := store.add("Ana", "Acme", true, map[compliance.TrackID]string{compliance.TrackTraining35: "2022-07-01"})
	h := newEmployeeHandler(store, nil)

	w := serve(h.GetByID, newRequest(t, http.MethodGet, "/", nil, map[string]string{"id": rec.ID}))
	require.Equal(t, http.StatusOK, w.Code)
	var resp employeeEnvelope
	decodeBody(t, w, &resp)
	assert.Equal(t, compliance.StatusRenewSoon, resp.Data.ComplianceStatus)
	assert.Len(t, resp.Data.Tracks, len(compliance.PersonTracks()))

	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		w = serve(h.GetByID, newRequest(t, http.MethodGet, "/", nil, map[string]string{"id": id}))
		assert.Equal(t, http.StatusNotFound, w.Code, id)
	}
}

func TestEmployeeUpdate_MandatoryUsesStoredValues(t *testing.T) {
	store := &fakeEmployeeStore{}
	rec := store.add("Ana", "Acme", true, map[compliance.TrackID]string{compliance.TrackEquipment: "2024-05-01"})
	enablement := &fakeEnablement{enabled: compliance.Enablement{compliance.TrackEquipment: true}}
	h := NewEmployeeHandler(store, enablement, fixedClock)
	params := map[string]string{"id": rec.ID}

	// Renaming keeps the stored equipment date, so the rule passes.
	w := serve(h.Update, newRequest(t, http.MethodPut, "/", `{"name":"Ana Souza"}`, params))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ana Souza", store.recs[0].Name)

	// Clearing the required track is rejected and nothing is written.
	w = serve(h.Update, newRequest(t, http.MethodPut, "/", `{"tracks":{"equipment-compliance":null}}`, params))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, store.recs[0].Tracks, compliance.TrackEquipment)

	// Enablement is read on every save.
	assert.Equal(t, 2, enablement.calls)

	// Once the track is switched off the same request succeeds.
	enablement.enabled = compliance.Enablement{}
	w = serve(h.Update, newRequest(t, http.MethodPut, "/", `{"tracks":{"equipment-compliance":null}}`, params))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, store.recs[0].Tracks, compliance.TrackEquipment)
}

func TestEmployeeUpdate_RecomputesOnlySubmittedTracks(t *testing.T) {
	store := &fakeEmployeeStore{}
	rec := store.add("Ana", "Acme", true, map[compliance.TrackID]string{
		compliance.TrackBaseExam:   "2023-06-01",
		compliance.TrackTraining10: "2024-01-01",
	})
	h := newEmployeeHandler(store, nil)

	w := serve(h.Update, newRequest(t, http.MethodPut, "/", `{"tracks":{"base-exam":"10/06/2024"}}`, map[string]string{"id": rec.ID}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp employeeEnvelope
	decodeBody(t, w, &resp)
	assert.Equal(t, compliance.StatusValid, resp.Data.ComplianceStatus)
	assert.Equal(t, "2025-06-10", *resp.Data.Tracks[compliance.TrackBaseExam].ExpiryDate)
	assert.Equal(t, "2024-01-01", *store.recs[0].Tracks[compliance.TrackTraining10].IssuanceDate)
}

func TestEmployeeUpdate_IncompleteDateKeepsStoredTrack(t *testing.T) {
	store := &fakeEmployeeStore{}
	rec := store.add("Ana", "Acme", true, map[compliance.TrackID]string{compliance.TrackTraining10: "2024-01-01"})
	h := newEmployeeHandler(store, nil)
	params := map[string]string{"id": rec.ID}

	for _, text := range []string{"15/03", "31/02/2024", "soon"} {
		w := serve(h.Update, newRequest(t, http.MethodPut, "/", map[string]interface{}{
			"tracks": map[string]string{"training-10": text},
		}, params))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, text)

		var resp validationBody
		decodeBody(t, w, &resp)
		assert.Contains(t, resp.Details, "tracks.training-10", text)

		stored := store.recs[0].Tracks[compliance.TrackTraining10]
		require.NotNil(t, stored.IssuanceDate, text)
		assert.Equal(t, "2024-01-01", *stored.IssuanceDate, text)
	}

	// An empty value is still an explicit clear.
	w := serve(h.Update, newRequest(t, http.MethodPut, "/", `{"tracks":{"training-10":""}}`, params))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, store.recs[0].Tracks, compliance.TrackTraining10)
}

func TestEmployeeUpdate_NoFields(t *testing.T) {
	store := &fakeEmployeeStore{}
	rec := store.add("Ana", "Acme", true, nil)
	h := newEmployeeHandler(store, nil)

	w := serve(h.Update, newRequest(t, http.MethodPut, "/", `{}`, map[string]string{"id": rec.ID}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmployeeSetActive(t *testing.T) {
	store := &fakeEmployeeStore{}
	rec := store.add("Ana", "Acme", true, nil)
	h := newEmployeeHandler(store, nil)
	params := map[string]string{"id": rec.ID}

	w := serve(h.SetActive, newRequest(t, http.MethodPatch, "/", `{"active":false}`, params))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, store.recs[0].DeactivatedAt)
	assert.Equal(t, "2024-06-15", *store.recs[0].DeactivatedAt)

	w = serve(h.SetActive, newRequest(t, http.MethodPatch, "/", `{"active":false,"date":"01/03/2024"}`, params))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-01", *store.recs[0].DeactivatedAt)

	w = serve(h.SetActive, newRequest(t, http.MethodPatch, "/", `{"active":true}`, params))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.recs[0].Active)
	assert.Nil(t, store.recs[0].DeactivatedAt)

	w = serve(h.SetActive, newRequest(t, http.MethodPatch, "/", `{"date":"2024-03-01"}`, params))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestEmployeeDelete(t *testing.T) {
	store := &fakeEmployeeStore{}
	rec := store.add("Ana", "Acme", true, nil)
	h := newEmployeeHandler(store, nil)
	params := map[string]string{"id": rec.ID}

	w := serve(h.Delete, newRequest(t, http.MethodDelete, "/", nil, params))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.recs)

	w = serve(h.Delete, newRequest(t, http.MethodDelete, "/", nil, params))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEmployeeExport(t *testing.T) {
	store := &fakeEmployeeStore{}
	store.add("Lima, Ana", "Acme", true, map[compliance.TrackID]string{compliance.TrackBaseExam: "2023-06-01"})
	store.add("Bruno", "Acme", true, nil)
	h := newEmployeeHandler(store, nil)

	w := serve(h.Export, newRequest(t, http.MethodGet, "/api/employees/export?status=expired", nil, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Name,Employer,Job Title,Active,Status,"))
	assert.Contains(t, lines[0], "ASO - Occupational Medical Exam Days Remaining")
	assert.True(t, strings.HasPrefix(lines[1], `"Lima, Ana",Acme,Technician,true,expired,2023-06-01,2024-06-01,-14,expired`))
}

func TestCSVEscape(t *testing.T) {
	assert.Equal(t, "plain", csvEscape("plain"))
	assert.Equal(t, `"a,b"`, csvEscape("a,b"))
	assert.Equal(t, `"say ""hi"""`, csvEscape(`say "hi"`))
	assert.Equal(t, "\"two\nlines\"", csvEscape("two\nlines"))
}
