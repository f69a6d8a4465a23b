package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/models"
	"sesmt-backend/internal/repository"
)

// testToday is the fixed "now" every handler test runs against.
var testToday = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testToday }

func strPtr(s string) *string { return &s }

// ── Request helpers ────────────────────────────────────────────

func newRequest(t *testing.T, method, target string, body interface{}, params map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	return r
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

// ── Employees ──────────────────────────────────────────────────

type fakeEmployeeStore struct {
	recs    []models.EmployeeRecord
	filters []models.EmployeeFilter
}

func (f *fakeEmployeeStore) add(name, employer string, active bool, tracks map[compliance.TrackID]string) models.EmployeeRecord {
	rec := models.EmployeeRecord{
		Employee: models.Employee{
			ID:       uuid.NewString(),
			Name:     name,
			Employer: employer,
			JobTitle: "Technician",
			Active:   active,
		},
		Tracks: map[compliance.TrackID]models.StoredTrack{},
	}
	for id, issued := range tracks {
		rec.Tracks[id] = models.StoredTrack{IssuanceDate: strPtr(issued)}
	}
	f.recs = append(f.recs, rec)
	return rec
}

func (f *fakeEmployeeStore) find(id string) int {
	for i, rec := range f.recs {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeEmployeeStore) List(_ context.Context, filter models.EmployeeFilter) ([]models.EmployeeRecord, error) {
	f.filters = append(f.filters, filter)
	var out []models.EmployeeRecord
	for _, rec := range f.recs {
		if filter.Active != nil && rec.Active != *filter.Active {
			continue
		}
		if filter.Employer != "" && rec.Employer != filter.Employer {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(rec.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeEmployeeStore) Get(_ context.Context, id string) (models.EmployeeRecord, error) {
	if i := f.find(id); i >= 0 {
		return f.recs[i], nil
	}
	return models.EmployeeRecord{}, repository.ErrNotFound
}

func (f *fakeEmployeeStore) Create(_ context.Context, emp models.Employee, tracks map[compliance.TrackID]models.StoredTrack) (models.EmployeeRecord, error) {
	emp.ID = uuid.NewString()
	emp.Active = true
	rec := models.EmployeeRecord{Employee: emp, Tracks: map[compliance.TrackID]models.StoredTrack{}}
	for id, st := range tracks {
		if st.IssuanceDate != nil {
			rec.Tracks[id] = st
		}
	}
	f.recs = append(f.recs, rec)
	return rec, nil
}

func (f *fakeEmployeeStore) Update(_ context.Context, id string, upd models.EmployeeUpdate, tracks map[compliance.TrackID]models.StoredTrack) (models.EmployeeRecord, error) {
	i := f.find(id)
	if i < 0 {
		return models.EmployeeRecord{}, repository.ErrNotFound
	}
	rec := &f.recs[i]
	if upd.Name != nil {
		rec.Name = *upd.Name
	}
	if upd.Employer != nil {
		rec.Employer = *upd.Employer
	}
	if upd.JobTitle != nil {
		rec.JobTitle = *upd.JobTitle
	}
	for tid, st := range tracks {
		if st.IssuanceDate == nil {
			delete(rec.Tracks, tid)
			continue
		}
		rec.Tracks[tid] = st
	}
	return *rec, nil
}

func (f *fakeEmployeeStore) SetActive(_ context.Context, id string, active bool, deactivatedAt *string) (models.EmployeeRecord, error) {
	i := f.find(id)
	if i < 0 {
		return models.EmployeeRecord{}, repository.ErrNotFound
	}
	f.recs[i].Active = active
	f.recs[i].DeactivatedAt = nil
	if !active {
		f.recs[i].DeactivatedAt = deactivatedAt
	}
	return f.recs[i], nil
}

func (f *fakeEmployeeStore) Delete(_ context.Context, id string) error {
	i := f.find(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	f.recs = append(f.recs[:i], f.recs[i+1:]...)
	return nil
}

type fakeEnablement struct {
	enabled compliance.Enablement
	calls   int
}

func (f *fakeEnablement) Enablement(context.Context) (compliance.Enablement, error) {
	f.calls++
	return f.enabled, nil
}

// ── Entity documents ───────────────────────────────────────────

// fakeEntityDocs keeps rows newest first, like the repository.
type fakeEntityDocs struct {
	docs []models.EntityDocument
}

func (f *fakeEntityDocs) List(context.Context) ([]models.EntityDocument, error) {
	return append([]models.EntityDocument(nil), f.docs...), nil
}

func (f *fakeEntityDocs) Get(_ context.Context, id string) (models.EntityDocument, error) {
	for _, d := range f.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return models.EntityDocument{}, repository.ErrNotFound
}

func (f *fakeEntityDocs) Create(_ context.Context, w repository.EntityDocumentWrite) (models.EntityDocument, error) {
	d := models.EntityDocument{
		ID:                  uuid.NewString(),
		CNPJ:                w.CNPJ,
		CompanyName:         w.CompanyName,
		RiskProgramIssued:   w.RiskProgramIssued,
		HealthProgramIssued: w.HealthProgramIssued,
	}
	f.docs = append([]models.EntityDocument{d}, f.docs...)
	return d, nil
}

func (f *fakeEntityDocs) Update(_ context.Context, id string, w repository.EntityDocumentWrite) (models.EntityDocument, error) {
	for i, d := range f.docs {
		if d.ID == id {
			d.CNPJ = w.CNPJ
			d.CompanyName = w.CompanyName
			d.RiskProgramIssued = w.RiskProgramIssued
			d.HealthProgramIssued = w.HealthProgramIssued
			f.docs[i] = d
			return d, nil
		}
	}
	return models.EntityDocument{}, repository.ErrNotFound
}

func (f *fakeEntityDocs) Delete(_ context.Context, id string) error {
	for i, d := range f.docs {
		if d.ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ── Suppliers ──────────────────────────────────────────────────

type fakeSuppliers struct {
	items []models.Supplier
}

func (f *fakeSuppliers) List(_ context.Context, filter models.SupplierFilter) ([]models.Supplier, error) {
	var out []models.Supplier
	for _, s := range f.items {
		if filter.Active != nil && s.Active != *filter.Active {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSuppliers) Get(_ context.Context, id string) (models.Supplier, error) {
	for _, s := range f.items {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Supplier{}, repository.ErrNotFound
}

func (f *fakeSuppliers) Create(_ context.Context, req models.SupplierRequest) (models.Supplier, error) {
	for _, s := range f.items {
		if s.CNPJ == req.CNPJ {
			return models.Supplier{}, repository.ErrDuplicate
		}
	}
	s := models.Supplier{ID: uuid.NewString(), CNPJ: req.CNPJ, LegalName: req.LegalName, Active: true}
	f.items = append(f.items, s)
	return s, nil
}

func (f *fakeSuppliers) Update(_ context.Context, id string, req models.SupplierRequest) (models.Supplier, error) {
	for i, s := range f.items {
		if s.ID == id {
			s.CNPJ, s.LegalName = req.CNPJ, req.LegalName
			f.items[i] = s
			return s, nil
		}
	}
	return models.Supplier{}, repository.ErrNotFound
}

func (f *fakeSuppliers) SetActive(_ context.Context, id string, active bool, deactivatedAt *string) (models.Supplier, error) {
	for i, s := range f.items {
		if s.ID == id {
			s.Active = active
			s.DeactivatedAt = nil
			if !active {
				s.DeactivatedAt = deactivatedAt
			}
			f.items[i] = s
			return s, nil
		}
	}
	return models.Supplier{}, repository.ErrNotFound
}

func (f *fakeSuppliers) Delete(_ context.Context, id string) error {
	for i, s := range f.items {
		if s.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeRegistry struct {
	reg models.CompanyRegistration
	err error
}

func (f *fakeRegistry) GetByCNPJ(context.Context, string) (models.CompanyRegistration, error) {
	return f.reg, f.err
}
