package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/models"
	"sesmt-backend/internal/receita"
)

func TestSupplierList_AttachesEntityStatus(t *testing.T) {
	suppliers := &fakeSuppliers{items: []models.Supplier{
		{ID: uuid.NewString(), CNPJ: cnpjAcme, LegalName: "Acme Ltda", Active: true},
		{ID: uuid.NewString(), CNPJ: cnpjNone, LegalName: "Gamma SA", Active: true},
	}}
	h := NewSupplierHandler(suppliers, seedDocs(), &fakeRegistry{}, fixedClock)

	w := serve(h.List, newRequest(t, http.MethodGet, "/api/suppliers", nil, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.SupplierWithCompliance `json:"data"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp.Data, 2)
	require.NotNil(t, resp.Data[0].Compliance)
	assert.Equal(t, compliance.StatusExpired, resp.Data[0].Compliance.HealthProgramStatus)
	assert.Nil(t, resp.Data[1].Compliance)
}

func TestSupplierCreate(t *testing.T) {
	suppliers := &fakeSuppliers{}
	h := NewSupplierHandler(suppliers, &fakeEntityDocs{}, &fakeRegistry{}, fixedClock)

	body := models.SupplierRequest{CNPJ: "11.444.777/0001-61", LegalName: "  Beta Servicos "}
	w := serve(h.Create, newRequest(t, http.MethodPost, "/api/suppliers", body, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, suppliers.items, 1)
	assert.Equal(t, cnpjBeta, suppliers.items[0].CNPJ)
	assert.Equal(t, "Beta Servicos", suppliers.items[0].LegalName)

	w = serve(h.Create, newRequest(t, http.MethodPost, "/api/suppliers", body, nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	bad := models.SupplierRequest{CNPJ: "11444777000100", LegalName: "Beta", Email: strPtr("nope")}
	w = serve(h.Create, newRequest(t, http.MethodPost, "/api/suppliers", bad, nil))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp validationBody
	decodeBody(t, w, &resp)
	assert.Contains(t, resp.Details, "cnpj")
	assert.Contains(t, resp.Details, "email")
}

func TestSupplierLookup(t *testing.T) {
	tests := []struct {
		name     string
		cnpj     string
		registry *fakeRegistry
		wantCode int
	}{
		{"found", "11.222.333/0001-81", &fakeRegistry{reg: models.CompanyRegistration{CNPJ: cnpjAcme, LegalName: "ACME LTDA"}}, http.StatusOK},
		{"not in registry", cnpjAcme, &fakeRegistry{err: receita.ErrNotFound}, http.StatusNotFound},
		{"registry down", cnpjAcme, &fakeRegistry{err: errors.New("timeout")}, http.StatusBadGateway},
		{"invalid cnpj", "11222333000100", &fakeRegistry{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSupplierHandler(&fakeSuppliers{}, &fakeEntityDocs{}, tt.registry, fixedClock)
			w := serve(h.Lookup, newRequest(t, http.MethodGet, "/", nil, map[string]string{"cnpj": tt.cnpj}))
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestSupplierSetActiveAndDelete(t *testing.T) {
	id := uuid.NewString()
	suppliers := &fakeSuppliers{items: []models.Supplier{{ID: id, CNPJ: cnpjAcme, LegalName: "Acme", Active: true}}}
	h := NewSupplierHandler(suppliers, &fakeEntityDocs{}, &fakeRegistry{}, fixedClock)
	params := map[string]string{"id": id}

	w := serve(h.SetActive, newRequest(t, http.MethodPatch, "/", `{"active":false}`, params))
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, suppliers.items[0].Active)
	assert.Equal(t, "2024-06-15", *suppliers.items[0].DeactivatedAt)

	w = serve(h.GetByID, newRequest(t, http.MethodGet, "/", nil, params))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(h.Delete, newRequest(t, http.MethodDelete, "/", nil, params))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, suppliers.items)

	w = serve(h.GetByID, newRequest(t, http.MethodGet, "/", nil, params))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
