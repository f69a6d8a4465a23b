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

const (
	cnpjAcme = "11222333000181"
	cnpjBeta = "11444777000161"
	cnpjNone = "45723174000110"
)

// seedDocs returns rows newest first: Acme twice (newest expired), Beta once.
func seedDocs() *fakeEntityDocs {
	return &fakeEntityDocs{docs: []models.EntityDocument{
		{ID: uuid.NewString(), CNPJ: cnpjAcme, CompanyName: "Acme", HealthProgramIssued: strPtr("2023-06-01")},
		{ID: uuid.NewString(), CNPJ: "11.222.333/0001-81", CompanyName: "Acme", HealthProgramIssued: strPtr("2024-01-01")},
		{ID: uuid.NewString(), CNPJ: cnpjBeta, CompanyName: "Beta", RiskProgramIssued: strPtr("2024-01-01")},
	}}
}

type documentList struct {
	Data     []models.EntityDocumentWithCompliance `json:"data"`
	Counters compliance.Tally                      `json:"counters"`
}

func TestDocumentList_CountsEachCNPJOnce(t *testing.T) {
	h := NewDocumentHandler(seedDocs(), fixedClock)

	w := serve(h.List, newRequest(t, http.MethodGet, "/api/entity-documents", nil, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp documentList
	decodeBody(t, w, &resp)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, compliance.StatusExpired, resp.Data[0].ComplianceStatus)
	assert.Equal(t, compliance.StatusValid, resp.Data[1].ComplianceStatus)
	assert.Equal(t, compliance.Tally{Valid: 1, Expired: 1}, resp.Counters)

	w = serve(h.List, newRequest(t, http.MethodGet, "/api/entity-documents?cnpj=11.222.333/0001-81", nil, nil))
	decodeBody(t, w, &resp)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, compliance.Tally{Expired: 1}, resp.Counters)
}

func TestDocumentStatus(t *testing.T) {
	h := NewDocumentHandler(seedDocs(), fixedClock)

	w := serve(h.Status, newRequest(t, http.MethodGet, "/", nil, map[string]string{"cnpj": "11.222.333/0001-81"}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.EntityComplianceStatus `json:"data"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, cnpjAcme, resp.Data.CNPJ)
	assert.Equal(t, compliance.StatusNotInformed, resp.Data.RiskProgramStatus)
	assert.Equal(t, compliance.StatusExpired, resp.Data.HealthProgramStatus)

	w = serve(h.Status, newRequest(t, http.MethodGet, "/", nil, map[string]string{"cnpj": cnpjNone}))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(h.Status, newRequest(t, http.MethodGet, "/", nil, map[string]string{"cnpj": "123"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentCreate(t *testing.T) {
	store := &fakeEntityDocs{}
	h := NewDocumentHandler(store, fixedClock)

	body := models.EntityDocumentRequest{
		CNPJ:                "11.444.777/0001-61",
		CompanyName:         " Beta ",
		HealthProgramIssued: strPtr("01/06/2024"),
	}
	w := serve(h.Create, newRequest(t, http.MethodPost, "/api/entity-documents", body, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data models.EntityDocumentWithCompliance `json:"data"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, cnpjBeta, resp.Data.CNPJ)
	assert.Equal(t, "Beta", resp.Data.CompanyName)
	require.NotNil(t, resp.Data.HealthProgram.ExpiryDate)
	assert.Equal(t, "2025-06-01", *resp.Data.HealthProgram.ExpiryDate)
	assert.Equal(t, compliance.StatusNotInformed, resp.Data.RiskProgram.Status)
	assert.Equal(t, "2024-06-01", *store.docs[0].HealthProgramIssued)
}

func TestDocumentCreate_Validation(t *testing.T) {
	h := NewDocumentHandler(&fakeEntityDocs{}, fixedClock)

	body := models.EntityDocumentRequest{
		CNPJ:              "11222333000100",
		CompanyName:       "Acme",
		RiskProgramIssued: strPtr("32/13/2024"),
	}
	w := serve(h.Create, newRequest(t, http.MethodPost, "/api/entity-documents", body, nil))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp validationBody
	decodeBody(t, w, &resp)
	assert.Contains(t, resp.Details, "cnpj")
	assert.Contains(t, resp.Details, "riskProgramIssued")
}

func TestDocumentUpdateAndDelete(t *testing.T) {
	store := seedDocs()
	h := NewDocumentHandler(store, fixedClock)
	id := store.docs[0].ID

	body := models.EntityDocumentRequest{CNPJ: cnpjAcme, CompanyName: "Acme", HealthProgramIssued: strPtr("2024-06-01")}
	w := serve(h.Update, newRequest(t, http.MethodPut, "/", body, map[string]string{"id": id}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data models.EntityDocumentWithCompliance `json:"data"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, compliance.StatusValid, resp.Data.ComplianceStatus)

	w = serve(h.Update, newRequest(t, http.MethodPut, "/", body, map[string]string{"id": uuid.NewString()}))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(h.Delete, newRequest(t, http.MethodDelete, "/", nil, map[string]string{"id": id}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.docs, 2)

	// The older Acme row is authoritative again.
	w = serve(h.Status, newRequest(t, http.MethodGet, "/", nil, map[string]string{"cnpj": cnpjAcme}))
	var st struct {
		Data models.EntityComplianceStatus `json:"data"`
	}
	decodeBody(t, w, &st)
	assert.Equal(t, compliance.StatusValid, st.Data.HealthProgramStatus)
}
