// Package receita looks up company registrations by CNPJ in a public
// registry mirror (minhareceita.org API shape).
package receita

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sesmt-backend/internal/models"
)

var (
	// ErrNotFound is returned when the registry has no record for the CNPJ.
	ErrNotFound = errors.New("cnpj not found")
)

type companyResponse struct {
	CNPJ               string `json:"cnpj"`
	LegalName          string `json:"razao_social"`
	TradeName          string `json:"nome_fantasia"`
	RegistrationStatus string `json:"descricao_situacao_cadastral"`
	City               string `json:"municipio"`
	State              string `json:"uf"`
	Phone              string `json:"ddd_telefone_1"`
	Email              string `json:"email"`
}

func (c *companyResponse) toModel() models.CompanyRegistration {
	return models.CompanyRegistration{
		CNPJ:      c.CNPJ,
		LegalName: c.LegalName,
		TradeName: c.TradeName,
		Status:    translateStatus(c.RegistrationStatus),
		City:      c.City,
		State:     c.State,
		Phone:     c.Phone,
		Email:     strings.ToLower(c.Email),
	}
}

func translateStatus(status string) string {
	switch strings.ToUpper(status) {
	case "ATIVA":
		return "active"
	case "BAIXADA":
		return "closed"
	case "SUSPENSA":
		return "suspended"
	case "INAPTA":
		return "unfit"
	default:
		return "unknown"
	}
}

// Client queries the registry over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL (e.g. https://minhareceita.org).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetByCNPJ fetches the registration for a 14-digit CNPJ.
func (c *Client) GetByCNPJ(ctx context.Context, cnpj string) (models.CompanyRegistration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+cnpj, nil)
	if err != nil {
		return models.CompanyRegistration{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.CompanyRegistration{}, fmt.Errorf("receita request: %w", err)
	}
	defer resp.Body.Close()

	// The registry answers 400 for syntactically valid but unknown CNPJs.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		return models.CompanyRegistration{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return models.CompanyRegistration{}, fmt.Errorf("receita failed with status code: %d", resp.StatusCode)
	}

	var company companyResponse
	if err := json.NewDecoder(resp.Body).Decode(&company); err != nil {
		return models.CompanyRegistration{}, fmt.Errorf("decode receita response: %w", err)
	}
	return company.toModel(), nil
}
