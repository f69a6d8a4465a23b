package models

import "sesmt-backend/internal/compliance"

// EntityDocument holds an organization's program documents (risk program
// and health program) keyed by CNPJ. Several rows may share a CNPJ; the
// newest one is authoritative.
type EntityDocument struct {
	ID                  string  `json:"id"`
	CNPJ                string  `json:"cnpj"`
	CompanyName         string  `json:"companyName"`
	RiskProgramIssued   *string `json:"riskProgramIssued"`
	HealthProgramIssued *string `json:"healthProgramIssued"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

// EntityDocumentWithCompliance carries both program tracks computed for today.
type EntityDocumentWithCompliance struct {
	EntityDocument
	RiskProgram      TrackField        `json:"riskProgram"`
	HealthProgram    TrackField        `json:"healthProgram"`
	ComplianceStatus compliance.Status `json:"complianceStatus"`
}

// EntityComplianceStatus is the per-CNPJ answer of the status lookup.
type EntityComplianceStatus struct {
	CNPJ                string            `json:"cnpj"`
	RiskProgramStatus   compliance.Status `json:"riskProgramStatus"`
	HealthProgramStatus compliance.Status `json:"healthProgramStatus"`
}

// EntityDocumentRequest is used for both create and update.
type EntityDocumentRequest struct {
	CNPJ                string  `json:"cnpj" validate:"required,cnpj"`
	CompanyName         string  `json:"companyName" validate:"required,max=200"`
	RiskProgramIssued   *string `json:"riskProgramIssued,omitempty" validate:"omitempty,issuedate"`
	HealthProgramIssued *string `json:"healthProgramIssued,omitempty" validate:"omitempty,issuedate"`
}

// Validate checks the entity document payload.
func (r *EntityDocumentRequest) Validate() map[string]string {
	return validationErrors(r)
}
