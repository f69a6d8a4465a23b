package models

// Supplier is a contractor or vendor the organization works with,
// identified by CNPJ.
type Supplier struct {
	ID            string  `json:"id"`
	CNPJ          string  `json:"cnpj"`
	LegalName     string  `json:"legalName"`
	TradeName     *string `json:"tradeName"`
	ContactName   *string `json:"contactName"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Active        bool    `json:"active"`
	DeactivatedAt *string `json:"deactivatedAt,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// SupplierWithCompliance adds the program status of the supplier's CNPJ
// as recorded in entity documents.
type SupplierWithCompliance struct {
	Supplier
	Compliance *EntityComplianceStatus `json:"compliance"`
}

// SupplierRequest is used for both create and update. CNPJ is stored as
// digits only.
type SupplierRequest struct {
	CNPJ        string  `json:"cnpj" validate:"required,cnpj"`
	LegalName   string  `json:"legalName" validate:"required,max=200"`
	TradeName   *string `json:"tradeName,omitempty" validate:"omitempty,max=200"`
	ContactName *string `json:"contactName,omitempty" validate:"omitempty,max=120"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
}

// Validate checks the supplier payload.
func (r *SupplierRequest) Validate() map[string]string {
	return validationErrors(r)
}

// SupplierFilter narrows supplier listings.
type SupplierFilter struct {
	Search string
	Active *bool
}

// CompanyRegistration is the public registry data for a CNPJ, used to
// prefill supplier and entity forms.
type CompanyRegistration struct {
	CNPJ      string `json:"cnpj"`
	LegalName string `json:"legalName"`
	TradeName string `json:"tradeName"`
	Status    string `json:"status"`
	City      string `json:"city"`
	State     string `json:"state"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}
