package repository

import (
	"context"
	"fmt"

	"sesmt-backend/internal/database"
	"sesmt-backend/internal/models"
)

const entityDocumentCols = `id, cnpj, company_name,
	risk_program_issued::text, health_program_issued::text,
	created_at::text, updated_at::text`

func scanEntityDocument(s scanner, d *models.EntityDocument) error {
	return s.Scan(
		&d.ID, &d.CNPJ, &d.CompanyName,
		&d.RiskProgramIssued, &d.HealthProgramIssued,
		&d.CreatedAt, &d.UpdatedAt,
	)
}

// EntityDocumentWrite is the normalized change set for an entity document.
// Expiry dates are derived by the caller from the issuance dates.
type EntityDocumentWrite struct {
	CNPJ                string
	CompanyName         string
	RiskProgramIssued   *string
	RiskProgramExpiry   *string
	HealthProgramIssued *string
	HealthProgramExpiry *string
}

// EntityDocumentRepository stores organization program documents.
type EntityDocumentRepository struct {
	db database.Service
}

// NewEntityDocumentRepository creates an EntityDocumentRepository.
func NewEntityDocumentRepository(db database.Service) *EntityDocumentRepository {
	return &EntityDocumentRepository{db: db}
}

// List returns every document, newest first. Rows sharing a CNPJ are
// therefore ordered so that the first one is the current record.
func (r *EntityDocumentRepository) List(ctx context.Context) ([]models.EntityDocument, error) {
	rows, err := r.db.GetPool().Query(ctx, fmt.Sprintf(
		`SELECT %s FROM entity_documents ORDER BY created_at DESC, id`, entityDocumentCols))
	if err != nil {
		return nil, fmt.Errorf("list entity documents: %w", err)
	}
	defer rows.Close()

	out := []models.EntityDocument{}
	for rows.Next() {
		var d models.EntityDocument
		if err := scanEntityDocument(rows, &d); err != nil {
			return nil, fmt.Errorf("scan entity document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Get returns one document or ErrNotFound.
func (r *EntityDocumentRepository) Get(ctx context.Context, id string) (models.EntityDocument, error) {
	var d models.EntityDocument
	err := scanEntityDocument(r.db.GetPool().QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM entity_documents WHERE id = $1`, entityDocumentCols), id), &d)
	return d, mapError(err)
}

// Create inserts a document.
func (r *EntityDocumentRepository) Create(ctx context.Context, w EntityDocumentWrite) (models.EntityDocument, error) {
	var d models.EntityDocument
	err := scanEntityDocument(r.db.GetPool().QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO entity_documents (cnpj, company_name,
			risk_program_issued, risk_program_expiry,
			health_program_issued, health_program_expiry)
		VALUES ($1, $2, $3::date, $4::date, $5::date, $6::date)
		RETURNING %s
	`, entityDocumentCols), w.CNPJ, w.CompanyName,
		w.RiskProgramIssued, w.RiskProgramExpiry,
		w.HealthProgramIssued, w.HealthProgramExpiry), &d)
	return d, mapError(err)
}

// Update replaces a document's fields.
func (r *EntityDocumentRepository) Update(ctx context.Context, id string, w EntityDocumentWrite) (models.EntityDocument, error) {
	var d models.EntityDocument
	err := scanEntityDocument(r.db.GetPool().QueryRow(ctx, fmt.Sprintf(`
		UPDATE entity_documents SET cnpj = $1, company_name = $2,
			risk_program_issued = $3::date, risk_program_expiry = $4::date,
			health_program_issued = $5::date, health_program_expiry = $6::date,
			updated_at = NOW()
		WHERE id = $7
		RETURNING %s
	`, entityDocumentCols), w.CNPJ, w.CompanyName,
		w.RiskProgramIssued, w.RiskProgramExpiry,
		w.HealthProgramIssued, w.HealthProgramExpiry, id), &d)
	return d, mapError(err)
}

// Delete removes a document.
func (r *EntityDocumentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM entity_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete entity document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
