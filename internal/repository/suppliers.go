package repository

import (
	"context"
	"fmt"

	"sesmt-backend/internal/database"
	"sesmt-backend/internal/models"
)

const supplierCols = `id, cnpj, legal_name, trade_name, contact_name, phone, email,
	active, deactivated_at::text, created_at::text, updated_at::text`

func scanSupplier(s scanner, sp *models.Supplier) error {
	return s.Scan(
		&sp.ID, &sp.CNPJ, &sp.LegalName, &sp.TradeName, &sp.ContactName, &sp.Phone, &sp.Email,
		&sp.Active, &sp.DeactivatedAt, &sp.CreatedAt, &sp.UpdatedAt,
	)
}

// SupplierRepository stores suppliers.
type SupplierRepository struct {
	db database.Service
}

// NewSupplierRepository creates a SupplierRepository.
func NewSupplierRepository(db database.Service) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// List returns suppliers ordered by legal name.
func (r *SupplierRepository) List(ctx context.Context, f models.SupplierFilter) ([]models.Supplier, error) {
	var where whereBuilder
	if f.Search != "" {
		where.add("(legal_name ILIKE ? OR trade_name ILIKE ? OR cnpj LIKE ?)", likePattern(f.Search))
	}
	if f.Active != nil {
		where.add("active = ?", *f.Active)
	}

	rows, err := r.db.GetPool().Query(ctx, fmt.Sprintf(
		`SELECT %s FROM suppliers %s ORDER BY LOWER(legal_name), id`, supplierCols, where.String(),
	), where.args...)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	out := []models.Supplier{}
	for rows.Next() {
		var sp models.Supplier
		if err := scanSupplier(rows, &sp); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Get returns one supplier or ErrNotFound.
func (r *SupplierRepository) Get(ctx context.Context, id string) (models.Supplier, error) {
	var sp models.Supplier
	err := scanSupplier(r.db.GetPool().QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM suppliers WHERE id = $1`, supplierCols), id), &sp)
	return sp, mapError(err)
}

// Create inserts a supplier. A CNPJ already on file yields ErrDuplicate.
func (r *SupplierRepository) Create(ctx context.Context, req models.SupplierRequest) (models.Supplier, error) {
	var sp models.Supplier
	err := scanSupplier(r.db.GetPool().QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO suppliers (cnpj, legal_name, trade_name, contact_name, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, supplierCols), req.CNPJ, req.LegalName, req.TradeName, req.ContactName, req.Phone, req.Email), &sp)
	return sp, mapError(err)
}

// Update replaces every editable field.
func (r *SupplierRepository) Update(ctx context.Context, id string, req models.SupplierRequest) (models.Supplier, error) {
	var sp models.Supplier
	err := scanSupplier(r.db.GetPool().QueryRow(ctx, fmt.Sprintf(`
		UPDATE suppliers SET cnpj = $1, legal_name = $2, trade_name = $3,
			contact_name = $4, phone = $5, email = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING %s
	`, supplierCols), req.CNPJ, req.LegalName, req.TradeName, req.ContactName, req.Phone, req.Email, id), &sp)
	return sp, mapError(err)
}

// SetActive flips the active flag; deactivatedAt is cleared on activation.
func (r *SupplierRepository) SetActive(ctx context.Context, id string, active bool, deactivatedAt *string) (models.Supplier, error) {
	if active {
		deactivatedAt = nil
	}
	var sp models.Supplier
	err := scanSupplier(r.db.GetPool().QueryRow(ctx, fmt.Sprintf(`
		UPDATE suppliers SET active = $1, deactivated_at = $2::date, updated_at = NOW()
		WHERE id = $3
		RETURNING %s
	`, supplierCols), active, deactivatedAt, id), &sp)
	return sp, mapError(err)
}

// Delete removes a supplier.
func (r *SupplierRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
