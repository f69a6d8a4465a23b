package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/database"
	"sesmt-backend/internal/models"
)

// ── Columns ────────────────────────────────────────────────────

const employeeCols = `e.id, e.name, e.employer, e.job_title, e.photo_url,
	e.active, e.deactivated_at::text, e.created_at, e.updated_at`

const employeeRetCols = `id, name, employer, job_title, photo_url,
	active, deactivated_at::text, created_at, updated_at`

func scanEmployee(s scanner, emp *models.Employee) error {
	return s.Scan(
		&emp.ID, &emp.Name, &emp.Employer, &emp.JobTitle, &emp.PhotoURL,
		&emp.Active, &emp.DeactivatedAt, &emp.CreatedAt, &emp.UpdatedAt,
	)
}

// EmployeeRepository stores employees and their track rows.
type EmployeeRepository struct {
	db database.Service
}

// NewEmployeeRepository creates an EmployeeRepository.
func NewEmployeeRepository(db database.Service) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// ── List ───────────────────────────────────────────────────────

// List returns every employee matching the SQL-level filters, ordered by
// name, with their stored tracks attached.
func (r *EmployeeRepository) List(ctx context.Context, f models.EmployeeFilter) ([]models.EmployeeRecord, error) {
	var where whereBuilder
	if f.Search != "" {
		where.add("(e.name ILIKE ? OR e.job_title ILIKE ? OR e.employer ILIKE ?)", likePattern(f.Search))
	}
	if f.Employer != "" {
		where.add("e.employer = ?", f.Employer)
	}
	if f.JobTitle != "" {
		where.add("e.job_title = ?", f.JobTitle)
	}
	if f.Active != nil {
		where.add("e.active = ?", *f.Active)
	}

	pool := r.db.GetPool()
	rows, err := pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM employees e %s ORDER BY LOWER(e.name), e.id
	`, employeeCols, where.String()), where.args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	records := []models.EmployeeRecord{}
	index := map[string]int{}
	ids := []string{}
	for rows.Next() {
		var rec models.EmployeeRecord
		if err := scanEmployee(rows, &rec.Employee); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		rec.Tracks = map[compliance.TrackID]models.StoredTrack{}
		index[rec.ID] = len(records)
		ids = append(ids, rec.ID)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if len(ids) == 0 {
		return records, nil
	}

	trackRows, err := pool.Query(ctx, `
		SELECT employee_id, track_id, issuance_date::text, expiry_date::text
		FROM employee_tracks
		WHERE employee_id = ANY($1::uuid[])
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("list employee tracks: %w", err)
	}
	defer trackRows.Close()

	for trackRows.Next() {
		var (
			empID string
			track compliance.TrackID
			st    models.StoredTrack
		)
		if err := trackRows.Scan(&empID, &track, &st.IssuanceDate, &st.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scan employee track: %w", err)
		}
		if i, ok := index[empID]; ok {
			records[i].Tracks[track] = st
		}
	}
	return records, trackRows.Err()
}

// ── Get ────────────────────────────────────────────────────────

// Get returns one employee with tracks, or ErrNotFound.
func (r *EmployeeRepository) Get(ctx context.Context, id string) (models.EmployeeRecord, error) {
	return r.get(ctx, r.db.GetPool(), id)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *EmployeeRepository) get(ctx context.Context, q queryer, id string) (models.EmployeeRecord, error) {
	var rec models.EmployeeRecord
	err := scanEmployee(q.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM employees e WHERE e.id = $1`, employeeCols), id,
	), &rec.Employee)
	if err != nil {
		return rec, mapError(err)
	}

	rec.Tracks, err = loadTracks(ctx, q, id)
	return rec, err
}

func loadTracks(ctx context.Context, q queryer, employeeID string) (map[compliance.TrackID]models.StoredTrack, error) {
	rows, err := q.Query(ctx, `
		SELECT track_id, issuance_date::text, expiry_date::text
		FROM employee_tracks WHERE employee_id = $1
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load tracks: %w", err)
	}
	defer rows.Close()

	tracks := map[compliance.TrackID]models.StoredTrack{}
	for rows.Next() {
		var (
			id compliance.TrackID
			st models.StoredTrack
		)
		if err := rows.Scan(&id, &st.IssuanceDate, &st.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks[id] = st
	}
	return tracks, rows.Err()
}

// ── Create / Update ────────────────────────────────────────────

// Create inserts the employee and its tracks in one transaction.
func (r *EmployeeRepository) Create(ctx context.Context, emp models.Employee, tracks map[compliance.TrackID]models.StoredTrack) (models.EmployeeRecord, error) {
	var rec models.EmployeeRecord
	err := pgx.BeginFunc(ctx, r.db.GetPool(), func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `
			INSERT INTO employees (name, employer, job_title, photo_url)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, emp.Name, emp.Employer, emp.JobTitle, emp.PhotoURL).Scan(&id)
		if err != nil {
			return mapError(err)
		}
		if err := upsertTracks(ctx, tx, id, tracks); err != nil {
			return err
		}
		rec, err = r.get(ctx, tx, id)
		return err
	})
	return rec, err
}

// Update applies the column changes and replaces only the given tracks.
func (r *EmployeeRepository) Update(ctx context.Context, id string, upd models.EmployeeUpdate, tracks map[compliance.TrackID]models.StoredTrack) (models.EmployeeRecord, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addSet := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}
	if upd.Name != nil {
		addSet("name", *upd.Name)
	}
	if upd.Employer != nil {
		addSet("employer", *upd.Employer)
	}
	if upd.JobTitle != nil {
		addSet("job_title", *upd.JobTitle)
	}
	if upd.PhotoURL != nil {
		addSet("photo_url", nilIfEmpty(*upd.PhotoURL))
	}
	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	var rec models.EmployeeRecord
	err := pgx.BeginFunc(ctx, r.db.GetPool(), func(tx pgx.Tx) error {
		var got string
		err := tx.QueryRow(ctx, fmt.Sprintf(
			`UPDATE employees SET %s WHERE id = $%d RETURNING id`,
			strings.Join(setClauses, ", "), argIdx,
		), args...).Scan(&got)
		if err != nil {
			return mapError(err)
		}
		if err := upsertTracks(ctx, tx, id, tracks); err != nil {
			return err
		}
		rec, err = r.get(ctx, tx, id)
		return err
	})
	return rec, err
}

// upsertTracks writes each track row; a nil issuance clears the row.
func upsertTracks(ctx context.Context, tx pgx.Tx, employeeID string, tracks map[compliance.TrackID]models.StoredTrack) error {
	if len(tracks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for id, st := range tracks {
		if st.IssuanceDate == nil {
			batch.Queue(`DELETE FROM employee_tracks WHERE employee_id = $1 AND track_id = $2`, employeeID, id)
			continue
		}
		batch.Queue(`
			INSERT INTO employee_tracks (employee_id, track_id, issuance_date, expiry_date)
			VALUES ($1, $2, $3::date, $4::date)
			ON CONFLICT (employee_id, track_id)
			DO UPDATE SET issuance_date = EXCLUDED.issuance_date, expiry_date = EXCLUDED.expiry_date
		`, employeeID, id, st.IssuanceDate, st.ExpiryDate)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save tracks: %w", err)
	}
	return nil
}

// ── Active / Delete ────────────────────────────────────────────

// SetActive flips the active flag. deactivatedAt (yyyy-mm-dd) is stored
// when deactivating and cleared when activating.
func (r *EmployeeRepository) SetActive(ctx context.Context, id string, active bool, deactivatedAt *string) (models.EmployeeRecord, error) {
	if active {
		deactivatedAt = nil
	}
	tag, err := r.db.GetPool().Exec(ctx, `
		UPDATE employees SET active = $1, deactivated_at = $2::date, updated_at = NOW()
		WHERE id = $3
	`, active, deactivatedAt, id)
	if err != nil {
		return models.EmployeeRecord{}, fmt.Errorf("set employee active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.EmployeeRecord{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes the employee permanently; tracks and attendance cascade.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
