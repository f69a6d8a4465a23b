package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sesmt-backend/internal/database"
	"sesmt-backend/internal/models"
)

// AttendanceRepository stores daily attendance codes.
type AttendanceRepository struct {
	db database.Service
}

// NewAttendanceRepository creates an AttendanceRepository.
func NewAttendanceRepository(db database.Service) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListRange returns every mark with from <= day < to.
func (r *AttendanceRepository) ListRange(ctx context.Context, from, to time.Time) ([]models.AttendanceMark, error) {
	rows, err := r.db.GetPool().Query(ctx, `
		SELECT employee_id, day::text, code
		FROM attendance
		WHERE day >= $1::date AND day < $2::date
		ORDER BY day
	`, from.Format(time.DateOnly), to.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	out := []models.AttendanceMark{}
	for rows.Next() {
		var m models.AttendanceMark
		if err := rows.Scan(&m.EmployeeID, &m.Day, &m.Code); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Save upserts marks in one transaction. An empty code deletes the cell.
func (r *AttendanceRepository) Save(ctx context.Context, marks []models.AttendanceMark) error {
	return pgx.BeginFunc(ctx, r.db.GetPool(), func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, m := range marks {
			if m.Code == "" {
				batch.Queue(`DELETE FROM attendance WHERE employee_id = $1 AND day = $2::date`, m.EmployeeID, m.Day)
				continue
			}
			batch.Queue(`
				INSERT INTO attendance (employee_id, day, code) VALUES ($1, $2::date, $3)
				ON CONFLICT (employee_id, day) DO UPDATE SET code = EXCLUDED.code
			`, m.EmployeeID, m.Day, m.Code)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save attendance: %w", mapError(err))
		}
		return nil
	})
}
