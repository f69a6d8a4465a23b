package repository

import (
	"context"
	"fmt"

	"sesmt-backend/internal/database"
	"sesmt-backend/internal/models"
)

const userCols = `id, email, password_hash, name, role, created_at::text, updated_at::text`

func scanUser(s scanner, u *models.User) error {
	return s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
}

// UserRepository stores login accounts.
type UserRepository struct {
	db database.Service
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db database.Service) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. The email's UNIQUE constraint yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, email, passwordHash, name, role string) (models.User, error) {
	var u models.User
	err := scanUser(r.db.GetPool().QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO users (email, password_hash, name, role)
		VALUES (LOWER($1), $2, $3, $4)
		RETURNING %s
	`, userCols), email, passwordHash, name, role), &u)
	return u, mapError(err)
}

// GetByEmail looks a user up case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := scanUser(r.db.GetPool().QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE email = LOWER($1)`, userCols), email), &u)
	return u, mapError(err)
}

// GetByID returns one user or ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := scanUser(r.db.GetPool().QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userCols), id), &u)
	return u, mapError(err)
}

// List returns every user ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.GetPool().Query(ctx,
		fmt.Sprintf(`SELECT %s FROM users ORDER BY LOWER(name), id`, userCols))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateRole changes a user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, id, role string) (models.User, error) {
	var u models.User
	err := scanUser(r.db.GetPool().QueryRow(ctx, fmt.Sprintf(`
		UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2 RETURNING %s
	`, userCols), role, id), &u)
	return u, mapError(err)
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAdmins returns how many users hold the admin role.
func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetPool().QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = 'admin'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}
