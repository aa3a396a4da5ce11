package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"leoride/internal/models"
)

// UpsertUser inserts the user on first sight and refreshes name/email after.
// The role is never overwritten on conflict; only UpdateUserRole mutates it.
func (db *DB) UpsertUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	if !models.ValidUserRole(user.Role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, user.Role)
	}

	now := time.Now()
	query := `INSERT INTO users (id, name, email, phone, role, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  name = excluded.name,
                  email = excluded.email,
                  phone = COALESCE(NULLIF(excluded.phone, ''), phone),
                  updated_at = excluded.updated_at`

	_, err := db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.Role,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, name, email, COALESCE(phone, ''), role, created_at, updated_at
              FROM users WHERE id = ?`

	var user models.User
	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, name, email, COALESCE(phone, ''), role, created_at, updated_at
              FROM users ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) UpdateUserRole(ctx context.Context, id string, role string) error {
	if !models.ValidUserRole(role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	query := `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, role, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateUserPhone(ctx context.Context, id string, phone string) error {
	query := `UPDATE users SET phone = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, phone, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user phone: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
