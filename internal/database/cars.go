package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leoride/internal/models"

	"github.com/google/uuid"
)

func (db *DB) CreateCar(ctx context.Context, car *models.Car) error {
	if car.Status == "" {
		car.Status = models.CarAvailable
	}
	if !models.ValidCarStatus(car.Status) {
		return fmt.Errorf("%w: unknown car status %q", ErrInvalidInput, car.Status)
	}
	if car.PricePerHour.IsNegative() {
		return fmt.Errorf("%w: negative price_per_hour", ErrInvalidInput)
	}
	if car.ID == "" {
		car.ID = uuid.NewString()
	}

	features, err := encodeFeatures(car.Features)
	if err != nil {
		return err
	}

	now := time.Now()
	query := `INSERT INTO cars (id, model, type, price_per_hour, status, image_url, description, features, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, query,
		car.ID, car.Model, car.Type, car.PricePerHour.String(), car.Status,
		car.ImageURL, car.Description, features, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}
	car.CreatedAt = now
	car.UpdatedAt = now
	return nil
}

func (db *DB) GetCar(ctx context.Context, id string) (*models.Car, error) {
	query := `SELECT id, model, type, price_per_hour, status, COALESCE(image_url, ''),
                     COALESCE(description, ''), COALESCE(features, '[]'), created_at, updated_at
              FROM cars WHERE id = ?`
	return scanCar(db.QueryRowContext(ctx, query, id))
}

func (db *DB) ListCars(ctx context.Context, status string) ([]*models.Car, error) {
	if status != "" && !models.ValidCarStatus(status) {
		return nil, fmt.Errorf("%w: unknown car status %q", ErrInvalidInput, status)
	}

	query := `SELECT id, model, type, price_per_hour, status, COALESCE(image_url, ''),
                     COALESCE(description, ''), COALESCE(features, '[]'), created_at, updated_at
              FROM cars`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer rows.Close()

	var cars []*models.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	return cars, rows.Err()
}

func (db *DB) UpdateCar(ctx context.Context, car *models.Car) error {
	if !models.ValidCarStatus(car.Status) {
		return fmt.Errorf("%w: unknown car status %q", ErrInvalidInput, car.Status)
	}
	if car.PricePerHour.IsNegative() {
		return fmt.Errorf("%w: negative price_per_hour", ErrInvalidInput)
	}

	features, err := encodeFeatures(car.Features)
	if err != nil {
		return err
	}

	query := `UPDATE cars SET model = ?, type = ?, price_per_hour = ?, status = ?,
                              image_url = ?, description = ?, features = ?, updated_at = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		car.Model, car.Type, car.PricePerHour.String(), car.Status,
		car.ImageURL, car.Description, features, time.Now(), car.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update car: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteCar(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM cars WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCar(row rowScanner) (*models.Car, error) {
	var car models.Car
	var features string
	err := row.Scan(
		&car.ID, &car.Model, &car.Type, &car.PricePerHour, &car.Status,
		&car.ImageURL, &car.Description, &features, &car.CreatedAt, &car.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan car: %w", err)
	}
	if err := json.Unmarshal([]byte(features), &car.Features); err != nil {
		return nil, fmt.Errorf("failed to decode car features: %w", err)
	}
	return &car, nil
}

func encodeFeatures(features []string) (string, error) {
	if features == nil {
		features = []string{}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("failed to encode features: %w", err)
	}
	return string(raw), nil
}
