package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"leoride/internal/models"

	"github.com/google/uuid"
)

func (db *DB) CreateParkingSlot(ctx context.Context, slot *models.ParkingSlot) error {
	if slot.Status == "" {
		slot.Status = models.SlotAvailable
	}
	if !models.ValidSlotStatus(slot.Status) {
		return fmt.Errorf("%w: unknown slot status %q", ErrInvalidInput, slot.Status)
	}
	if slot.Floor < 0 {
		return fmt.Errorf("%w: negative floor", ErrInvalidInput)
	}
	if slot.PricePerHour.IsNegative() {
		return fmt.Errorf("%w: negative price_per_hour", ErrInvalidInput)
	}
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}

	now := time.Now()
	query := `INSERT INTO parking_slots (id, slot_number, floor, status, price_per_hour, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		slot.ID, slot.SlotNumber, slot.Floor, slot.Status, slot.PricePerHour.String(), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create parking slot: %w", err)
	}
	slot.CreatedAt = now
	slot.UpdatedAt = now
	return nil
}

func (db *DB) GetParkingSlot(ctx context.Context, id string) (*models.ParkingSlot, error) {
	query := `SELECT id, slot_number, floor, status, price_per_hour, created_at, updated_at
              FROM parking_slots WHERE id = ?`

	var slot models.ParkingSlot
	err := db.QueryRowContext(ctx, query, id).Scan(
		&slot.ID, &slot.SlotNumber, &slot.Floor, &slot.Status, &slot.PricePerHour,
		&slot.CreatedAt, &slot.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parking slot: %w", err)
	}
	return &slot, nil
}

// ListParkingSlots returns slots ordered by floor then slot number, matching
// the garage walk order the slot picker expects.
func (db *DB) ListParkingSlots(ctx context.Context, status string) ([]*models.ParkingSlot, error) {
	if status != "" && !models.ValidSlotStatus(status) {
		return nil, fmt.Errorf("%w: unknown slot status %q", ErrInvalidInput, status)
	}

	query := `SELECT id, slot_number, floor, status, price_per_hour, created_at, updated_at
              FROM parking_slots`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY floor ASC, slot_number ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list parking slots: %w", err)
	}
	defer rows.Close()

	var slots []*models.ParkingSlot
	for rows.Next() {
		s := &models.ParkingSlot{}
		if err := rows.Scan(&s.ID, &s.SlotNumber, &s.Floor, &s.Status, &s.PricePerHour, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan parking slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (db *DB) UpdateParkingSlot(ctx context.Context, slot *models.ParkingSlot) error {
	if !models.ValidSlotStatus(slot.Status) {
		return fmt.Errorf("%w: unknown slot status %q", ErrInvalidInput, slot.Status)
	}
	if slot.PricePerHour.IsNegative() {
		return fmt.Errorf("%w: negative price_per_hour", ErrInvalidInput)
	}

	query := `UPDATE parking_slots SET slot_number = ?, floor = ?, status = ?, price_per_hour = ?, updated_at = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		slot.SlotNumber, slot.Floor, slot.Status, slot.PricePerHour.String(), time.Now(), slot.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update parking slot: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteParkingSlot(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM parking_slots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete parking slot: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
