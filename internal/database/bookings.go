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

const bookingColumns = `id, user_id, car_id, parking_slot_id, start_time, end_time,
                        total_amount, status, payment_status, COALESCE(notes, ''),
                        version, created_at, updated_at`

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// countOverlapping counts bookings that hold the resource for any part of
// [start, end). Cancelled and completed bookings do not hold resources.
func countOverlapping(ctx context.Context, q querier, carID, slotID *string, start, end time.Time) (int, error) {
	var column string
	var resource string
	switch {
	case carID != nil:
		column, resource = "car_id", *carID
	case slotID != nil:
		column, resource = "parking_slot_id", *slotID
	default:
		return 0, fmt.Errorf("%w: booking references no resource", ErrInvalidInput)
	}

	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM bookings
         WHERE %s = ? AND status IN (?, ?, ?) AND start_time < ? AND end_time > ?`, column)

	var count int
	err := q.QueryRowContext(ctx, query, resource,
		models.StatusPending, models.StatusConfirmed, models.StatusActive,
		end.Unix(), start.Unix(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return count, nil
}

// ResourceAvailable reports whether no active booking overlaps the window.
// Availability is derived from bookings, never from the stored status flag.
func (db *DB) ResourceAvailable(ctx context.Context, carID, slotID *string, start, end time.Time) (bool, error) {
	count, err := countOverlapping(ctx, db.DB, carID, slotID, start, end)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// CreateBookingWithLock performs the overlap check and the insert inside one
// transaction so two concurrent creates against the same window cannot both
// succeed.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	if err := validateBookingRow(booking); err != nil {
		return err
	}
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	count, err := countOverlapping(ctx, tx, booking.CarID, booking.ParkingSlotID, booking.StartTime, booking.EndTime)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrNotAvailable
	}

	now := time.Now()
	query := `INSERT INTO bookings (
                id, user_id, car_id, parking_slot_id, start_time, end_time,
                total_amount, status, payment_status, notes, version, created_at, updated_at
              ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.CarID,
		booking.ParkingSlotID,
		booking.StartTime.Unix(),
		booking.EndTime.Unix(),
		booking.TotalAmount.String(),
		booking.Status,
		booking.PaymentStatus,
		booking.Notes,
		1,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return tx.Commit()
}

// GetBookingForUser fetches a booking, optionally filtered by owner. An empty
// userID skips the owner filter (admin access). A booking owned by someone
// else is reported as not found, not as forbidden.
func (db *DB) GetBookingForUser(ctx context.Context, id string, userID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	args := []any{id}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}

	booking, err := scanBooking(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return db.GetBookingForUser(ctx, id, "")
}

// ListBookings returns bookings newest-first, optionally filtered by status
// and/or owner. Empty userID means all users.
func (db *DB) ListBookings(ctx context.Context, userID string, status string) ([]*models.Booking, error) {
	if status != "" && !models.ValidBookingStatus(status) {
		return nil, fmt.Errorf("%w: unknown booking status %q", ErrInvalidInput, status)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []any{}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateBookingStatusWithVersion applies a guarded status change. A stale
// version loses with ErrConcurrentModification.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	if !models.ValidBookingStatus(status) {
		return fmt.Errorf("%w: unknown booking status %q", ErrInvalidInput, status)
	}

	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// GetBookingDetails joins the booking with its resource, owner and payments.
// The owner filter works as in GetBookingForUser.
func (db *DB) GetBookingDetails(ctx context.Context, id string, userID string) (*models.BookingDetails, error) {
	booking, err := db.GetBookingForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	details := &models.BookingDetails{Booking: *booking, Payments: []models.Payment{}}

	if booking.CarID != nil {
		car, err := db.GetCar(ctx, *booking.CarID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		details.Car = car
	}
	if booking.ParkingSlotID != nil {
		slot, err := db.GetParkingSlot(ctx, *booking.ParkingSlotID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		details.Slot = slot
	}

	owner, err := db.GetUserByID(ctx, booking.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	details.User = owner

	payments, err := db.ListPaymentsByBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		details.Payments = append(details.Payments, *p)
	}

	return details, nil
}

func validateBookingRow(b *models.Booking) error {
	if b.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if (b.CarID == nil) == (b.ParkingSlotID == nil) {
		return fmt.Errorf("%w: exactly one of car_id or parking_slot_id must be set", ErrInvalidInput)
	}
	if !b.EndTime.After(b.StartTime) {
		return fmt.Errorf("%w: end_time must be after start_time", ErrInvalidInput)
	}
	if !models.ValidBookingStatus(b.Status) {
		return fmt.Errorf("%w: unknown booking status %q", ErrInvalidInput, b.Status)
	}
	if !models.ValidPaymentStatus(b.PaymentStatus) {
		return fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, b.PaymentStatus)
	}
	return nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var carID, slotID sql.NullString
	var startUnix, endUnix int64

	err := row.Scan(
		&b.ID, &b.UserID, &carID, &slotID, &startUnix, &endUnix,
		&b.TotalAmount, &b.Status, &b.PaymentStatus, &b.Notes,
		&b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	if carID.Valid {
		b.CarID = &carID.String
	}
	if slotID.Valid {
		b.ParkingSlotID = &slotID.String
	}
	b.StartTime = time.Unix(startUnix, 0).UTC()
	b.EndTime = time.Unix(endUnix, 0).UTC()

	return &b, nil
}
