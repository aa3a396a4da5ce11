package database

import (
	"context"
	"fmt"
	"time"

	"leoride/internal/models"

	"github.com/google/uuid"
)

const paymentColumns = `id, booking_id, amount, status, payment_method, provider_ref, created_at, updated_at`

// CreatePaymentAndConfirmBooking records a completed payment attempt and
// confirms its booking in a single transaction. The booking must still be in
// a payable state; a cancelled or finished booking fails the whole write.
func (db *DB) CreatePaymentAndConfirmBooking(ctx context.Context, payment *models.Payment) error {
	if err := validatePaymentRow(payment); err != nil {
		return err
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	insert := `INSERT INTO payments (id, booking_id, amount, status, payment_method, provider_ref, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, insert,
		payment.ID,
		payment.BookingID,
		payment.Amount.String(),
		payment.Status,
		payment.PaymentMethod,
		payment.ProviderRef,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment in tx: %w", err)
	}

	update := `UPDATE bookings SET payment_status = ?, status = ?, version = version + 1, updated_at = ?
               WHERE id = ? AND status IN (?, ?)`
	result, err := tx.ExecContext(ctx, update,
		models.PaymentCompleted,
		models.StatusConfirmed,
		now,
		payment.BookingID,
		models.StatusPending,
		models.StatusConfirmed,
	)
	if err != nil {
		return fmt.Errorf("failed to confirm booking in tx: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrIllegalTransition
	}

	payment.CreatedAt = now
	payment.UpdatedAt = now

	return tx.Commit()
}

// CreatePayment records a payment attempt without touching the booking, used
// for failed attempts.
func (db *DB) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if err := validatePaymentRow(payment); err != nil {
		return err
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}

	now := time.Now()
	query := `INSERT INTO payments (id, booking_id, amount, status, payment_method, provider_ref, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		payment.ID, payment.BookingID, payment.Amount.String(), payment.Status,
		payment.PaymentMethod, payment.ProviderRef, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	payment.CreatedAt = now
	payment.UpdatedAt = now
	return nil
}

func (db *DB) ListPaymentsByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Status, &p.PaymentMethod, &p.ProviderRef, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (db *DB) ListPayments(ctx context.Context) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Status, &p.PaymentMethod, &p.ProviderRef, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ReconcilePaymentStatus recomputes a booking's payment_status from its
// payment rows: any completed payment wins, otherwise the most recent
// attempt's status, otherwise pending. Payments are the source of truth;
// re-running the reconcile is idempotent.
func (db *DB) ReconcilePaymentStatus(ctx context.Context, bookingID string) error {
	payments, err := db.ListPaymentsByBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	status := models.PaymentPending
	if len(payments) > 0 {
		status = payments[0].Status
		for _, p := range payments {
			if p.Status == models.PaymentCompleted {
				status = models.PaymentCompleted
				break
			}
		}
	}

	query := `UPDATE bookings SET payment_status = ?, updated_at = ?
              WHERE id = ? AND payment_status <> ?`
	_, err = db.ExecContext(ctx, query, status, time.Now(), bookingID, status)
	if err != nil {
		return fmt.Errorf("failed to reconcile payment status: %w", err)
	}
	return nil
}

func validatePaymentRow(p *models.Payment) error {
	if p.BookingID == "" {
		return fmt.Errorf("%w: booking_id is required", ErrInvalidInput)
	}
	if !models.ValidPaymentStatus(p.Status) {
		return fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, p.Status)
	}
	if !models.ValidPaymentMethod(p.PaymentMethod) {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, p.PaymentMethod)
	}
	if p.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidInput)
	}
	return nil
}
