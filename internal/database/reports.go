package database

import (
	"context"
	"fmt"

	"leoride/internal/models"

	"github.com/shopspring/decimal"
)

// GetReportSummary aggregates the admin dashboard tiles: revenue from
// completed payments, booking counts, and payments still pending.
func (db *DB) GetReportSummary(ctx context.Context) (*models.ReportSummary, error) {
	summary := &models.ReportSummary{TotalRevenue: decimal.Zero}

	rows, err := db.QueryContext(ctx,
		`SELECT amount FROM payments WHERE status = ?`, models.PaymentCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return nil, fmt.Errorf("failed to scan payment amount: %w", err)
		}
		summary.TotalRevenue = summary.TotalRevenue.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&summary.TotalBookings)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE status = ?`, models.StatusCompleted,
	).Scan(&summary.CompletedBookings)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed bookings: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE status = ?`, models.PaymentPending,
	).Scan(&summary.PendingPayments)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending payments: %w", err)
	}

	return summary, nil
}
