package models

import "github.com/shopspring/decimal"

// ReportSummary mirrors the admin dashboard tiles.
type ReportSummary struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalBookings     int64           `json:"total_bookings"`
	CompletedBookings int64           `json:"completed_bookings"`
	PendingPayments   int64           `json:"pending_payments"`
}
