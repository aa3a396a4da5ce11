package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	CarID         *string         `json:"car_id,omitempty"`
	ParkingSlotID *string         `json:"parking_slot_id,omitempty"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`         // pending, confirmed, active, completed, cancelled
	PaymentStatus string          `json:"payment_status"` // pending, completed, failed, refunded
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int64           `json:"version"`
}

// ResourceID returns whichever resource reference is set.
func (b *Booking) ResourceID() string {
	if b.CarID != nil {
		return *b.CarID
	}
	if b.ParkingSlotID != nil {
		return *b.ParkingSlotID
	}
	return ""
}

// Cancellable reports whether the booking is still in a state the owner may cancel.
func (b *Booking) Cancellable() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// BookingRequest carries the caller's input for a new booking.
type BookingRequest struct {
	UserID        string    `json:"-"`
	CarID         *string   `json:"car_id,omitempty"`
	ParkingSlotID *string   `json:"parking_slot_id,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Notes         string    `json:"notes,omitempty"`
}

// BookingDetails is a booking joined with its resource, owner and payment attempts.
type BookingDetails struct {
	Booking  Booking      `json:"booking"`
	Car      *Car         `json:"car,omitempty"`
	Slot     *ParkingSlot `json:"parking_slot,omitempty"`
	User     *User        `json:"user,omitempty"`
	Payments []Payment    `json:"payments"`
}
