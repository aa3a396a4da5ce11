package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID            string          `json:"id"`
	BookingID     string          `json:"booking_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`         // pending, completed, failed, refunded
	PaymentMethod string          `json:"payment_method"` // orange_money, afrimoney, card
	ProviderRef   *string         `json:"provider_ref,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PaymentDetails carries the method-specific fields submitted with a payment
// attempt. Only the fields for the chosen method are inspected.
type PaymentDetails struct {
	PhoneNumber string `json:"phone_number,omitempty"`
	CardNumber  string `json:"card_number,omitempty"`
	ExpiryDate  string `json:"expiry_date,omitempty"`
	CVV         string `json:"cvv,omitempty"`
}
