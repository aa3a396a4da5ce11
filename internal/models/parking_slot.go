package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ParkingSlot struct {
	ID           string          `json:"id"`
	SlotNumber   string          `json:"slot_number"`
	Floor        int64           `json:"floor"`
	Status       string          `json:"status"` // available, occupied, reserved, maintenance
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
