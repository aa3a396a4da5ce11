package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Car struct {
	ID           string          `json:"id"`
	Model        string          `json:"model"`
	Type         string          `json:"type"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	Status       string          `json:"status"` // available, rented, maintenance
	ImageURL     string          `json:"image_url,omitempty"`
	Description  string          `json:"description,omitempty"`
	Features     []string        `json:"features,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
