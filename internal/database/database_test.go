package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"leoride/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func seedUser(t *testing.T, db *DB, role string) *models.User {
	t.Helper()

	user := &models.User{
		ID:    uuid.NewString(),
		Name:  "Aminata Kamara",
		Email: uuid.NewString() + "@example.com",
		Role:  role,
	}
	require.NoError(t, db.UpsertUser(context.Background(), user))
	return user
}

func seedCar(t *testing.T, db *DB) *models.Car {
	t.Helper()

	car := &models.Car{
		ID:           uuid.NewString(),
		Model:        "Toyota Corolla",
		Type:         "sedan",
		PricePerHour: decimal.NewFromInt(50000),
		Status:       models.CarAvailable,
	}
	require.NoError(t, db.CreateCar(context.Background(), car))
	return car
}

func seedSlot(t *testing.T, db *DB) *models.ParkingSlot {
	t.Helper()

	slot := &models.ParkingSlot{
		ID:           uuid.NewString(),
		SlotNumber:   uuid.NewString()[:8],
		Floor:        2,
		Status:       models.SlotAvailable,
		PricePerHour: decimal.NewFromInt(10000),
	}
	require.NoError(t, db.CreateParkingSlot(context.Background(), slot))
	return slot
}

// carBooking builds a pending booking for the given window without saving it.
func carBooking(userID, carID string, start, end time.Time) *models.Booking {
	return &models.Booking{
		UserID:        userID,
		CarID:         &carID,
		StartTime:     start,
		EndTime:       end,
		TotalAmount:   decimal.NewFromInt(100000),
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
	}
}

func window(hoursFromNow, durationHours int) (time.Time, time.Time) {
	start := time.Now().Add(time.Duration(hoursFromNow) * time.Hour).Truncate(time.Second)
	return start, start.Add(time.Duration(durationHours) * time.Hour)
}
