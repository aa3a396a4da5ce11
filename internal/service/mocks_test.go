package service

import (
	"context"
	"time"

	"leoride/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) UpsertUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}
func (m *mockRepo) UpdateUserRole(ctx context.Context, id string, role string) error {
	return m.Called(ctx, id, role).Error(0)
}
func (m *mockRepo) UpdateUserPhone(ctx context.Context, id string, phone string) error {
	return m.Called(ctx, id, phone).Error(0)
}

func (m *mockRepo) CreateCar(ctx context.Context, c *models.Car) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockRepo) GetCar(ctx context.Context, id string) (*models.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}
func (m *mockRepo) ListCars(ctx context.Context, status string) ([]*models.Car, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Car), args.Error(1)
}
func (m *mockRepo) UpdateCar(ctx context.Context, c *models.Car) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockRepo) DeleteCar(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) CreateParkingSlot(ctx context.Context, s *models.ParkingSlot) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) GetParkingSlot(ctx context.Context, id string) (*models.ParkingSlot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingSlot), args.Error(1)
}
func (m *mockRepo) ListParkingSlots(ctx context.Context, status string) ([]*models.ParkingSlot, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParkingSlot), args.Error(1)
}
func (m *mockRepo) UpdateParkingSlot(ctx context.Context, s *models.ParkingSlot) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) DeleteParkingSlot(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) ResourceAvailable(ctx context.Context, carID, slotID *string, start, end time.Time) (bool, error) {
	args := m.Called(ctx, carID, slotID, start, end)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepo) CreateBookingWithLock(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingForUser(ctx context.Context, id string, userID string) (*models.Booking, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) ListBookings(ctx context.Context, userID string, status string) ([]*models.Booking, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) UpdateBookingStatusWithVersion(ctx context.Context, id string, v int64, status string) error {
	return m.Called(ctx, id, v, status).Error(0)
}
func (m *mockRepo) GetBookingDetails(ctx context.Context, id string, userID string) (*models.BookingDetails, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingDetails), args.Error(1)
}

func (m *mockRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockRepo) CreatePaymentAndConfirmBooking(ctx context.Context, p *models.Payment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockRepo) ListPaymentsByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}
func (m *mockRepo) ListPayments(ctx context.Context) ([]*models.Payment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}
func (m *mockRepo) ReconcilePaymentStatus(ctx context.Context, bookingID string) error {
	return m.Called(ctx, bookingID).Error(0)
}

func (m *mockRepo) GetReportSummary(ctx context.Context) (*models.ReportSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReportSummary), args.Error(1)
}

func (m *mockRepo) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	return m.Called(ctx, task).Error(0)
}
func (m *mockRepo) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SyncTask), args.Error(1)
}
func (m *mockRepo) UpdateSyncTaskStatus(ctx context.Context, id int64, status string, lastError string, nextRetryAt *time.Time) error {
	return m.Called(ctx, id, status, lastError, nextRetryAt).Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueTask(ctx context.Context, taskType string, bookingID string) error {
	return m.Called(ctx, taskType, bookingID).Error(0)
}

type mockRoleCache struct {
	mock.Mock
}

func (m *mockRoleCache) GetRole(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}
func (m *mockRoleCache) SetRole(ctx context.Context, userID string, role string, ttl time.Duration) error {
	return m.Called(ctx, userID, role, ttl).Error(0)
}
func (m *mockRoleCache) InvalidateRole(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
