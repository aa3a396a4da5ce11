package api

import (
	"context"
	"time"

	"leoride/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockBookingService struct {
	mock.Mock
}

func (m *mockBookingService) CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.Booking, error) {
	args := m.Called(ctx, req)
	if b := args.Get(0); b != nil {
		return b.(*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingService) GetBooking(ctx context.Context, id string, principal *models.Principal) (*models.BookingDetails, error) {
	args := m.Called(ctx, id, principal)
	if d := args.Get(0); d != nil {
		return d.(*models.BookingDetails), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingService) ListBookings(ctx context.Context, principal *models.Principal, status string) ([]*models.Booking, error) {
	args := m.Called(ctx, principal, status)
	if b := args.Get(0); b != nil {
		return b.([]*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingService) CancelBooking(ctx context.Context, id string, principal *models.Principal) (*models.Booking, error) {
	args := m.Called(ctx, id, principal)
	if b := args.Get(0); b != nil {
		return b.(*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingService) TransitionBooking(ctx context.Context, id string, target string) (*models.Booking, error) {
	args := m.Called(ctx, id, target)
	if b := args.Get(0); b != nil {
		return b.(*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingService) CheckAvailability(ctx context.Context, carID, slotID *string, start, end time.Time) (bool, error) {
	args := m.Called(ctx, carID, slotID, start, end)
	return args.Bool(0), args.Error(1)
}

type mockPaymentService struct {
	mock.Mock
}

func (m *mockPaymentService) Pay(ctx context.Context, bookingID string, principal *models.Principal, method string, details models.PaymentDetails) (*models.Payment, error) {
	args := m.Called(ctx, bookingID, principal, method, details)
	if p := args.Get(0); p != nil {
		return p.(*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentService) ListPayments(ctx context.Context, principal *models.Principal, bookingID string) ([]*models.Payment, error) {
	args := m.Called(ctx, principal, bookingID)
	if p := args.Get(0); p != nil {
		return p.([]*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCatalogService struct {
	mock.Mock
}

func (m *mockCatalogService) CreateCar(ctx context.Context, car *models.Car) error {
	return m.Called(ctx, car).Error(0)
}

func (m *mockCatalogService) GetCar(ctx context.Context, id string) (*models.Car, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Car), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCatalogService) ListCars(ctx context.Context, status string) ([]*models.Car, error) {
	args := m.Called(ctx, status)
	if c := args.Get(0); c != nil {
		return c.([]*models.Car), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCatalogService) UpdateCar(ctx context.Context, car *models.Car) error {
	return m.Called(ctx, car).Error(0)
}

func (m *mockCatalogService) DeleteCar(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalogService) CreateParkingSlot(ctx context.Context, slot *models.ParkingSlot) error {
	return m.Called(ctx, slot).Error(0)
}

func (m *mockCatalogService) GetParkingSlot(ctx context.Context, id string) (*models.ParkingSlot, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.ParkingSlot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCatalogService) ListParkingSlots(ctx context.Context, status string) ([]*models.ParkingSlot, error) {
	args := m.Called(ctx, status)
	if s := args.Get(0); s != nil {
		return s.([]*models.ParkingSlot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCatalogService) UpdateParkingSlot(ctx context.Context, slot *models.ParkingSlot) error {
	return m.Called(ctx, slot).Error(0)
}

func (m *mockCatalogService) DeleteParkingSlot(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) EnsureUser(ctx context.Context, principal *models.Principal) (*models.User, error) {
	args := m.Called(ctx, principal)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserService) ChangeRole(ctx context.Context, id string, role string) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *mockUserService) UpdatePhone(ctx context.Context, id string, phone string) error {
	return m.Called(ctx, id, phone).Error(0)
}

type mockReportService struct {
	mock.Mock
}

func (m *mockReportService) Summary(ctx context.Context) (*models.ReportSummary, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*models.ReportSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportService) ExportBookingsExcel(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}
