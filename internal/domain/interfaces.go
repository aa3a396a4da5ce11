package domain

import (
	"context"
	"time"

	"leoride/internal/models"
)

type Repository interface {
	UpsertUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserRole(ctx context.Context, id string, role string) error
	UpdateUserPhone(ctx context.Context, id string, phone string) error

	CreateCar(ctx context.Context, car *models.Car) error
	GetCar(ctx context.Context, id string) (*models.Car, error)
	ListCars(ctx context.Context, status string) ([]*models.Car, error)
	UpdateCar(ctx context.Context, car *models.Car) error
	DeleteCar(ctx context.Context, id string) error

	CreateParkingSlot(ctx context.Context, slot *models.ParkingSlot) error
	GetParkingSlot(ctx context.Context, id string) (*models.ParkingSlot, error)
	ListParkingSlots(ctx context.Context, status string) ([]*models.ParkingSlot, error)
	UpdateParkingSlot(ctx context.Context, slot *models.ParkingSlot) error
	DeleteParkingSlot(ctx context.Context, id string) error

	ResourceAvailable(ctx context.Context, carID, slotID *string, start, end time.Time) (bool, error)
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingForUser(ctx context.Context, id string, userID string) (*models.Booking, error)
	ListBookings(ctx context.Context, userID string, status string) ([]*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error
	GetBookingDetails(ctx context.Context, id string, userID string) (*models.BookingDetails, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	CreatePaymentAndConfirmBooking(ctx context.Context, payment *models.Payment) error
	ListPaymentsByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error)
	ListPayments(ctx context.Context) ([]*models.Payment, error)
	ReconcilePaymentStatus(ctx context.Context, bookingID string) error

	GetReportSummary(ctx context.Context) (*models.ReportSummary, error)

	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status string, lastError string, nextRetryAt *time.Time) error
}

// RoleCache keeps principal roles out of the hot auth path.
type RoleCache interface {
	GetRole(ctx context.Context, userID string) (string, error)
	SetRole(ctx context.Context, userID string, role string, ttl time.Duration) error
	InvalidateRole(ctx context.Context, userID string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, details *models.BookingDetails) error
	ReplaceBookingsSheet(ctx context.Context, bookings []*models.BookingDetails) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID string) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, id string, principal *models.Principal) (*models.BookingDetails, error)
	ListBookings(ctx context.Context, principal *models.Principal, status string) ([]*models.Booking, error)
	CancelBooking(ctx context.Context, id string, principal *models.Principal) (*models.Booking, error)
	TransitionBooking(ctx context.Context, id string, target string) (*models.Booking, error)
	CheckAvailability(ctx context.Context, carID, slotID *string, start, end time.Time) (bool, error)
}

type PaymentService interface {
	Pay(ctx context.Context, bookingID string, principal *models.Principal, method string, details models.PaymentDetails) (*models.Payment, error)
	ListPayments(ctx context.Context, principal *models.Principal, bookingID string) ([]*models.Payment, error)
}

type CatalogService interface {
	CreateCar(ctx context.Context, car *models.Car) error
	GetCar(ctx context.Context, id string) (*models.Car, error)
	ListCars(ctx context.Context, status string) ([]*models.Car, error)
	UpdateCar(ctx context.Context, car *models.Car) error
	DeleteCar(ctx context.Context, id string) error
	CreateParkingSlot(ctx context.Context, slot *models.ParkingSlot) error
	GetParkingSlot(ctx context.Context, id string) (*models.ParkingSlot, error)
	ListParkingSlots(ctx context.Context, status string) ([]*models.ParkingSlot, error)
	UpdateParkingSlot(ctx context.Context, slot *models.ParkingSlot) error
	DeleteParkingSlot(ctx context.Context, id string) error
}

type UserService interface {
	EnsureUser(ctx context.Context, principal *models.Principal) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	ChangeRole(ctx context.Context, id string, role string) error
	UpdatePhone(ctx context.Context, id string, phone string) error
}

type ReportService interface {
	Summary(ctx context.Context) (*models.ReportSummary, error)
	ExportBookingsExcel(ctx context.Context) ([]byte, error)
}
