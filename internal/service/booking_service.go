package service

import (
	"context"
	"time"

	"leoride/internal/database"
	"leoride/internal/domain"
	"leoride/internal/events"
	"leoride/internal/metrics"
	"leoride/internal/models"
	"leoride/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// legalTransitions lists the admin-driven status moves. Cancellation by
// the owner is handled separately in CancelBooking.
var legalTransitions = map[string][]string{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusActive, models.StatusCancelled},
	models.StatusActive:    {models.StatusCompleted},
}

type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	syncWorker     domain.SyncWorker
	maxBookingDays int
	logger         *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, maxBookingDays int, logger *zerolog.Logger) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		syncWorker:     syncWorker,
		maxBookingDays: maxBookingDays,
		logger:         logger,
	}
}

// ValidateBookingWindow rejects windows that start in the past or reach
// beyond the booking horizon.
func (s *BookingService) ValidateBookingWindow(start, end time.Time) error {
	if !end.After(start) {
		return database.ErrInvalidInput
	}

	if start.Before(time.Now().Add(-time.Minute)) {
		return database.ErrPastDate
	}

	maxDate := time.Now().AddDate(0, 0, s.maxBookingDays)
	if end.After(maxDate) {
		return database.ErrDateTooFar
	}

	return nil
}

func (s *BookingService) CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.Booking, error) {
	if req.UserID == "" {
		return nil, database.ErrInvalidInput
	}
	if (req.CarID == nil) == (req.ParkingSlotID == nil) {
		// Exactly one resource per booking.
		return nil, database.ErrInvalidInput
	}

	if err := s.ValidateBookingWindow(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	rate, err := s.resourceRate(ctx, req.CarID, req.ParkingSlotID)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		CarID:         req.CarID,
		ParkingSlotID: req.ParkingSlotID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		TotalAmount:   pricing.ComputeAmount(req.StartTime, req.EndTime, rate),
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
		Notes:         req.Notes,
		Version:       1,
	}

	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		if err == database.ErrNotAvailable {
			metrics.IncBookingConflict()
		}
		return nil, err
	}

	metrics.IncBookingCreated()
	s.publishEvent(events.EventBookingCreated, booking)
	s.enqueueSync(ctx, "sheets_upsert", booking.ID)

	return booking, nil
}

// resourceRate loads the requested resource and returns its hourly rate.
// Resources under maintenance cannot be booked.
func (s *BookingService) resourceRate(ctx context.Context, carID, slotID *string) (decimal.Decimal, error) {
	if carID != nil {
		car, err := s.repo.GetCar(ctx, *carID)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if car.Status == models.CarMaintenance {
			return decimal.Decimal{}, database.ErrNotAvailable
		}
		return car.PricePerHour, nil
	}

	slot, err := s.repo.GetParkingSlot(ctx, *slotID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if slot.Status == models.SlotMaintenance {
		return decimal.Decimal{}, database.ErrNotAvailable
	}
	return slot.PricePerHour, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string, principal *models.Principal) (*models.BookingDetails, error) {
	ownerFilter := principal.UserID
	if principal.IsAdmin() {
		ownerFilter = ""
	}
	return s.repo.GetBookingDetails(ctx, id, ownerFilter)
}

func (s *BookingService) ListBookings(ctx context.Context, principal *models.Principal, status string) ([]*models.Booking, error) {
	ownerFilter := principal.UserID
	if principal.IsAdmin() {
		ownerFilter = ""
	}
	return s.repo.ListBookings(ctx, ownerFilter, status)
}

// CancelBooking cancels the caller's booking while it is still pending or
// confirmed. Admins may cancel any booking.
func (s *BookingService) CancelBooking(ctx context.Context, id string, principal *models.Principal) (*models.Booking, error) {
	ownerFilter := principal.UserID
	if principal.IsAdmin() {
		ownerFilter = ""
	}

	booking, err := s.repo.GetBookingForUser(ctx, id, ownerFilter)
	if err != nil {
		return nil, err
	}

	if !booking.Cancellable() {
		return nil, database.ErrIllegalTransition
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, id, booking.Version, models.StatusCancelled); err != nil {
		return nil, err
	}

	booking.Status = models.StatusCancelled
	booking.Version++
	s.publishEvent(events.EventBookingCancelled, booking)
	s.enqueueSync(ctx, "sheets_upsert", booking.ID)

	return booking, nil
}

// TransitionBooking performs an admin-driven status move. Illegal moves,
// including any transition out of a terminal status, are rejected.
func (s *BookingService) TransitionBooking(ctx context.Context, id string, target string) (*models.Booking, error) {
	if !models.ValidBookingStatus(target) {
		return nil, database.ErrInvalidInput
	}

	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(booking.Status, target) {
		return nil, database.ErrIllegalTransition
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, id, booking.Version, target); err != nil {
		return nil, err
	}

	booking.Status = target
	booking.Version++
	s.publishEvent(transitionEvent(target), booking)
	s.enqueueSync(ctx, "sheets_upsert", booking.ID)

	return booking, nil
}

func (s *BookingService) CheckAvailability(ctx context.Context, carID, slotID *string, start, end time.Time) (bool, error) {
	if (carID == nil) == (slotID == nil) {
		return false, database.ErrInvalidInput
	}
	if !end.After(start) {
		return false, database.ErrInvalidInput
	}
	return s.repo.ResourceAvailable(ctx, carID, slotID, start, end)
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func transitionEvent(target string) string {
	switch target {
	case models.StatusConfirmed:
		return events.EventBookingConfirmed
	case models.StatusActive:
		return events.EventBookingActivated
	case models.StatusCompleted:
		return events.EventBookingCompleted
	case models.StatusCancelled:
		return events.EventBookingCancelled
	default:
		return "booking_" + target
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		CarID:         booking.CarID,
		ParkingSlotID: booking.ParkingSlotID,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		TotalAmount:   booking.TotalAmount,
		StartTime:     booking.StartTime,
		EndTime:       booking.EndTime,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, taskType string, bookingID string) {
	if s.syncWorker == nil {
		return
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, bookingID); err != nil {
		s.logger.Error().Err(err).Str("booking_id", bookingID).Str("task", taskType).Msg("sync enqueue error")
	}
}
