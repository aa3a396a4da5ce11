package service

import (
	"context"
	"time"

	"leoride/internal/database"
	"leoride/internal/domain"
	"leoride/internal/events"
	"leoride/internal/metrics"
	"leoride/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentService runs the simulated gateway: every attempt that passes
// validation succeeds after a fixed processing delay.
type PaymentService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	delay      time.Duration
	logger     *zerolog.Logger
}

func NewPaymentService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, delay time.Duration, logger *zerolog.Logger) *PaymentService {
	if delay < 0 {
		delay = 0
	}
	return &PaymentService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		delay:      delay,
		logger:     logger,
	}
}

func (s *PaymentService) Pay(ctx context.Context, bookingID string, principal *models.Principal, method string, details models.PaymentDetails) (*models.Payment, error) {
	if err := validatePaymentDetails(method, details); err != nil {
		return nil, err
	}

	// Owners pay for their own bookings; foreign bookings look like 404.
	ownerFilter := principal.UserID
	if principal.IsAdmin() {
		ownerFilter = ""
	}
	booking, err := s.repo.GetBookingForUser(ctx, bookingID, ownerFilter)
	if err != nil {
		return nil, err
	}

	if booking.PaymentStatus == models.PaymentCompleted {
		return nil, database.ErrIllegalTransition
	}
	if booking.Status != models.StatusPending && booking.Status != models.StatusConfirmed {
		return nil, database.ErrIllegalTransition
	}

	start := time.Now()
	if err := s.simulateGateway(ctx); err != nil {
		s.recordFailedAttempt(ctx, booking, method)
		return nil, err
	}
	metrics.ObservePaymentDuration(time.Since(start).Seconds())

	providerRef := uuid.NewString()
	payment := &models.Payment{
		ID:            uuid.NewString(),
		BookingID:     booking.ID,
		Amount:        booking.TotalAmount,
		Status:        models.PaymentCompleted,
		PaymentMethod: method,
		ProviderRef:   &providerRef,
	}

	if err := s.repo.CreatePaymentAndConfirmBooking(ctx, payment); err != nil {
		metrics.IncPayment(models.PaymentFailed)
		s.publishPaymentEvent(events.EventPaymentFailed, payment, booking.UserID)
		s.recordFailedAttempt(ctx, booking, method)
		return nil, err
	}

	metrics.IncPayment(models.PaymentCompleted)
	s.publishPaymentEvent(events.EventPaymentCompleted, payment, booking.UserID)

	booking.Status = models.StatusConfirmed
	booking.PaymentStatus = models.PaymentCompleted
	s.publishBookingConfirmed(booking)

	s.enqueueSync(ctx, "reconcile_payment", booking.ID)
	s.enqueueSync(ctx, "sheets_upsert", booking.ID)

	return payment, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, principal *models.Principal, bookingID string) ([]*models.Payment, error) {
	if bookingID == "" {
		if !principal.IsAdmin() {
			return nil, database.ErrNotFound
		}
		return s.repo.ListPayments(ctx)
	}

	ownerFilter := principal.UserID
	if principal.IsAdmin() {
		ownerFilter = ""
	}
	if _, err := s.repo.GetBookingForUser(ctx, bookingID, ownerFilter); err != nil {
		return nil, err
	}
	return s.repo.ListPaymentsByBooking(ctx, bookingID)
}

// recordFailedAttempt keeps the rejected attempt in the payments history
// and schedules a reconcile so the booking's payment_status reflects it.
func (s *PaymentService) recordFailedAttempt(ctx context.Context, booking *models.Booking, method string) {
	attempt := &models.Payment{
		ID:            uuid.NewString(),
		BookingID:     booking.ID,
		Amount:        booking.TotalAmount,
		Status:        models.PaymentFailed,
		PaymentMethod: method,
	}

	// The attempt may have died on a cancelled context; the history row
	// should still land.
	ctx = context.WithoutCancel(ctx)
	if err := s.repo.CreatePayment(ctx, attempt); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("record failed payment error")
		return
	}
	s.enqueueSync(ctx, "reconcile_payment", booking.ID)
}

// simulateGateway blocks for the configured processing delay. The only
// failure mode is the caller giving up.
func (s *PaymentService) simulateGateway(ctx context.Context) error {
	if s.delay == 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validatePaymentDetails(method string, details models.PaymentDetails) error {
	switch method {
	case models.MethodOrangeMoney, models.MethodAfrimoney:
		if countDigits(details.PhoneNumber) < models.MinPhoneDigits {
			return database.ErrInvalidInput
		}
	case models.MethodCard:
		if details.CardNumber == "" || details.ExpiryDate == "" || details.CVV == "" {
			return database.ErrInvalidInput
		}
	default:
		return database.ErrInvalidInput
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func (s *PaymentService) publishPaymentEvent(eventType string, payment *models.Payment, userID string) {
	if s.eventBus == nil {
		return
	}

	payload := events.PaymentEventPayload{
		PaymentID: payment.ID,
		BookingID: payment.BookingID,
		UserID:    userID,
		Method:    payment.PaymentMethod,
		Amount:    payment.Amount,
		Status:    payment.Status,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("payment_id", payment.ID).Msg("publish event error")
	}
}

func (s *PaymentService) publishBookingConfirmed(booking *models.Booking) {
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

	if err := s.eventBus.PublishJSON(events.EventBookingConfirmed, payload); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *PaymentService) enqueueSync(ctx context.Context, taskType string, bookingID string) {
	if s.syncWorker == nil {
		return
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, bookingID); err != nil {
		s.logger.Error().Err(err).Str("booking_id", bookingID).Str("task", taskType).Msg("sync enqueue error")
	}
}
