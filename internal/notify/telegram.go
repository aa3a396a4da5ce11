package notify

import (
	"encoding/json"
	"fmt"

	"leoride/internal/events"
	"leoride/internal/pricing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the slice of the bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier pushes booking and payment events to the admin chats.
type Notifier struct {
	sender       Sender
	adminChatIDs []int64
	logger       *zerolog.Logger
}

func New(sender Sender, adminChatIDs []int64, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		sender:       sender,
		adminChatIDs: adminChatIDs,
		logger:       logger,
	}
}

// NewBot builds the underlying bot client from a token.
func NewBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

// Subscribe attaches the notifier to the bus.
func (n *Notifier) Subscribe(bus *events.EventBus) {
	bookingEvents := []string{
		events.EventBookingCreated,
		events.EventBookingCancelled,
		events.EventBookingCompleted,
	}
	for _, eventType := range bookingEvents {
		bus.Subscribe(eventType, n.handleBookingEvent)
	}
	bus.Subscribe(events.EventPaymentCompleted, n.handlePaymentEvent)
	bus.Subscribe(events.EventPaymentFailed, n.handlePaymentEvent)
}

func (n *Notifier) handleBookingEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}

	resource := "car"
	resourceID := ""
	if payload.CarID != nil {
		resourceID = *payload.CarID
	}
	if payload.ParkingSlotID != nil {
		resource = "parking slot"
		resourceID = *payload.ParkingSlotID
	}

	text := fmt.Sprintf(
		"Booking %s: %s\n%s %s\n%s — %s\n%s",
		payload.BookingID,
		payload.Status,
		resource,
		resourceID,
		payload.StartTime.Format("02.01.2006 15:04"),
		payload.EndTime.Format("02.01.2006 15:04"),
		pricing.FormatLeones(payload.TotalAmount),
	)
	n.broadcast(text)
	return nil
}

func (n *Notifier) handlePaymentEvent(event *events.Event) error {
	var payload events.PaymentEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode payment event: %w", err)
	}

	text := fmt.Sprintf(
		"Payment %s for booking %s: %s via %s (%s)",
		payload.PaymentID,
		payload.BookingID,
		payload.Status,
		payload.Method,
		pricing.FormatLeones(payload.Amount),
	)
	n.broadcast(text)
	return nil
}

func (n *Notifier) broadcast(text string) {
	for _, chatID := range n.adminChatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("admin notification failed")
		}
	}
}
