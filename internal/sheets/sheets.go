package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"leoride/internal/models"
	"leoride/internal/pricing"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const bookingsRange = "Bookings"

var errRowNotFound = errors.New("booking row not found")

// Service mirrors bookings into the report spreadsheet. A row index
// cache keyed by booking ID avoids re-reading column A on every upsert.
type Service struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[string]int
	cacheMu       sync.RWMutex
}

func NewService(credentialsFile, spreadsheetID string) (*Service, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	service := &Service{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[string]int),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		service.WarmUpCache(ctx)
	}()

	return service, nil
}

// TestConnection проверяет подключение к таблице
func (s *Service) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsRange+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// WarmUpCache populates the row index cache from the ID column.
func (s *Service) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsRange+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && id != "" {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// UpsertBooking updates the booking's row or appends a new one.
func (s *Service) UpsertBooking(ctx context.Context, details *models.BookingDetails) error {
	if details == nil {
		return fmt.Errorf("booking details are nil")
	}

	rowIdx, err := s.findBookingRow(ctx, details.Booking.ID)
	if err != nil {
		if errors.Is(err, errRowNotFound) {
			return s.appendBooking(ctx, details)
		}
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:J%d", bookingsRange, rowIdx, rowIdx)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(details)},
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// ReplaceBookingsSheet rewrites the whole sheet from scratch.
func (s *Service) ReplaceBookingsSheet(ctx context.Context, bookings []*models.BookingDetails) error {
	values := [][]interface{}{
		{"ID", "User", "Resource", "Start", "End", "Amount", "Status", "Payment", "Created", "Updated"},
	}
	for _, details := range bookings {
		values = append(values, bookingRowValues(details))
	}

	rangeData := fmt.Sprintf("%s!A1:J%d", bookingsRange, len(values))
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)
	for i, details := range bookings {
		s.rowCache[details.Booking.ID] = i + 2
	}
	return nil
}

func (s *Service) appendBooking(ctx context.Context, details *models.BookingDetails) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(details)},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, bookingsRange+"!A:A", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// findBookingRow locates the 1-based row index for a booking ID in column A.
func (s *Service) findBookingRow(ctx context.Context, bookingID string) (int, error) {
	if bookingID == "" {
		return 0, fmt.Errorf("booking id is required")
	}

	if row, ok := s.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsRange+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && id == bookingID {
			rowIdx := i + 1
			s.setCachedRow(bookingID, rowIdx)
			return rowIdx, nil
		}
	}

	return 0, errRowNotFound
}

func (s *Service) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *Service) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func bookingRowValues(details *models.BookingDetails) []interface{} {
	booking := details.Booking

	userLabel := booking.UserID
	if details.User != nil && details.User.Name != "" {
		userLabel = details.User.Name
	}

	resourceLabel := booking.ResourceID()
	if details.Car != nil {
		resourceLabel = details.Car.Model
	} else if details.Slot != nil {
		resourceLabel = fmt.Sprintf("slot %s (floor %d)", details.Slot.SlotNumber, details.Slot.Floor)
	}

	return []interface{}{
		booking.ID,
		userLabel,
		resourceLabel,
		booking.StartTime.Format("2006-01-02 15:04"),
		booking.EndTime.Format("2006-01-02 15:04"),
		pricing.FormatLeones(booking.TotalAmount),
		booking.Status,
		booking.PaymentStatus,
		booking.CreatedAt.Format("2006-01-02 15:04:05"),
		booking.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
