package reports

import (
	"bytes"
	"fmt"
	"time"

	"leoride/internal/models"
	"leoride/internal/pricing"

	"github.com/xuri/excelize/v2"
)

const bookingsSheet = "Bookings"

var bookingHeaders = []string{
	"Booking ID", "User ID", "Resource", "Resource ID",
	"Start", "End", "Amount", "Status", "Payment", "Created",
}

// BuildBookingsWorkbook renders bookings and the revenue summary into an
// xlsx workbook and returns the serialized bytes.
func BuildBookingsWorkbook(bookings []*models.Booking, summary *models.ReportSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, header := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(bookingsSheet, cell, header)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, headerStyle)
	}

	for row, booking := range bookings {
		resourceKind := "car"
		if booking.ParkingSlotID != nil {
			resourceKind = "parking_slot"
		}

		values := []interface{}{
			booking.ID,
			booking.UserID,
			resourceKind,
			booking.ResourceID(),
			booking.StartTime.Format(time.RFC3339),
			booking.EndTime.Format(time.RFC3339),
			pricing.FormatLeones(booking.TotalAmount),
			booking.Status,
			booking.PaymentStatus,
			booking.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(bookingsSheet, cell, value)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "B", 38)
	_ = f.SetColWidth(bookingsSheet, "C", "J", 22)

	if summary != nil {
		if err := writeSummarySheet(f, summary); err != nil {
			return nil, err
		}
	}

	_ = f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error saving workbook: %v", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, summary *models.ReportSummary) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}

	rows := [][]interface{}{
		{"Total revenue", pricing.FormatLeones(summary.TotalRevenue)},
		{"Total bookings", summary.TotalBookings},
		{"Completed bookings", summary.CompletedBookings},
		{"Pending payments", summary.PendingPayments},
	}
	for i, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+1)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 25)
	return nil
}
