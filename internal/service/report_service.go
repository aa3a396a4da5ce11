package service

import (
	"context"

	"leoride/internal/domain"
	"leoride/internal/models"
	"leoride/internal/reports"

	"github.com/rs/zerolog"
)

type ReportService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewReportService(repo domain.Repository, logger *zerolog.Logger) *ReportService {
	return &ReportService{repo: repo, logger: logger}
}

func (s *ReportService) Summary(ctx context.Context) (*models.ReportSummary, error) {
	return s.repo.GetReportSummary(ctx)
}

// ExportBookingsExcel renders every booking into an xlsx workbook.
func (s *ReportService) ExportBookingsExcel(ctx context.Context) ([]byte, error) {
	bookings, err := s.repo.ListBookings(ctx, "", "")
	if err != nil {
		return nil, err
	}

	summary, err := s.repo.GetReportSummary(ctx)
	if err != nil {
		return nil, err
	}

	return reports.BuildBookingsWorkbook(bookings, summary)
}
