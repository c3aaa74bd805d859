package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/tms-portal-api/internal/models"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
	"github.com/noah-isme/tms-portal-api/pkg/export"
)

type rosterProvider interface {
	LoadManagers(ctx context.Context) ([]models.Manager, error)
}

type dashboardProvider interface {
	Dashboard(ctx context.Context, userID int64) (*DashboardView, error)
}

// ExportService renders the manager roster and the reconciled enrollment
// dashboard as downloadable documents.
type ExportService struct {
	roster    rosterProvider
	dashboard dashboardProvider
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(roster rosterProvider, dashboard dashboardProvider, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		roster:    roster,
		dashboard: dashboard,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// Roster exports the manager roster in the requested format ("csv" or
// "pdf") and returns the rendered bytes with their content type.
func (s *ExportService) Roster(ctx context.Context, format string) ([]byte, string, error) {
	managers, err := s.roster.LoadManagers(ctx)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{Headers: []string{"Manager ID", "Username", "Email", "Employees"}}
	for _, m := range managers {
		data.Rows = append(data.Rows, map[string]string{
			"Manager ID": strconv.FormatInt(m.UserID, 10),
			"Username":   m.Username,
			"Email":      m.Email,
			"Employees":  strconv.Itoa(len(m.Employees)),
		})
	}
	return s.render(data, "Manager Roster", format)
}

// Dashboard exports the reconciled enrollment status view for a user.
func (s *ExportService) Dashboard(ctx context.Context, userID int64, format string) ([]byte, string, error) {
	view, err := s.dashboard.Dashboard(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{Headers: []string{"Batch ID", "Batch", "Course", "Start", "End", "Status"}}
	for _, b := range view.Batches {
		data.Rows = append(data.Rows, map[string]string{
			"Batch ID": strconv.FormatInt(b.BatchID, 10),
			"Batch":    b.BatchName,
			"Course":   b.CourseName,
			"Start":    b.StartDate,
			"End":      b.EndDate,
			"Status":   string(b.Status),
		})
	}
	return s.render(data, "Enrollment Status", format)
}

func (s *ExportService) render(data export.Dataset, title, format string) ([]byte, string, error) {
	switch format {
	case "", "csv":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv render failed")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf render failed")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
