package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/submission-restrict-api/internal/models"
	"github.com/campusops/submission-restrict-api/pkg/config"
	appErrors "github.com/campusops/submission-restrict-api/pkg/errors"
	"github.com/campusops/submission-restrict-api/pkg/export"
	"github.com/campusops/submission-restrict-api/pkg/storage"
)

type reportStore interface {
	ListReport(ctx context.Context, filter models.RestrictionFilter) ([]models.RestrictionReportRow, int, error)
}

// ReportService serves the paginated override report and its file exports.
// Exports can be streamed directly or archived to disk behind a signed
// download token.
type ReportService struct {
	restrictions reportStore
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	cfg          config.ReportsConfig
	location     *time.Location
	archive      *storage.ArchiveStore
	signer       *storage.Signer
}

// NewReportService constructs the service.
func NewReportService(restrictions reportStore, cfg config.ReportsConfig, location *time.Location) *ReportService {
	if location == nil {
		location = time.Local
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 30
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 200
	}
	return &ReportService{
		restrictions: restrictions,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		cfg:          cfg,
		location:     location,
	}
}

// List returns one page of the override report.
func (s *ReportService) List(ctx context.Context, filter models.RestrictionFilter) ([]models.RestrictionReportRow, *models.Pagination, error) {
	if !s.cfg.Enabled {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "reports are disabled")
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.cfg.DefaultPageSize
	}
	if filter.PageSize > s.cfg.MaxPageSize {
		filter.PageSize = s.cfg.MaxPageSize
	}

	rows, total, err := s.restrictions.ListReport(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("list override report: %w", err)
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Export formats supported by the report.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// Export renders the full filtered report as a downloadable file. Returns
// the file bytes, the content type and a suggested filename.
func (s *ReportService) Export(ctx context.Context, filter models.RestrictionFilter, format string) ([]byte, string, string, error) {
	if !s.cfg.Enabled {
		return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, "reports are disabled")
	}

	filter.Page = 1
	filter.PageSize = s.cfg.MaxPageSize
	rows, _, err := s.restrictions.ListReport(ctx, filter)
	if err != nil {
		return nil, "", "", fmt.Errorf("list override report: %w", err)
	}

	dataset := s.dataset(rows)
	stamp := time.Now().In(s.location).Format("20060102")

	switch format {
	case FormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", fmt.Errorf("render csv report: %w", err)
		}
		return data, "text/csv", "override-report-" + stamp + ".csv", nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, "Due date overrides")
		if err != nil {
			return nil, "", "", fmt.Errorf("render pdf report: %w", err)
		}
		return data, "application/pdf", "override-report-" + stamp + ".pdf", nil
	default:
		return nil, "", "", appErrors.FieldErrors(map[string]string{"format": "must be csv or pdf"})
	}
}

// AttachArchive enables archived exports with signed download tokens.
func (s *ReportService) AttachArchive(archive *storage.ArchiveStore, signer *storage.Signer) {
	s.archive = archive
	s.signer = signer
}

// ArchivedExport describes a stored export reachable through its token.
type ArchivedExport struct {
	Token     string    `json:"token"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Archive renders the report, stores it on disk and returns a signed
// download token.
func (s *ReportService) Archive(ctx context.Context, filter models.RestrictionFilter, format string) (*ArchivedExport, error) {
	if s.archive == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archived exports are disabled")
	}

	data, _, filename, err := s.Export(ctx, filter, format)
	if err != nil {
		return nil, err
	}

	exportID := uuid.NewString()
	relPath := path.Join("reports", exportID+"-"+filename)
	if err := s.archive.Save(relPath, data); err != nil {
		return nil, fmt.Errorf("archive report export: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, fmt.Errorf("sign report export: %w", err)
	}
	return &ArchivedExport{Token: token, Filename: filename, ExpiresAt: expiresAt}, nil
}

// OpenArchived validates a download token and opens the stored export.
// Returns the file handle, the content type and the download filename.
func (s *ReportService) OpenArchived(token string) (*os.File, string, string, error) {
	if s.archive == nil || s.signer == nil {
		return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, "archived exports are disabled")
	}

	_, relPath, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	file, err := s.archive.Open(relPath)
	if err != nil {
		return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}

	filename := path.Base(relPath)
	contentType := "text/csv"
	if path.Ext(relPath) == ".pdf" {
		contentType = "application/pdf"
	}
	return file, contentType, filename, nil
}

func (s *ReportService) dataset(rows []models.RestrictionReportRow) export.Dataset {
	headers := []string{"Course", "Activity", "Module", "New due date", "Reason", "Modified by"}
	data := export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Course":       row.CourseName,
			"Activity":     row.ActivityName,
			"Module":       row.ModName,
			"New due date": time.Unix(row.NewDate, 0).In(s.location).Format("2006-01-02 15:04"),
			"Reason":       row.Reason,
			"Modified by":  strconv.FormatInt(row.ModifiedBy, 10),
		})
	}
	return data
}
