package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/submission-restrict-api/internal/models"
	"github.com/campusops/submission-restrict-api/pkg/config"
	appErrors "github.com/campusops/submission-restrict-api/pkg/errors"
	"github.com/campusops/submission-restrict-api/pkg/storage"
)

type reportStoreStub struct {
	rows       []models.RestrictionReportRow
	total      int
	lastFilter models.RestrictionFilter
	err        error
}

func (s *reportStoreStub) ListReport(_ context.Context, filter models.RestrictionFilter) ([]models.RestrictionReportRow, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	s.lastFilter = filter
	return s.rows, s.total, nil
}

func reportConfig() config.ReportsConfig {
	return config.ReportsConfig{Enabled: true, DefaultPageSize: 30, MaxPageSize: 200}
}

func sampleReportRows() []models.RestrictionReportRow {
	return []models.RestrictionReportRow{
		{
			ID:           1,
			ActivityID:   7,
			ModName:      "assign",
			ActivityName: "Essay 1",
			CourseName:   "History 101",
			NewDate:      1636707300,
			Reason:       "Extension granted",
			ModifiedBy:   42,
		},
	}
}

func TestReportServiceList(t *testing.T) {
	store := &reportStoreStub{rows: sampleReportRows(), total: 1}
	svc := NewReportService(store, reportConfig(), time.UTC)

	rows, pagination, err := svc.List(context.Background(), models.RestrictionFilter{ModName: "assign"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 30, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestReportServiceListClampsPageSize(t *testing.T) {
	store := &reportStoreStub{}
	svc := NewReportService(store, reportConfig(), time.UTC)

	_, _, err := svc.List(context.Background(), models.RestrictionFilter{Page: 2, PageSize: 9999})
	require.NoError(t, err)
	assert.Equal(t, 200, store.lastFilter.PageSize)
	assert.Equal(t, 2, store.lastFilter.Page)
}

func TestReportServiceListDisabled(t *testing.T) {
	svc := NewReportService(&reportStoreStub{}, config.ReportsConfig{}, time.UTC)

	_, _, err := svc.List(context.Background(), models.RestrictionFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceExportCSV(t *testing.T) {
	store := &reportStoreStub{rows: sampleReportRows(), total: 1}
	svc := NewReportService(store, reportConfig(), time.UTC)

	data, contentType, filename, err := svc.Export(context.Background(), models.RestrictionFilter{}, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	body := string(data)
	assert.Contains(t, body, "Course,Activity,Module")
	assert.Contains(t, body, "History 101")
	assert.Contains(t, body, "Extension granted")
}

func TestReportServiceExportPDF(t *testing.T) {
	store := &reportStoreStub{rows: sampleReportRows(), total: 1}
	svc := NewReportService(store, reportConfig(), time.UTC)

	data, contentType, filename, err := svc.Export(context.Background(), models.RestrictionFilter{}, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasSuffix(filename, ".pdf"))
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestReportServiceArchiveRoundTrip(t *testing.T) {
	store := &reportStoreStub{rows: sampleReportRows(), total: 1}
	svc := NewReportService(store, reportConfig(), time.UTC)

	archive, err := storage.NewArchiveStore(t.TempDir())
	require.NoError(t, err)
	svc.AttachArchive(archive, storage.NewSigner("secret", time.Hour))

	archived, err := svc.Archive(context.Background(), models.RestrictionFilter{}, FormatCSV)
	require.NoError(t, err)
	assert.NotEmpty(t, archived.Token)
	assert.True(t, strings.HasSuffix(archived.Filename, ".csv"))
	assert.True(t, archived.ExpiresAt.After(time.Now()))

	file, contentType, filename, err := svc.OpenArchived(archived.Token)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	assert.Equal(t, "text/csv", contentType)
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "History 101")
}

func TestReportServiceOpenArchivedBadToken(t *testing.T) {
	svc := NewReportService(&reportStoreStub{}, reportConfig(), time.UTC)

	archive, err := storage.NewArchiveStore(t.TempDir())
	require.NoError(t, err)
	svc.AttachArchive(archive, storage.NewSigner("secret", time.Hour))

	_, _, _, err = svc.OpenArchived("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestReportServiceArchiveDisabled(t *testing.T) {
	svc := NewReportService(&reportStoreStub{}, reportConfig(), time.UTC)

	_, err := svc.Archive(context.Background(), models.RestrictionFilter{}, FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceExportUnknownFormat(t *testing.T) {
	svc := NewReportService(&reportStoreStub{}, reportConfig(), time.UTC)

	_, _, _, err := svc.Export(context.Background(), models.RestrictionFilter{}, "xlsx")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "format")
}
