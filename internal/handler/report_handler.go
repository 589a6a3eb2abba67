package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusops/submission-restrict-api/internal/models"
	"github.com/campusops/submission-restrict-api/internal/service"
	"github.com/campusops/submission-restrict-api/pkg/response"
)

// ReportHandler serves the override report endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

func reportFilter(c *gin.Context) models.RestrictionFilter {
	filter := models.RestrictionFilter{ModName: c.Query("mod")}
	if courseID, err := strconv.ParseInt(c.Query("course_id"), 10, 64); err == nil {
		filter.CourseID = courseID
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.Query("page_size")); err == nil {
		filter.PageSize = pageSize
	}
	return filter
}

// List godoc
// @Summary Override report
// @Description Paginated report of stored due-date overrides
// @Tags Reports
// @Produce json
// @Param mod query string false "Filter by activity type"
// @Param course_id query int false "Filter by course"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /report [get]
func (h *ReportHandler) List(c *gin.Context) {
	rows, pagination, err := h.service.List(c.Request.Context(), reportFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Export godoc
// @Summary Export the override report
// @Description Download the override report as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "Export format (csv or pdf)"
// @Param mod query string false "Filter by activity type"
// @Param course_id query int false "Filter by course"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /report/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	data, contentType, filename, err := h.service.Export(c.Request.Context(), reportFilter(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// Archive godoc
// @Summary Archive the override report
// @Description Store the report export on the server and return a signed download token
// @Tags Reports
// @Produce json
// @Param format query string true "Export format (csv or pdf)"
// @Param mod query string false "Filter by activity type"
// @Param course_id query int false "Filter by course"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /report/archive [post]
func (h *ReportHandler) Archive(c *gin.Context) {
	archived, err := h.service.Archive(c.Request.Context(), reportFilter(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, archived)
}

// Download godoc
// @Summary Download an archived export
// @Description Stream a stored export; the signed token is the credential
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /report/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, contentType, filename, err := h.service.OpenArchived(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
