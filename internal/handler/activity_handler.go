package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusops/submission-restrict-api/internal/dto"
	"github.com/campusops/submission-restrict-api/internal/form"
	"github.com/campusops/submission-restrict-api/internal/mod"
	appErrors "github.com/campusops/submission-restrict-api/pkg/errors"
	"github.com/campusops/submission-restrict-api/pkg/response"
)

// DefaultModName is assumed when a request does not name an activity type.
const DefaultModName = "assign"

type restrictFormService interface {
	FunctionalMods(ctx context.Context) []string
	RenderForm(ctx context.Context, modName string, activityID int64, actor mod.Actor) (*form.Schema, error)
	SubmitForm(ctx context.Context, modName string, activityID int64, values form.Values, actor mod.Actor, ip, userAgent string) (int64, error)
	DeleteActivityRestriction(ctx context.Context, activityID int64, actor mod.Actor, ip, userAgent string) error
	DeleteCourseRestrictions(ctx context.Context, courseID int64, actor mod.Actor, ip, userAgent string) error
}

// ActivityHandler serves the restricted due-date form of an activity.
type ActivityHandler struct {
	service restrictFormService
}

// NewActivityHandler creates a new handler.
func NewActivityHandler(svc restrictFormService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

func activityID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid activity id")
	}
	return id, nil
}

func modName(c *gin.Context) string {
	if name := c.Query("mod"); name != "" {
		return name
	}
	return DefaultModName
}

// ListMods godoc
// @Summary List functional activity types
// @Description Activity types whose restricted due-date form is configured
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /mods [get]
func (h *ActivityHandler) ListMods(c *gin.Context) {
	mods := h.service.FunctionalMods(c.Request.Context())
	response.JSON(c, http.StatusOK, dto.ModsResponse{Mods: mods}, nil)
}

// GetForm godoc
// @Summary Render the due-date form
// @Description Build the restricted due-date form schema for one activity
// @Tags Activities
// @Produce json
// @Param id path int true "Activity ID"
// @Param mod query string false "Activity type" default(assign)
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /activities/{id}/form [get]
func (h *ActivityHandler) GetForm(c *gin.Context) {
	id, err := activityID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	name := modName(c)

	schema, err := h.service.RenderForm(c.Request.Context(), name, id, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.FormResponse{ModName: name, ActivityID: id, Schema: schema}, nil)
}

// SubmitForm godoc
// @Summary Submit the due-date form
// @Description Validate and apply a due-date form submission
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path int true "Activity ID"
// @Param mod query string false "Activity type" default(assign)
// @Param payload body dto.SubmitFormRequest true "Form values"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /activities/{id}/form [post]
func (h *ActivityHandler) SubmitForm(c *gin.Context) {
	id, err := activityID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.SubmitFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid form payload"))
		return
	}

	newDate, err := h.service.SubmitForm(c.Request.Context(), modName(c), id, form.Values(req.Values),
		actorFromContext(c), c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.SubmitFormResponse{ActivityID: id, NewDate: newDate}, nil)
}

// DeleteRestriction godoc
// @Summary Delete an activity's override
// @Description Remove the stored due-date override of one activity
// @Tags Activities
// @Produce json
// @Param id path int true "Activity ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /activities/{id}/restriction [delete]
func (h *ActivityHandler) DeleteRestriction(c *gin.Context) {
	id, err := activityID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.DeleteActivityRestriction(c.Request.Context(), id, actorFromContext(c), c.ClientIP(), c.GetHeader("User-Agent")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// DeleteCourseRestrictions godoc
// @Summary Delete a course's overrides
// @Description Remove the stored due-date overrides of every activity in a course
// @Tags Activities
// @Produce json
// @Param id path int true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /courses/{id}/restrictions [delete]
func (h *ActivityHandler) DeleteCourseRestrictions(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || courseID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}

	if err := h.service.DeleteCourseRestrictions(c.Request.Context(), courseID, actorFromContext(c), c.ClientIP(), c.GetHeader("User-Agent")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
