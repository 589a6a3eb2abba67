package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/submission-restrict-api/internal/dto"
	"github.com/campusops/submission-restrict-api/internal/service"
	appErrors "github.com/campusops/submission-restrict-api/pkg/errors"
	"github.com/campusops/submission-restrict-api/pkg/response"
)

// SettingsHandler serves the adapter configuration endpoints.
type SettingsHandler struct {
	service *service.SettingsService
}

// NewSettingsHandler creates a new handler.
func NewSettingsHandler(svc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// List godoc
// @Summary List settings
// @Description List every stored adapter setting
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings [get]
func (h *SettingsHandler) List(c *gin.Context) {
	settings, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Update a setting
// @Description Validate and store one adapter setting value
// @Tags Settings
// @Accept json
// @Produce json
// @Param key path string true "Setting name"
// @Param payload body dto.UpdateSettingRequest true "Setting value"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /settings/{key} [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid setting payload"))
		return
	}

	var actorID int64
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	setting, err := h.service.Update(c.Request.Context(), c.Param("key"), req.Value, actorID, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, setting, nil)
}
