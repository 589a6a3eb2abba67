package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusops/submission-restrict-api/internal/dto"
	"github.com/campusops/submission-restrict-api/internal/service"
	appErrors "github.com/campusops/submission-restrict-api/pkg/errors"
	"github.com/campusops/submission-restrict-api/pkg/response"
)

// PrivacyHandler serves subject-access and erasure endpoints.
type PrivacyHandler struct {
	service *service.PrivacyService
}

// NewPrivacyHandler creates a new handler.
func NewPrivacyHandler(svc *service.PrivacyService) *PrivacyHandler {
	return &PrivacyHandler{service: svc}
}

func userID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid user id")
	}
	return id, nil
}

// ExportRestrictions godoc
// @Summary Export a user's override records
// @Description Subject-access export of every override record the user last modified
// @Tags Privacy
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /privacy/users/{id}/restrictions [get]
func (h *PrivacyHandler) ExportRestrictions(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	records, err := h.service.ExportUserData(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.PrivacyExportResponse{UserID: id, Restrictions: records}, nil)
}

// Anonymize godoc
// @Summary Anonymise a user's override records
// @Description Clear the user reference on every override record the user touched
// @Tags Privacy
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /privacy/users/{id}/anonymize [post]
func (h *PrivacyHandler) Anonymize(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var actorID int64
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	affected, err := h.service.AnonymizeUser(c.Request.Context(), id, actorID, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.AnonymizeResponse{UserID: id, RowsAffected: affected}, nil)
}
