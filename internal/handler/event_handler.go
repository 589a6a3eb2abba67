package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/submission-restrict-api/internal/dto"
	"github.com/campusops/submission-restrict-api/internal/models"
	appErrors "github.com/campusops/submission-restrict-api/pkg/errors"
	"github.com/campusops/submission-restrict-api/pkg/response"
)

type gradeItemEventService interface {
	HandleGradeItemCreated(ctx context.Context, item models.GradeItem, origin string) error
}

// EventHandler receives host events.
type EventHandler struct {
	service gradeItemEventService
}

// NewEventHandler creates a new handler.
func NewEventHandler(svc gradeItemEventService) *EventHandler {
	return &EventHandler{service: svc}
}

// GradeItemCreated godoc
// @Summary Grade-item-created intake
// @Description Accept a grade-item-created event; restore-originated events reset the activity's dates
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.GradeItemCreatedEvent true "Event payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /events/grade-item-created [post]
func (h *EventHandler) GradeItemCreated(c *gin.Context) {
	var event dto.GradeItemCreatedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	item := models.GradeItem{
		ID:           event.ID,
		CourseID:     event.CourseID,
		ItemType:     event.ItemType,
		ItemModule:   event.ItemModule,
		ItemInstance: event.ItemInstance,
	}
	if err := h.service.HandleGradeItemCreated(c.Request.Context(), item, event.RequestOrigin); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, dto.EventAckResponse{Accepted: true}, nil)
}
