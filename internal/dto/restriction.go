package dto

import (
	"github.com/campusops/submission-restrict-api/internal/form"
	"github.com/campusops/submission-restrict-api/internal/models"
)

// FormResponse carries the rendered due-date form schema for one activity.
type FormResponse struct {
	ModName    string       `json:"mod_name"`
	ActivityID int64        `json:"activity_id"`
	Schema     *form.Schema `json:"schema"`
}

// SubmitFormRequest is a flat form submission.
type SubmitFormRequest struct {
	Values map[string]string `json:"values" validate:"required"`
}

// SubmitFormResponse echoes the resolved due date after a submission.
type SubmitFormResponse struct {
	ActivityID int64 `json:"activity_id"`
	NewDate    int64 `json:"new_date"`
}

// ModsResponse lists the functional activity type names.
type ModsResponse struct {
	Mods []string `json:"mods"`
}

// ReportResponse is one page of the override report.
type ReportResponse struct {
	Rows []models.RestrictionReportRow `json:"rows"`
}
