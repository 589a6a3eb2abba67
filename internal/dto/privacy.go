package dto

import "github.com/campusops/submission-restrict-api/internal/models"

// PrivacyExportResponse is the subject-access export of a user's override
// records.
type PrivacyExportResponse struct {
	UserID       int64                `json:"user_id"`
	Restrictions []models.Restriction `json:"restrictions"`
}

// AnonymizeResponse reports how many override rows were anonymised.
type AnonymizeResponse struct {
	UserID       int64 `json:"user_id"`
	RowsAffected int64 `json:"rows_affected"`
}
