package dto

// UpdateSettingRequest describes the payload for updating a single setting.
type UpdateSettingRequest struct {
	Value string `json:"value" validate:"required"`
}
