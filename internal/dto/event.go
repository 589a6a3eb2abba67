package dto

// GradeItemCreatedEvent is the host's grade-item-created webhook payload.
// RequestOrigin identifies the flow that created the item; only "restore"
// triggers a date reset.
type GradeItemCreatedEvent struct {
	ID            int64  `json:"id" validate:"required"`
	CourseID      int64  `json:"course_id"`
	ItemType      string `json:"item_type" validate:"required"`
	ItemModule    string `json:"item_module"`
	ItemInstance  int64  `json:"item_instance"`
	RequestOrigin string `json:"request_origin"`
}

// EventAckResponse acknowledges an accepted event.
type EventAckResponse struct {
	Accepted bool `json:"accepted"`
}
