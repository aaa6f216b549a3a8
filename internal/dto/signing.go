package dto

// CreateSigningRequest opens a signing workflow for a PDF file item.
type CreateSigningRequest struct {
	DriveItemID string `json:"drive_item_id" binding:"required,uuid"`
}

// DecideSigningRequest carries the admin decision payload. Comment is
// required when rejecting so the requester learns why.
type DecideSigningRequest struct {
	Comment string `json:"comment" binding:"omitempty,max=1000"`
}
