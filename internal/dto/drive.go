package dto

import (
	"time"

	"github.com/noah-isme/campus-drive-api/internal/models"
)

// CreateFolderRequest creates a folder in the caller's personal drive.
type CreateFolderRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	ParentID *string `json:"parent_id" binding:"omitempty,uuid"`
}

// UploadFileRequest carries the multipart form fields of a file upload.
type UploadFileRequest struct {
	ParentID *string `form:"parent_id" binding:"omitempty,uuid"`
}

// UpdateItemRequest renames and/or moves an item. A nil NewParentID leaves
// the parent untouched; MoveToRoot moves the item to drive root explicitly.
type UpdateItemRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	NewParentID *string `json:"new_parent_id" binding:"omitempty,uuid"`
	MoveToRoot  bool    `json:"move_to_root"`
}

// ShareItemRequest grants another user access to an item.
type ShareItemRequest struct {
	SharedWithUserID int64             `json:"shared_with_user_id" binding:"required"`
	Level            models.ShareLevel `json:"permission_level" binding:"required,oneof=VIEWER EDITOR"`
}

// SearchItemsQuery captures search query parameters.
type SearchItemsQuery struct {
	Name     string `form:"q"`
	ItemType string `form:"item_type" binding:"omitempty,oneof=FILE FOLDER"`
	MimeType string `form:"mime_type"`
}

// DownloadLinkResponse returns a time-limited download URL for a file.
type DownloadLinkResponse struct {
	ItemID      string    `json:"item_id"`
	Name        string    `json:"name"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
