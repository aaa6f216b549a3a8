package models

import "time"

// ItemType distinguishes tree nodes.
type ItemType string

const (
	ItemTypeFile   ItemType = "FILE"
	ItemTypeFolder ItemType = "FOLDER"
)

// RepositoryType is the ownership context an item lives in.
type RepositoryType string

const (
	RepositoryPersonal   RepositoryType = "PERSONAL"
	RepositoryClass      RepositoryType = "CLASS"
	RepositoryDepartment RepositoryType = "DEPARTMENT"
)

// ProcessStatus tracks the upload pipeline state of a file. Scanning is a
// placeholder; uploads currently enter READY directly.
type ProcessStatus string

const (
	ProcessPendingUpload ProcessStatus = "PENDING_UPLOAD"
	ProcessScanning      ProcessStatus = "SCANNING"
	ProcessReady         ProcessStatus = "READY"
	ProcessInfected      ProcessStatus = "INFECTED"
	ProcessError         ProcessStatus = "ERROR"
)

// DriveItem is a node in the storage tree. The (owner_id, parent_id, name)
// triple is unique among non-trashed siblings via a partial unique index.
type DriveItem struct {
	ItemID              string         `db:"item_id" json:"item_id"`
	Name                string         `db:"name" json:"name"`
	ItemType            ItemType       `db:"item_type" json:"item_type"`
	OwnerID             int64          `db:"owner_id" json:"owner_id"`
	OwnerType           OwnerType      `db:"owner_type" json:"owner_type"`
	ParentID            *string        `db:"parent_id" json:"parent_id,omitempty"`
	RepositoryType      RepositoryType `db:"repository_type" json:"repository_type"`
	RepositoryContextID *int64         `db:"repository_context_id" json:"repository_context_id,omitempty"`
	ProcessStatus       ProcessStatus  `db:"process_status" json:"process_status"`
	IsSystemGenerated   bool           `db:"is_system_generated" json:"is_system_generated"`
	IsLocked            bool           `db:"is_locked" json:"is_locked"`
	IsTrashed           bool           `db:"is_trashed" json:"is_trashed"`
	TrashedAt           *time.Time     `db:"trashed_at" json:"trashed_at,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`

	// Populated by queries that join file_metadata; nil for folders.
	Metadata *FileMetadata `db:"-" json:"file_metadata,omitempty"`
}

// IsFolder reports whether the item is a folder node.
func (i *DriveItem) IsFolder() bool {
	return i.ItemType == ItemTypeFolder
}

// FileMetadata is the 1:1 companion row of a FILE item. It is owned by the
// item and removed with it on purge.
type FileMetadata struct {
	ItemID      string     `db:"item_id" json:"item_id"`
	MimeType    string     `db:"mime_type" json:"mime_type"`
	SizeBytes   int64      `db:"size_bytes" json:"size_bytes"`
	StoragePath string     `db:"storage_path" json:"-"`
	Version     int        `db:"version" json:"version"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// DriveItemFilter narrows item listing queries.
type DriveItemFilter struct {
	OwnerID        int64
	ParentID       *string
	RepositoryType RepositoryType
	ContextID      *int64
	IncludeTrashed bool
	Limit          int
	Offset         int
}

// SearchQuery captures search criteria across owned and shared items.
type SearchQuery struct {
	Name     string
	ItemType ItemType
	MimeType string
}
