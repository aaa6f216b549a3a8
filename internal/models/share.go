package models

import "time"

// ShareLevel grades what a grantee may do with a shared item.
type ShareLevel string

const (
	ShareViewer ShareLevel = "VIEWER"
	ShareEditor ShareLevel = "EDITOR"
)

// SharePermission grants a specific user access to an item. Unique per
// (item_id, shared_with_user_id).
type SharePermission struct {
	ShareID          string     `db:"share_id" json:"share_id"`
	ItemID           string     `db:"item_id" json:"item_id"`
	SharedWithUserID int64      `db:"shared_with_user_id" json:"shared_with_user_id"`
	Level            ShareLevel `db:"permission_level" json:"permission_level"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}
