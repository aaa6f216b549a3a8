package models

import "time"

// SigningStatus is the state of a signing request. Transitions are strictly
// forward: DRAFT -> PENDING -> APPROVED | REJECTED.
type SigningStatus string

const (
	SigningDraft    SigningStatus = "DRAFT"
	SigningPending  SigningStatus = "PENDING"
	SigningApproved SigningStatus = "APPROVED"
	SigningRejected SigningStatus = "REJECTED"
)

// Terminal reports whether no further transition is possible.
func (s SigningStatus) Terminal() bool {
	return s == SigningApproved || s == SigningRejected
}

// SigningRequest is an approval workflow instance tied to one PDF file item.
// At most one active (DRAFT or PENDING) request may exist per item.
type SigningRequest struct {
	RequestID      string        `db:"request_id" json:"request_id"`
	DriveItemID    string        `db:"drive_item_id" json:"drive_item_id"`
	RequesterID    int64         `db:"requester_id" json:"requester_id"`
	ApproverID     *int64        `db:"approver_id" json:"approver_id,omitempty"`
	Status         SigningStatus `db:"current_status" json:"current_status"`
	AdminComment   *string       `db:"admin_comment" json:"admin_comment,omitempty"`
	SignedFilePath *string       `db:"signed_file_path" json:"signed_file_path,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
	ApprovedAt     *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
}
