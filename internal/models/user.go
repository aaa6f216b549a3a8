package models

import "time"

// UserRole mirrors the role claim issued by the auth service.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleLecturer UserRole = "LECTURER"
	RoleStudent  UserRole = "STUDENT"
)

// OwnerType is the owner classification stamped on drive items.
type OwnerType string

const (
	OwnerAdmin    OwnerType = "ADMIN"
	OwnerLecturer OwnerType = "LECTURER"
	OwnerStudent  OwnerType = "STUDENT"
)

// OwnerTypeForRole maps an auth role onto the item owner classification.
func OwnerTypeForRole(role UserRole) OwnerType {
	switch role {
	case RoleAdmin:
		return OwnerAdmin
	case RoleLecturer:
		return OwnerLecturer
	default:
		return OwnerStudent
	}
}

// User is a local cache of an auth-service user. The auth service is the
// source of truth; rows here are upserted from verified token claims so
// foreign keys and display names resolve without a remote call.
type User struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	Role      UserRole  `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
