package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the payload of access tokens issued by the external auth
// service. Lecturers carry their department id; students may carry the id
// of the class they are enrolled in.
type JWTClaims struct {
	UserID       int64    `json:"user_id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Role         UserRole `json:"role"`
	DepartmentID *int64   `json:"department_id,omitempty"`
	ClassID      *int64   `json:"class_id,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the admin role.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
