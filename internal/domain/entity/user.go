package entity

import "time"

// UserRef identifies a directory user as seen by the engine. The directory is
// an external collaborator; the engine only reads it for approver resolution.
type UserRef struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	DepartmentID int64  `json:"department_id"`
	IsActive     bool   `json:"is_active"`
}

// RoleAssignment grants a user a role, either department-scoped or global
// (DepartmentID nil).
type RoleAssignment struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}

// Department is directory reference data
type Department struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
