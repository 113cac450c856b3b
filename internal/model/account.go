package model

import (
	"fmt"
	"time"
)

// Role identifies which dashboard and permissions apply to a session.
type Role string

const (
	RoleCitizen      Role = "citizen"
	RoleAdmin        Role = "admin"
	RoleMunicipality Role = "municipality"
)

// ParseRole converts a flag or config value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleAdmin, RoleMunicipality:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role belongs to an admin or municipality account.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleMunicipality
}

// Citizen is a phone-keyed reporter identity.
type Citizen struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StaffAccount is an admin or municipality login.
type StaffAccount struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	Municipality *string   `json:"municipality,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CitizenLoginRequest is the body of POST /auth/citizen/login.
type CitizenLoginRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// StaffLoginRequest is the body of the admin and municipality login endpoints.
type StaffLoginRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Secret string `json:"password" binding:"required"`
}

// CreateStaffRequest provisions a new staff account.
type CreateStaffRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	Password     string `json:"password" binding:"required,min=8"`
	Role         Role   `json:"role" binding:"required,oneof=admin municipality"`
	Municipality string `json:"municipality"`
}
