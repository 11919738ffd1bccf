package models

import (
	"time"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User represents a user in the system
type User struct {
	ID           int64      `bson:"_id" json:"id"`
	Name         string     `bson:"name" json:"name"`
	Phone        string     `bson:"phone" json:"phone"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	Status       bool       `bson:"status" json:"status"`
	Role         Role       `bson:"role" json:"role"`
	LastLogin    *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// SignupRequest represents a user registration request
type SignupRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token   string `json:"token"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// StatusUpdateRequest activates or deactivates a user account
type StatusUpdateRequest struct {
	ID     int64 `json:"id"`
	Status bool  `json:"status"`
}

// Claims represents JWT claims
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Exp    int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the user may manage other accounts
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
