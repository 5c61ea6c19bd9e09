// Package auth provides authentication and authorization functionality
// This file, `dto.go` (Data Transfer Object), defines structures used for
// transferring data in API requests and responses related to authentication.
// Validation rules sit in `validate` tags and are checked by the service.
package auth

import "github.com/user/taskmanager-go/users"

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100" example:"Ann"`
	Email    string `json:"email" validate:"required,email" example:"ann@example.com"`
	Password string `json:"password" validate:"required,min=6,max=100" example:"secret1"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"ann@example.com"`
	Password string `json:"password" validate:"required" example:"secret1"`
}

// AuthResponse is returned by register and login: the user (without the
// password hash) and a fresh bearer token.
type AuthResponse struct {
	User  *users.User `json:"user"`
	Token string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}
