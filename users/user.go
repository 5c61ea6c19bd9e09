// Package users holds the user (credential) model and the storage contract for it.
// The auth package is the only writer: users are created by registration and
// read back by login and profile lookups. Nothing in the service deletes a user.
package users

import (
	"strings"
	"time"
)

// User represents a registered account.
// The `json:"-"` tags keep the password hash and the update timestamp out of API
// responses; clients see `{id, name, email, createdAt}`.
type User struct {
	ID           string    `json:"id" db:"id" example:"3f1c2a8e-6b1d-4f0a-9d6e-2b7f5c1e9a40"`
	Name         string    `json:"name" db:"name" example:"Ann"`
	Email        string    `json:"email" db:"email" example:"ann@example.com"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"-" db:"updated_at"`
}

// NormalizeEmail lowercases and trims an email address. Emails are stored and
// looked up in this form, which makes uniqueness case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName trims surrounding whitespace from a display name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
