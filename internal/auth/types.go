package auth

import (
	"errors"
	"strings"
	"time"
)

// MinPasswordLength is the minimum accepted length for new passwords.
const MinPasswordLength = 6

// Account is a stored user account. Email is the identity: lowercased
// before every read or write, so lookups are case-insensitive.
type Account struct {
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"` // never serialised
	IsAdmin            bool      `json:"is_admin"`
	MustChangePassword bool      `json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Summary is the client-facing view of an account. It carries no
// credential material and is safe to return from any endpoint.
type Summary struct {
	Email              string `json:"email"`
	IsAdmin            bool   `json:"is_admin"`
	MustChangePassword bool   `json:"must_change_password"`
}

// Summary returns the client-facing view of the account.
func (a *Account) Summary() Summary {
	return Summary{
		Email:              a.Email,
		IsAdmin:            a.IsAdmin,
		MustChangePassword: a.MustChangePassword,
	}
}

// Patch describes a partial account update. Nil fields are left unchanged.
type Patch struct {
	PasswordHash       *string
	IsAdmin            *bool
	MustChangePassword *bool
}

// NormalizeEmail returns the canonical store key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("email already registered")
	ErrRegistrationClosed = errors.New("self-service registration is disabled")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrNotAdmin           = errors.New("admin privileges required")
)
