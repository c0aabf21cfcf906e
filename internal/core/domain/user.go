// Package domain contains the core business entities for dnshost.
package domain

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a human account that can own domains and API keys.
type User struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"` // unique, compared case-insensitively
	RealName     string          `json:"real_name"`
	PasswordHash string          `json:"-"`
	Permissions  map[string]bool `json:"permissions,omitempty"`
	Disabled     bool            `json:"disabled"`
	// DisabledReason, when non-empty, turns a disabled account into a hard
	// "account suspended" failure instead of an anonymous request.
	DisabledReason string    `json:"disabled_reason,omitempty"`
	AcceptTerms    time.Time `json:"accept_terms"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SetPassword hashes the given plaintext password and stores the digest.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored digest.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// NormalizeEmail lowercases an email address for lookup purposes.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
