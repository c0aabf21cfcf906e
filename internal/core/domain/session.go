package domain

import "time"

// Session is the ephemeral server-side state behind an opaque session
// identifier. KeyID and DomainKeyID record which credential created the
// session; if that credential is later deleted the session is invalid.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Access      AccessMap `json:"access"`
	KeyID       string    `json:"key_id,omitempty"`
	DomainKeyID string    `json:"domain_key_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
