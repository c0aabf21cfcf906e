package domain

import "time"

// DeviceTrustWindow is how long a remembered device may bypass step-up
// authentication after it was created. Expired devices are deleted on their
// next use, never silently kept.
const DeviceTrustWindow = 30 * 24 * time.Hour

// TwoFactorKey is a TOTP secret enrolled by a user. Only active keys are
// considered during step-up authentication.
type TwoFactorKey struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Description string     `json:"description"`
	Secret      string     `json:"-"` // base32 TOTP secret
	Active      bool       `json:"active"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TwoFactorDevice is a remembered client device that bypasses step-up
// authentication while inside the trust window.
type TwoFactorDevice struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	DeviceID    string     `json:"device_id"` // client-supplied or generated opaque token
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
}

// Expired reports whether the device has fallen outside the trust window.
func (d *TwoFactorDevice) Expired(now time.Time) bool {
	return now.Sub(d.CreatedAt) > DeviceTrustWindow
}
