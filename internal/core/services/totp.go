package services

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPVerifier validates submitted one-time codes against an enrolled secret
// with a bounded time-step tolerance.
type TOTPVerifier struct {
	// Skew is how many 30-second steps on either side of the current window
	// are accepted.
	Skew uint
}

// NewTOTPVerifier returns a verifier accepting the previous, current and next
// time window.
func NewTOTPVerifier() TOTPVerifier {
	return TOTPVerifier{Skew: 1}
}

// Verify checks code against the base32 secret at the given instant.
func (v TOTPVerifier) Verify(secret, code string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    30,
		Skew:      v.Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
