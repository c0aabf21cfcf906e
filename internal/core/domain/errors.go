package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the authentication and authorization core. The
// boundary layer maps these to transport status codes; everything else in the
// core matches on them with errors.Is.
var (
	// ErrAuthenticationRequired means no strategy matched, or the one that
	// matched failed its internal checks.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAccessDenied means the caller attempted something it is structurally
	// not allowed to do, such as impersonating without permission.
	ErrAccessDenied = errors.New("access denied")
	// ErrPermissionDenied means the resolved identity lacks a permission
	// required by the requested operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAccountSuspended is raised when a disabled account carries an
	// explicit suspension reason. It is always surfaced, never swallowed.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrInvalidCredential covers bad passwords, unknown keys and failed
	// 2FA checks. Callers see a generic authentication failure so the API
	// does not leak which part of the credential was wrong.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrTargetNotFound means an impersonation target could not be resolved.
	ErrTargetNotFound = errors.New("no such user")
	// ErrInternal wraps collaborator failures such as an unreachable store.
	ErrInternal = errors.New("internal error")
)

// SuspendedError attaches the operator-supplied reason to ErrAccountSuspended.
func SuspendedError(reason string) error {
	return fmt.Errorf("%w: %s", ErrAccountSuspended, reason)
}

// Login error discriminators echoed to clients driving a step-up UI.
const (
	LoginError2FARequired = "2fa_required"
	LoginError2FAInvalid  = "2fa_invalid"
)
