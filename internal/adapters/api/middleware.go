package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/zonekit/dnshost/internal/core/domain"
	"github.com/zonekit/dnshost/internal/core/ports"
)

type contextKey string

const (
	// CtxAuthResult carries the resolved *domain.AuthResult for the request.
	CtxAuthResult contextKey = "auth_result"
)

// CredentialsFromRequest extracts the wire credential headers. Header names
// are part of the public contract and must not change.
func CredentialsFromRequest(r *http.Request) domain.Credentials {
	creds := domain.Credentials{
		SessionID:     r.Header.Get("X-Session-ID"),
		APIUser:       r.Header.Get("X-Api-User"),
		APIKey:        r.Header.Get("X-Api-Key"),
		DomainName:    r.Header.Get("X-Domain"),
		DomainKey:     r.Header.Get("X-Domain-Key"),
		TwoFactorCode: r.Header.Get("X-2FA-Key"),
		DeviceID:      r.Header.Get("X-2FA-Device-ID"),
		DeviceName:    r.Header.Get("X-2FA-Device-Name"),
	}
	if r.Header.Get("X-2FA-Save-Device") != "" {
		creds.SaveDevice = true
	}
	if email, password, ok := r.BasicAuth(); ok {
		creds.Email = email
		creds.Password = password
	}
	return creds
}

// ImpersonationFromRequest reads the impersonation override headers.
// X-Impersonate selects by email, X-Impersonate-ID by user ID; the email
// form wins when both are present.
func ImpersonationFromRequest(r *http.Request) *domain.ImpersonationTarget {
	if email := r.Header.Get("X-Impersonate"); email != "" {
		return &domain.ImpersonationTarget{Mode: "email", Value: email}
	}
	if id := r.Header.Get("X-Impersonate-ID"); id != "" {
		return &domain.ImpersonationTarget{Mode: "id", Value: id}
	}
	return nil
}

// AuthMiddleware resolves request credentials through the auth service and
// stores the result in the request context. Resolution failures terminate the
// request; an unauthenticated result is passed through for the handler (or a
// RequirePermission wrapper) to reject.
func AuthMiddleware(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}

			result, err := auth.Authenticate(r.Context(), CredentialsFromRequest(r), ImpersonationFromRequest(r))
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), CtxAuthResult, result)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthFromContext returns the resolved auth result, or an empty one when the
// middleware did not run.
func AuthFromContext(ctx context.Context) *domain.AuthResult {
	if result, ok := ctx.Value(CtxAuthResult).(*domain.AuthResult); ok {
		return result
	}
	return &domain.AuthResult{}
}

// RequirePermission rejects requests whose resolved identity lacks the named
// permission. Unauthenticated requests get 401 so clients know to supply
// credentials rather than ask for more scope.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := AuthFromContext(r.Context())
			if !result.Authenticated() {
				WriteAuthFailure(w, result)
				return
			}
			if !result.Can(permission) {
				WriteError(w, domain.ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// errorBody is the uniform JSON error envelope.
type errorBody struct {
	Error      string `json:"error"`
	LoginError string `json:"login_error,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
}

// WriteError maps an error kind to its transport status.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAuthenticationRequired),
		errors.Is(err, domain.ErrInvalidCredential):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccessDenied),
		errors.Is(err, domain.ErrPermissionDenied),
		errors.Is(err, domain.ErrAccountSuspended):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrTargetNotFound):
		status = http.StatusBadRequest
	}

	writeJSON(w, status, errorBody{Error: err.Error()})
}

// WriteAuthFailure rejects an unauthenticated request while echoing the
// step-up discriminator and any device bookkeeping, so clients can drive a
// 2FA prompt.
func WriteAuthFailure(w http.ResponseWriter, result *domain.AuthResult) {
	body := errorBody{
		Error:      domain.ErrAuthenticationRequired.Error(),
		LoginError: result.LoginError,
	}
	if result.Device != nil {
		body.DeviceID = result.Device.DeviceID
		body.DeviceName = result.Device.Description
	}
	writeJSON(w, http.StatusUnauthorized, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
