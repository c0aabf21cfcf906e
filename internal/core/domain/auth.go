package domain

// Credentials is the authentication material extracted from one request.
// At most one strategy's fields are consulted, in the fixed priority order
// session, API key, domain key, basic auth.
type Credentials struct {
	SessionID string

	APIUser string // email of the key's owning user
	APIKey  string

	DomainName string
	DomainKey  string

	Email    string // basic auth
	Password string

	// Step-up / device-trust inputs, only meaningful for the basic-auth path.
	TwoFactorCode string
	DeviceID      string
	SaveDevice    bool
	DeviceName    string // optional description for a newly saved device
}

// HasSession reports whether session credentials are present.
func (c Credentials) HasSession() bool { return c.SessionID != "" }

// HasAPIKey reports whether API-key credentials are present.
func (c Credentials) HasAPIKey() bool { return c.APIUser != "" && c.APIKey != "" }

// HasDomainKey reports whether domain-key credentials are present.
func (c Credentials) HasDomainKey() bool { return c.DomainName != "" && c.DomainKey != "" }

// HasBasicAuth reports whether basic-auth credentials are present.
func (c Credentials) HasBasicAuth() bool { return c.Email != "" && c.Password != "" }

// ImpersonationTarget selects the user an authorized caller wants to act as.
// Mode is either "id" or "email".
type ImpersonationTarget struct {
	Mode  string `json:"mode"`
	Value string `json:"value"`
}

// AuthResult is the outcome of resolving one request's credentials. A nil
// User means the request is unauthenticated; the echo fields may still be
// populated so the client can drive a step-up UI.
type AuthResult struct {
	User   *User
	Access AccessMap

	// Provenance of the identity, when it came from a key.
	Key       *APIKey
	DomainKey *DomainKey
	SessionID string

	// Device trust bookkeeping.
	Device        *TwoFactorDevice
	DeviceCreated bool

	// Impersonator is the original caller when impersonation is active.
	Impersonator *User

	// LoginError is "2fa_required" or "2fa_invalid" when step-up blocked an
	// otherwise valid password login.
	LoginError string
}

// Authenticated reports whether an acting identity was resolved.
func (r *AuthResult) Authenticated() bool {
	return r != nil && r.User != nil
}

// Can reports whether the resolved identity holds the named permission.
func (r *AuthResult) Can(permission string) bool {
	return r.Authenticated() && r.Access.Can(permission)
}
