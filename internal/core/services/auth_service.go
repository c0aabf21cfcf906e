package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zonekit/dnshost/internal/core/domain"
	"github.com/zonekit/dnshost/internal/core/ports"
	"github.com/zonekit/dnshost/internal/infrastructure/metrics"
)

// AuthConfig carries the tunables of the resolver.
type AuthConfig struct {
	// MinTermsTime feeds the terms gate of the permission calculator.
	MinTermsTime time.Time
	// TOTPSkew is the accepted time-step tolerance for one-time codes.
	TOTPSkew uint
}

type authService struct {
	creds    ports.CredentialStore
	domains  ports.DomainStore
	sessions ports.SessionStore

	perms   PermissionCalculator
	devices *DeviceTrustManager
	totp    TOTPVerifier

	strategies []strategy

	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService builds the resolver over its collaborators. Strategies are
// consulted in fixed priority order; exactly one is attempted per request.
func NewAuthService(creds ports.CredentialStore, domains ports.DomainStore, sessions ports.SessionStore, cfg AuthConfig, logger *slog.Logger) ports.AuthService {
	skew := cfg.TOTPSkew
	if skew == 0 {
		skew = 1
	}
	s := &authService{
		creds:    creds,
		domains:  domains,
		sessions: sessions,
		perms:    PermissionCalculator{MinTermsTime: cfg.MinTermsTime},
		devices:  NewDeviceTrustManager(creds, logger),
		totp:     TOTPVerifier{Skew: skew},
		logger:   logger,
		now:      time.Now,
	}
	s.strategies = []strategy{
		sessionStrategy{s},
		apiKeyStrategy{s},
		domainKeyStrategy{s},
		basicAuthStrategy{s},
	}
	return s
}

// strategy is one way of turning request credentials into an identity. When
// applicable, its attempt is final: internal failures yield an unauthenticated
// result rather than falling through to the next strategy.
type strategy interface {
	name() string
	applicable(creds domain.Credentials) bool
	attempt(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
}

func (s *authService) Authenticate(ctx context.Context, creds domain.Credentials, impersonate *domain.ImpersonationTarget) (*domain.AuthResult, error) {
	result, strategyName, err := s.resolve(ctx, creds)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues(strategyName, "error").Inc()
		return nil, err
	}

	if err := s.gate(result); err != nil {
		metrics.AuthAttempts.WithLabelValues(strategyName, "suspended").Inc()
		return nil, err
	}

	if impersonate != nil && result.Authenticated() {
		if err := s.impersonateTarget(ctx, result, *impersonate); err != nil {
			return nil, err
		}
	}

	if result.Authenticated() {
		metrics.AuthAttempts.WithLabelValues(strategyName, "ok").Inc()
	} else {
		metrics.AuthAttempts.WithLabelValues(strategyName, "unauthenticated").Inc()
	}
	return result, nil
}

// resolve selects the first strategy whose credential material is present and
// runs it. Supplying both session and basic-auth credentials uses the session
// only; a present-but-invalid session does not fall through to basic auth.
func (s *authService) resolve(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, string, error) {
	for _, st := range s.strategies {
		if !st.applicable(creds) {
			continue
		}
		result, err := st.attempt(ctx, creds)
		if result == nil {
			result = &domain.AuthResult{}
		}
		return result, st.name(), err
	}
	return &domain.AuthResult{}, "none", nil
}

// gate applies the account-suspension check after resolution. A disabled
// account without a reason degrades to unauthenticated; a disabled account
// with a reason is a hard error that aborts the request.
func (s *authService) gate(result *domain.AuthResult) error {
	if !result.Authenticated() {
		return nil
	}
	user := result.User
	if !user.Disabled {
		return nil
	}

	reason := user.DisabledReason
	result.User = nil
	result.Access = nil
	result.Key = nil
	result.DomainKey = nil

	if reason != "" {
		return domain.SuspendedError(reason)
	}
	return nil
}

// impersonateTarget substitutes the acting identity when the caller holds
// impersonate_users. Access is re-derived from the target's own permissions;
// the impersonator's key-scope ceiling is not inherited.
func (s *authService) impersonateTarget(ctx context.Context, result *domain.AuthResult, target domain.ImpersonationTarget) error {
	if !result.Can(domain.PermImpersonate) {
		return fmt.Errorf("%w: impersonation requires %s", domain.ErrAccessDenied, domain.PermImpersonate)
	}

	var (
		impersonated *domain.User
		err          error
	)
	switch target.Mode {
	case "id":
		impersonated, err = s.creds.GetUser(ctx, target.Value)
	case "email":
		impersonated, err = s.creds.GetUserByEmail(ctx, domain.NormalizeEmail(target.Value))
	default:
		impersonated = nil
	}
	if err != nil {
		return fmt.Errorf("impersonation target lookup: %w", err)
	}
	if impersonated == nil {
		return fmt.Errorf("%w to impersonate", domain.ErrTargetNotFound)
	}

	result.Impersonator = result.User
	result.User = impersonated
	result.Access = s.perms.Compute(impersonated, nil)

	metrics.ImpersonationsTotal.Inc()
	s.logger.Info("impersonation active",
		"impersonator", result.Impersonator.Email,
		"impersonating", impersonated.Email)
	return nil
}

func (s *authService) IssueSession(ctx context.Context, result *domain.AuthResult) (*domain.Session, error) {
	if !result.Authenticated() {
		return nil, domain.ErrAuthenticationRequired
	}

	sess := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    result.User.ID,
		Access:    result.Access.Clone(),
		CreatedAt: s.now(),
	}
	if result.Key != nil {
		sess.KeyID = result.Key.ID
	}
	if result.DomainKey != nil {
		sess.DomainKeyID = result.DomainKey.ID
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("session save: %w", err)
	}
	metrics.SessionsIssued.Inc()
	return sess, nil
}

func (s *authService) EndSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// touchAPIKey refreshes advisory usage telemetry. Last-write-wins races are
// tolerated; failures are logged, never escalated.
func (s *authService) touchAPIKey(ctx context.Context, id string) {
	if err := s.creds.TouchAPIKey(ctx, id, s.now()); err != nil {
		s.logger.Warn("failed to refresh api key lastUsed", "key", id, "error", err)
	}
}

func (s *authService) touchDomainKey(ctx context.Context, id string) {
	if err := s.creds.TouchDomainKey(ctx, id, s.now()); err != nil {
		s.logger.Warn("failed to refresh domain key lastUsed", "key", id, "error", err)
	}
}

// sessionStrategy resolves an opaque session identifier from a previous
// login. A session whose recorded key no longer exists is stale: the identity
// is cleared and no mutation is attempted on the missing key.
type sessionStrategy struct{ s *authService }

func (st sessionStrategy) name() string { return "session" }

func (st sessionStrategy) applicable(creds domain.Credentials) bool { return creds.HasSession() }

func (st sessionStrategy) attempt(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	s := st.s
	sess, err := s.sessions.Get(ctx, creds.SessionID)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if sess == nil {
		return &domain.AuthResult{}, nil
	}

	if sess.DomainKeyID != "" {
		return st.attemptDomainKey(ctx, sess)
	}

	user, err := s.creds.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("session user lookup: %w", err)
	}
	if user == nil {
		return &domain.AuthResult{}, nil
	}

	var key *domain.APIKey
	if sess.KeyID != "" {
		key, err = s.creds.GetAPIKey(ctx, sess.KeyID)
		if err != nil {
			return nil, fmt.Errorf("session key lookup: %w", err)
		}
		if key == nil {
			// Key deleted since login; the session is no longer valid.
			return &domain.AuthResult{}, nil
		}
		s.touchAPIKey(ctx, key.ID)
	}

	result := &domain.AuthResult{
		User:      user,
		Access:    s.perms.Compute(user, key),
		Key:       key,
		SessionID: sess.ID,
	}

	if creds.DeviceID != "" {
		device, err := s.devices.Lookup(ctx, user.ID, creds.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("device lookup: %w", err)
		}
		result.Device = device
	}
	return result, nil
}

func (st sessionStrategy) attemptDomainKey(ctx context.Context, sess *domain.Session) (*domain.AuthResult, error) {
	s := st.s
	key, err := s.creds.GetDomainKey(ctx, sess.DomainKeyID)
	if err != nil {
		return nil, fmt.Errorf("session domain key lookup: %w", err)
	}
	if key == nil {
		return &domain.AuthResult{}, nil
	}

	dom, err := s.domains.GetDomain(ctx, key.DomainID)
	if err != nil {
		return nil, fmt.Errorf("session domain lookup: %w", err)
	}
	if dom == nil {
		return &domain.AuthResult{}, nil
	}

	s.touchDomainKey(ctx, key.ID)
	return &domain.AuthResult{
		User:      key.KeyUser(dom.Name),
		Access:    key.Access(),
		DomainKey: key,
		SessionID: sess.ID,
	}, nil
}

// apiKeyStrategy resolves a caller email plus key secret. Failure at either
// lookup is strategy failure with no fallback.
type apiKeyStrategy struct{ s *authService }

func (st apiKeyStrategy) name() string { return "apikey" }

func (st apiKeyStrategy) applicable(creds domain.Credentials) bool { return creds.HasAPIKey() }

func (st apiKeyStrategy) attempt(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	s := st.s
	user, err := s.creds.GetUserByEmail(ctx, domain.NormalizeEmail(creds.APIUser))
	if err != nil {
		return nil, fmt.Errorf("api user lookup: %w", err)
	}
	if user == nil {
		return &domain.AuthResult{}, nil
	}

	key, err := s.creds.GetAPIKeyByUserKey(ctx, user.ID, creds.APIKey)
	if err != nil {
		return nil, fmt.Errorf("api key lookup: %w", err)
	}
	if key == nil {
		return &domain.AuthResult{}, nil
	}

	s.touchAPIKey(ctx, key.ID)
	return &domain.AuthResult{
		User:   user,
		Access: s.perms.Compute(user, key),
		Key:    key,
	}, nil
}

// domainKeyStrategy resolves a domain name plus domain key secret into the
// synthetic domain-key identity.
type domainKeyStrategy struct{ s *authService }

func (st domainKeyStrategy) name() string { return "domainkey" }

func (st domainKeyStrategy) applicable(creds domain.Credentials) bool { return creds.HasDomainKey() }

func (st domainKeyStrategy) attempt(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	s := st.s
	dom, err := s.domains.GetDomainByName(ctx, creds.DomainName)
	if err != nil {
		return nil, fmt.Errorf("domain lookup: %w", err)
	}
	if dom == nil {
		return &domain.AuthResult{}, nil
	}

	key, err := s.creds.GetDomainKeyByDomainKey(ctx, dom.ID, creds.DomainKey)
	if err != nil {
		return nil, fmt.Errorf("domain key lookup: %w", err)
	}
	if key == nil {
		return &domain.AuthResult{}, nil
	}

	s.touchDomainKey(ctx, key.ID)
	return &domain.AuthResult{
		User:      key.KeyUser(dom.Name),
		Access:    key.Access(),
		DomainKey: key,
	}, nil
}

// basicAuthStrategy verifies a password and runs step-up authentication
// against the user's active two-factor keys, honoring device trust.
type basicAuthStrategy struct{ s *authService }

func (st basicAuthStrategy) name() string { return "basic" }

func (st basicAuthStrategy) applicable(creds domain.Credentials) bool { return creds.HasBasicAuth() }

func (st basicAuthStrategy) attempt(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	s := st.s
	user, err := s.creds.GetUserByEmail(ctx, domain.NormalizeEmail(creds.Email))
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil || !user.CheckPassword(creds.Password) {
		return &domain.AuthResult{}, nil
	}

	result := &domain.AuthResult{}

	keys, err := s.creds.ListActiveTwoFactorKeys(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("two-factor key lookup: %w", err)
	}

	// A valid trusted device bypasses step-up entirely, even when active
	// keys exist.
	if creds.DeviceID != "" {
		device, err := s.devices.Lookup(ctx, user.ID, creds.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("device lookup: %w", err)
		}
		if device != nil {
			result.Device = device
			keys = nil
		}
	}

	if len(keys) > 0 {
		if creds.TwoFactorCode == "" {
			result.LoginError = domain.LoginError2FARequired
			return result, nil
		}

		var matched *domain.TwoFactorKey
		for i := range keys {
			if s.totp.Verify(keys[i].Secret, creds.TwoFactorCode, s.now()) {
				matched = &keys[i]
				break
			}
		}
		if matched == nil {
			result.LoginError = domain.LoginError2FAInvalid
			return result, nil
		}

		if err := s.creds.TouchTwoFactorKey(ctx, matched.ID, s.now()); err != nil {
			s.logger.Warn("failed to refresh two-factor key lastUsed", "key", matched.ID, "error", err)
		}

		if creds.SaveDevice || creds.DeviceID != "" {
			st.rememberDevice(ctx, user.ID, creds, result)
		}
	}

	result.User = user
	result.Access = s.perms.Compute(user, nil)
	return result, nil
}

// rememberDevice creates or refreshes a trusted device after a successful
// step-up. This is best-effort: persistence failure never fails the login.
func (st basicAuthStrategy) rememberDevice(ctx context.Context, userID string, creds domain.Credentials, result *domain.AuthResult) {
	s := st.s

	deviceID := creds.DeviceID
	if deviceID == "" {
		deviceID = uuid.New().String()
	}
	description := creds.DeviceName
	if description == "" {
		description = "Device ID: " + deviceID
	}

	now := s.now()
	device := &domain.TwoFactorDevice{
		ID:          uuid.New().String(),
		UserID:      userID,
		DeviceID:    deviceID,
		Description: description,
		CreatedAt:   now,
		LastUsed:    &now,
	}
	if err := s.creds.SaveTwoFactorDevice(ctx, device); err != nil {
		s.logger.Warn("failed to save trusted device", "user", userID, "error", err)
		return
	}

	result.Device = device
	result.DeviceCreated = true
}
