package services

import (
	"time"

	"github.com/zonekit/dnshost/internal/core/domain"
)

// PermissionCalculator merges a user's stored permission set with an optional
// API-key scope restriction and the terms-acceptance gate into an effective
// access map.
type PermissionCalculator struct {
	// MinTermsTime is the minimum terms-acceptance timestamp required to use
	// the full API. Users behind it keep only user_read/user_write so they
	// can still accept the new terms or delete their account.
	MinTermsTime time.Time
}

var basePermissions = map[string]bool{
	domain.PermDomainsRead:  true,
	domain.PermDomainsWrite: true,
	domain.PermUserRead:     true,
	domain.PermUserWrite:    true,
}

// Compute derives the effective access map for a user, optionally narrowed by
// an API key. The stage ordering is load-bearing: key-scope ceiling first,
// then the user-permission overlay, then the terms gate.
func (c PermissionCalculator) Compute(user *domain.User, key *domain.APIKey) domain.AccessMap {
	access := domain.AccessMap{
		domain.PermDomainsRead:  key == nil || key.DomainRead,
		domain.PermDomainsWrite: key == nil || key.DomainWrite,
		domain.PermUserRead:     key == nil || key.UserRead,
		domain.PermUserWrite:    key == nil || key.UserWrite,
	}

	// The overlay only adds named permissions beyond the four base scopes.
	// Base scopes are governed by the key ceiling alone, so a stored value
	// can never widen what the key withheld.
	for perm, granted := range user.Permissions {
		if granted && !basePermissions[perm] {
			access[perm] = true
		}
	}

	if user.AcceptTerms.Before(c.MinTermsTime) {
		for perm := range access {
			if perm != domain.PermUserRead && perm != domain.PermUserWrite {
				access[perm] = false
			}
		}
	}

	return access
}
