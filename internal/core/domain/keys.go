package domain

import (
	"fmt"
	"time"
)

// APIKey is a user-owned bearer credential. Each scope flag can only narrow
// the owning user's permissions, never widen them.
type APIKey struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Key         string     `json:"-"` // opaque bearer secret
	Description string     `json:"description"`
	DomainRead  bool       `json:"domain_read"`
	DomainWrite bool       `json:"domain_write"`
	UserRead    bool       `json:"user_read"`
	UserWrite   bool       `json:"user_write"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DomainKey is a domain-owned bearer credential. It belongs to a domain, not
// a user; resolving it yields a synthetic identity scoped to that one domain.
type DomainKey struct {
	ID          string     `json:"id"`
	DomainID    string     `json:"domain_id"`
	Key         string     `json:"-"`
	Description string     `json:"description"`
	DomainWrite bool       `json:"domain_write"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// KeyUser builds the synthetic acting identity for this domain key. It never
// inherits a human user's permission set; access for it is always exactly
// {domains_read, domains_write: k.DomainWrite}.
func (k *DomainKey) KeyUser(domainName string) *User {
	return &User{
		ID:       "domainkey:" + k.ID,
		Email:    fmt.Sprintf("%s@%s", k.ID, domainName),
		RealName: "Domain Key: " + k.Description,
	}
}

// Access returns the fixed access map for a domain-key identity.
func (k *DomainKey) Access() AccessMap {
	return AccessMap{
		PermDomainsRead:  true,
		PermDomainsWrite: k.DomainWrite,
	}
}
