package domain

import (
	"time"
)

// RecordType represents the type of a DNS record (e.g., A, AAAA, MX).
type RecordType string

const (
	// TypeA represents an IPv4 address record.
	TypeA RecordType = "A"
	// TypeAAAA represents an IPv6 address record.
	TypeAAAA RecordType = "AAAA"
	// TypeCNAME represents a canonical name record.
	TypeCNAME RecordType = "CNAME"
	// TypeMX represents a mail exchange record.
	TypeMX RecordType = "MX"
	// TypeTXT represents a text record.
	TypeTXT RecordType = "TXT"
	// TypeNS represents a name server record.
	TypeNS RecordType = "NS"
	// TypeSOA represents a start of authority record.
	TypeSOA RecordType = "SOA"
	// TypeSRV represents a service locator record.
	TypeSRV RecordType = "SRV"
)

// Domain is a hosted DNS domain. Owner is the user that provisioned it;
// domain keys grant access to a domain independently of any user.
type Domain struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"` // e.g. example.org
	Owner     string    `json:"owner,omitempty"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is a DNS resource record within a domain. Record semantics beyond
// basic shape (zone validation, rendering) live outside this core.
type Record struct {
	ID        string     `json:"id"`
	DomainID  string     `json:"domain_id"`
	Name      string     `json:"name"`
	Type      RecordType `json:"type"`
	Content   string     `json:"content"`
	TTL       int        `json:"ttl"`
	Priority  *int       `json:"priority,omitempty"` // MX, SRV
	ChangedAt time.Time  `json:"changed_at"`
}
