package ports

import (
	"context"
	"time"

	"github.com/zonekit/dnshost/internal/core/domain"
)

// CredentialStore is the persistence boundary for users, keys and two-factor
// state. Lookup methods return (nil, nil) when the entity does not exist;
// a non-nil error always means the store itself failed.
type CredentialStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error

	GetAPIKey(ctx context.Context, id string) (*domain.APIKey, error)
	GetAPIKeyByUserKey(ctx context.Context, userID, key string) (*domain.APIKey, error)
	ListAPIKeys(ctx context.Context, userID string) ([]domain.APIKey, error)
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	DeleteAPIKey(ctx context.Context, id string) error
	TouchAPIKey(ctx context.Context, id string, when time.Time) error

	GetDomainKey(ctx context.Context, id string) (*domain.DomainKey, error)
	GetDomainKeyByDomainKey(ctx context.Context, domainID, key string) (*domain.DomainKey, error)
	ListDomainKeys(ctx context.Context, domainID string) ([]domain.DomainKey, error)
	CreateDomainKey(ctx context.Context, key *domain.DomainKey) error
	DeleteDomainKey(ctx context.Context, id string) error
	TouchDomainKey(ctx context.Context, id string, when time.Time) error

	ListActiveTwoFactorKeys(ctx context.Context, userID string) ([]domain.TwoFactorKey, error)
	CreateTwoFactorKey(ctx context.Context, key *domain.TwoFactorKey) error
	TouchTwoFactorKey(ctx context.Context, id string, when time.Time) error

	GetTwoFactorDevice(ctx context.Context, userID, deviceID string) (*domain.TwoFactorDevice, error)
	SaveTwoFactorDevice(ctx context.Context, device *domain.TwoFactorDevice) error
	DeleteTwoFactorDevice(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}

// DomainStore is the persistence boundary for domains and their records.
// Record validation and zone semantics live outside this core.
type DomainStore interface {
	GetDomain(ctx context.Context, id string) (*domain.Domain, error)
	GetDomainByName(ctx context.Context, name string) (*domain.Domain, error)
	ListDomainsForUser(ctx context.Context, userID string) ([]domain.Domain, error)
	CreateDomain(ctx context.Context, d *domain.Domain) error

	ListRecords(ctx context.Context, domainID string) ([]domain.Record, error)
	GetRecord(ctx context.Context, domainID, recordID string) (*domain.Record, error)
	CreateRecord(ctx context.Context, record *domain.Record) error
	DeleteRecord(ctx context.Context, domainID, recordID string) error
	UpdateSOASerial(ctx context.Context, domainID string, serial uint32) error
}

// SessionStore holds ephemeral sessions keyed by an opaque identifier.
// Get returns (nil, nil) for an unknown or expired session.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// AuthService resolves request credentials to an acting identity and manages
// session issuance.
type AuthService interface {
	// Authenticate runs exactly one strategy, applies the suspension and
	// terms gates, then the optional impersonation override. The result is
	// non-nil whenever the error is nil, even for unauthenticated requests.
	Authenticate(ctx context.Context, creds domain.Credentials, impersonate *domain.ImpersonationTarget) (*domain.AuthResult, error)
	IssueSession(ctx context.Context, result *domain.AuthResult) (*domain.Session, error)
	EndSession(ctx context.Context, id string) error
}

// DomainService exposes the domain/record management operations consumed by
// the HTTP boundary after authorization.
type DomainService interface {
	ListDomains(ctx context.Context, result *domain.AuthResult) ([]domain.Domain, error)
	GetDomain(ctx context.Context, result *domain.AuthResult, name string) (*domain.Domain, error)
	ListRecords(ctx context.Context, result *domain.AuthResult, name string) ([]domain.Record, error)
	CreateRecord(ctx context.Context, result *domain.AuthResult, name string, record *domain.Record) error
	DeleteRecord(ctx context.Context, result *domain.AuthResult, name, recordID string) error
	HealthCheck(ctx context.Context) map[string]error
}
