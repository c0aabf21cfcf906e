package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zonekit/dnshost/internal/core/domain"
	"github.com/zonekit/dnshost/internal/core/ports"
)

type domainService struct {
	creds    ports.CredentialStore
	domains  ports.DomainStore
	sessions ports.SessionStore
}

// NewDomainService creates the domain/record management service. Every
// operation consults the caller's access map before touching the store.
func NewDomainService(creds ports.CredentialStore, domains ports.DomainStore, sessions ports.SessionStore) ports.DomainService {
	return &domainService{creds: creds, domains: domains, sessions: sessions}
}

// visibleDomain resolves a domain by name and checks that the caller may see
// it: a domain-key identity sees exactly its own domain, a user sees domains
// it owns, and "all" sees everything.
func (s *domainService) visibleDomain(ctx context.Context, result *domain.AuthResult, name string) (*domain.Domain, error) {
	dom, err := s.domains.GetDomainByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if dom == nil {
		return nil, fmt.Errorf("%w: unknown domain", domain.ErrPermissionDenied)
	}

	if result.DomainKey != nil {
		if result.DomainKey.DomainID != dom.ID {
			return nil, fmt.Errorf("%w: key not valid for this domain", domain.ErrPermissionDenied)
		}
		return dom, nil
	}
	if result.Can(domain.PermAll) || dom.Owner == result.User.ID {
		return dom, nil
	}
	return nil, fmt.Errorf("%w: not your domain", domain.ErrPermissionDenied)
}

func (s *domainService) requirePermission(result *domain.AuthResult, permission string) error {
	if !result.Authenticated() {
		return domain.ErrAuthenticationRequired
	}
	if !result.Can(permission) {
		return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, permission)
	}
	return nil
}

func (s *domainService) ListDomains(ctx context.Context, result *domain.AuthResult) ([]domain.Domain, error) {
	if err := s.requirePermission(result, domain.PermDomainsRead); err != nil {
		return nil, err
	}

	if result.DomainKey != nil {
		dom, err := s.domains.GetDomain(ctx, result.DomainKey.DomainID)
		if err != nil {
			return nil, err
		}
		if dom == nil {
			return nil, nil
		}
		return []domain.Domain{*dom}, nil
	}
	return s.domains.ListDomainsForUser(ctx, result.User.ID)
}

func (s *domainService) GetDomain(ctx context.Context, result *domain.AuthResult, name string) (*domain.Domain, error) {
	if err := s.requirePermission(result, domain.PermDomainsRead); err != nil {
		return nil, err
	}
	return s.visibleDomain(ctx, result, name)
}

func (s *domainService) ListRecords(ctx context.Context, result *domain.AuthResult, name string) ([]domain.Record, error) {
	if err := s.requirePermission(result, domain.PermDomainsRead); err != nil {
		return nil, err
	}
	dom, err := s.visibleDomain(ctx, result, name)
	if err != nil {
		return nil, err
	}
	return s.domains.ListRecords(ctx, dom.ID)
}

func (s *domainService) CreateRecord(ctx context.Context, result *domain.AuthResult, name string, record *domain.Record) error {
	if err := s.requirePermission(result, domain.PermDomainsWrite); err != nil {
		return err
	}
	dom, err := s.visibleDomain(ctx, result, name)
	if err != nil {
		return err
	}

	record.ID = uuid.New().String()
	record.DomainID = dom.ID
	record.ChangedAt = time.Now()
	if record.TTL < 60 {
		record.TTL = 60
	}

	if err := s.domains.CreateRecord(ctx, record); err != nil {
		return err
	}
	return s.domains.UpdateSOASerial(ctx, dom.ID, soaSerial(record.ChangedAt))
}

func (s *domainService) DeleteRecord(ctx context.Context, result *domain.AuthResult, name, recordID string) error {
	if err := s.requirePermission(result, domain.PermDomainsWrite); err != nil {
		return err
	}
	dom, err := s.visibleDomain(ctx, result, name)
	if err != nil {
		return err
	}

	record, err := s.domains.GetRecord(ctx, dom.ID, recordID)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: unknown record", domain.ErrPermissionDenied)
	}

	if err := s.domains.DeleteRecord(ctx, dom.ID, recordID); err != nil {
		return err
	}
	return s.domains.UpdateSOASerial(ctx, dom.ID, soaSerial(time.Now()))
}

func (s *domainService) HealthCheck(ctx context.Context) map[string]error {
	return map[string]error{
		"database": s.creds.Ping(ctx),
		"sessions": s.sessions.Ping(ctx),
	}
}

// soaSerial builds a date-based zone serial (YYYYMMDDnn) from the change time.
func soaSerial(at time.Time) uint32 {
	serial, _ := strconv.ParseUint(at.UTC().Format("2006010215"), 10, 32)
	return uint32(serial)
}
