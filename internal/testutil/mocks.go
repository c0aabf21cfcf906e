package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zonekit/dnshost/internal/core/domain"
)

// MockAuthService implements ports.AuthService for testing.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Authenticate(ctx context.Context, creds domain.Credentials, impersonate *domain.ImpersonationTarget) (*domain.AuthResult, error) {
	args := m.Called(creds, impersonate)
	result, _ := args.Get(0).(*domain.AuthResult)
	return result, args.Error(1)
}

func (m *MockAuthService) IssueSession(ctx context.Context, result *domain.AuthResult) (*domain.Session, error) {
	args := m.Called(result)
	session, _ := args.Get(0).(*domain.Session)
	return session, args.Error(1)
}

func (m *MockAuthService) EndSession(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockDomainService implements ports.DomainService for testing.
type MockDomainService struct {
	mock.Mock
}

func (m *MockDomainService) ListDomains(ctx context.Context, result *domain.AuthResult) ([]domain.Domain, error) {
	args := m.Called(result)
	domains, _ := args.Get(0).([]domain.Domain)
	return domains, args.Error(1)
}

func (m *MockDomainService) GetDomain(ctx context.Context, result *domain.AuthResult, name string) (*domain.Domain, error) {
	args := m.Called(result, name)
	d, _ := args.Get(0).(*domain.Domain)
	return d, args.Error(1)
}

func (m *MockDomainService) ListRecords(ctx context.Context, result *domain.AuthResult, name string) ([]domain.Record, error) {
	args := m.Called(result, name)
	records, _ := args.Get(0).([]domain.Record)
	return records, args.Error(1)
}

func (m *MockDomainService) CreateRecord(ctx context.Context, result *domain.AuthResult, name string, record *domain.Record) error {
	args := m.Called(result, name, record)
	return args.Error(0)
}

func (m *MockDomainService) DeleteRecord(ctx context.Context, result *domain.AuthResult, name, recordID string) error {
	args := m.Called(result, name, recordID)
	return args.Error(0)
}

func (m *MockDomainService) HealthCheck(ctx context.Context) map[string]error {
	args := m.Called()
	checks, _ := args.Get(0).(map[string]error)
	return checks
}
