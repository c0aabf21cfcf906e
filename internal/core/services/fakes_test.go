package services

import (
	"context"
	"time"

	"github.com/zonekit/dnshost/internal/core/domain"
)

// fakeStore is an in-memory CredentialStore, DomainStore and SessionStore
// used by the service tests. failWith makes every call fail, simulating an
// unreachable store.
type fakeStore struct {
	users      map[string]*domain.User
	apiKeys    map[string]*domain.APIKey
	domainKeys map[string]*domain.DomainKey
	tfKeys     map[string]*domain.TwoFactorKey
	devices    map[string]*domain.TwoFactorDevice
	domains    map[string]*domain.Domain
	records    map[string]*domain.Record
	sessions   map[string]*domain.Session

	touchedAPIKeys    []string
	touchedDomainKeys []string
	touchedTFKeys     []string
	deletedDevices    []string
	savedDevices      []string

	failWith      error
	failDeviceSave error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[string]*domain.User{},
		apiKeys:    map[string]*domain.APIKey{},
		domainKeys: map[string]*domain.DomainKey{},
		tfKeys:     map[string]*domain.TwoFactorKey{},
		devices:    map[string]*domain.TwoFactorDevice{},
		domains:    map[string]*domain.Domain{},
		records:    map[string]*domain.Record{},
		sessions:   map[string]*domain.Session{},
	}
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.users[id], nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if domain.NormalizeEmail(u.Email) == domain.NormalizeEmail(email) {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user *domain.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetAPIKey(_ context.Context, id string) (*domain.APIKey, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.apiKeys[id], nil
}

func (f *fakeStore) GetAPIKeyByUserKey(_ context.Context, userID, key string) (*domain.APIKey, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, k := range f.apiKeys {
		if k.UserID == userID && k.Key == key {
			return k, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListAPIKeys(_ context.Context, userID string) ([]domain.APIKey, error) {
	var out []domain.APIKey
	for _, k := range f.apiKeys {
		if k.UserID == userID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateAPIKey(_ context.Context, key *domain.APIKey) error {
	f.apiKeys[key.ID] = key
	return nil
}

func (f *fakeStore) DeleteAPIKey(_ context.Context, id string) error {
	delete(f.apiKeys, id)
	return nil
}

func (f *fakeStore) TouchAPIKey(_ context.Context, id string, when time.Time) error {
	f.touchedAPIKeys = append(f.touchedAPIKeys, id)
	if k := f.apiKeys[id]; k != nil {
		k.LastUsed = &when
	}
	return nil
}

func (f *fakeStore) GetDomainKey(_ context.Context, id string) (*domain.DomainKey, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.domainKeys[id], nil
}

func (f *fakeStore) GetDomainKeyByDomainKey(_ context.Context, domainID, key string) (*domain.DomainKey, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, k := range f.domainKeys {
		if k.DomainID == domainID && k.Key == key {
			return k, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListDomainKeys(_ context.Context, domainID string) ([]domain.DomainKey, error) {
	var out []domain.DomainKey
	for _, k := range f.domainKeys {
		if k.DomainID == domainID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateDomainKey(_ context.Context, key *domain.DomainKey) error {
	f.domainKeys[key.ID] = key
	return nil
}

func (f *fakeStore) DeleteDomainKey(_ context.Context, id string) error {
	delete(f.domainKeys, id)
	return nil
}

func (f *fakeStore) TouchDomainKey(_ context.Context, id string, when time.Time) error {
	f.touchedDomainKeys = append(f.touchedDomainKeys, id)
	if k := f.domainKeys[id]; k != nil {
		k.LastUsed = &when
	}
	return nil
}

func (f *fakeStore) ListActiveTwoFactorKeys(_ context.Context, userID string) ([]domain.TwoFactorKey, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []domain.TwoFactorKey
	for _, k := range f.tfKeys {
		if k.UserID == userID && k.Active {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateTwoFactorKey(_ context.Context, key *domain.TwoFactorKey) error {
	f.tfKeys[key.ID] = key
	return nil
}

func (f *fakeStore) TouchTwoFactorKey(_ context.Context, id string, when time.Time) error {
	f.touchedTFKeys = append(f.touchedTFKeys, id)
	if k := f.tfKeys[id]; k != nil {
		k.LastUsed = &when
	}
	return nil
}

func (f *fakeStore) GetTwoFactorDevice(_ context.Context, userID, deviceID string) (*domain.TwoFactorDevice, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, d := range f.devices {
		if d.UserID == userID && d.DeviceID == deviceID {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SaveTwoFactorDevice(_ context.Context, device *domain.TwoFactorDevice) error {
	if f.failDeviceSave != nil {
		return f.failDeviceSave
	}
	f.savedDevices = append(f.savedDevices, device.DeviceID)
	f.devices[device.ID] = device
	return nil
}

func (f *fakeStore) DeleteTwoFactorDevice(_ context.Context, id string) error {
	f.deletedDevices = append(f.deletedDevices, id)
	delete(f.devices, id)
	return nil
}

func (f *fakeStore) Ping(_ context.Context) error { return f.failWith }

func (f *fakeStore) GetDomain(_ context.Context, id string) (*domain.Domain, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.domains[id], nil
}

func (f *fakeStore) GetDomainByName(_ context.Context, name string) (*domain.Domain, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, d := range f.domains {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListDomainsForUser(_ context.Context, userID string) ([]domain.Domain, error) {
	var out []domain.Domain
	for _, d := range f.domains {
		if d.Owner == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateDomain(_ context.Context, d *domain.Domain) error {
	f.domains[d.ID] = d
	return nil
}

func (f *fakeStore) ListRecords(_ context.Context, domainID string) ([]domain.Record, error) {
	var out []domain.Record
	for _, r := range f.records {
		if r.DomainID == domainID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetRecord(_ context.Context, domainID, recordID string) (*domain.Record, error) {
	r := f.records[recordID]
	if r == nil || r.DomainID != domainID {
		return nil, nil
	}
	return r, nil
}

func (f *fakeStore) CreateRecord(_ context.Context, record *domain.Record) error {
	f.records[record.ID] = record
	return nil
}

func (f *fakeStore) DeleteRecord(_ context.Context, domainID, recordID string) error {
	if r := f.records[recordID]; r != nil && r.DomainID == domainID {
		delete(f.records, recordID)
	}
	return nil
}

func (f *fakeStore) UpdateSOASerial(_ context.Context, domainID string, serial uint32) error {
	return nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*domain.Session, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.sessions[id], nil
}

func (f *fakeStore) Save(_ context.Context, session *domain.Session) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}
