package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zonekit/dnshost/internal/core/domain"
)

// PostgresRepository implements ports.CredentialStore and ports.DomainStore
// using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates and returns a new PostgresRepository instance.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const userColumns = `id, email, real_name, password_hash, permissions, disabled, disabled_reason, accept_terms, created_at, updated_at`

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var permissions []byte
	err := row.Scan(&u.ID, &u.Email, &u.RealName, &u.PasswordHash, &permissions,
		&u.Disabled, &u.DisabledReason, &u.AcceptTerms, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &u.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions for user %s: %w", u.ID, err)
		}
	}
	return &u, nil
}

func (r *PostgresRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	// Email lookups are case-insensitive.
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	permissions, err := json.Marshal(user.Permissions)
	if err != nil {
		return err
	}
	if user.Permissions == nil {
		permissions = []byte(`{}`)
	}
	query := `INSERT INTO users (id, email, real_name, password_hash, permissions, disabled, disabled_reason, accept_terms, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.ExecContext(ctx, query, user.ID, user.Email, user.RealName, user.PasswordHash,
		permissions, user.Disabled, user.DisabledReason, user.AcceptTerms, user.CreatedAt, user.UpdatedAt)
	return err
}

const apiKeyColumns = `id, user_id, key, description, domain_read, domain_write, user_read, user_write, last_used, created_at`

func scanAPIKey(row *sql.Row) (*domain.APIKey, error) {
	var k domain.APIKey
	var lastUsed sql.NullTime
	err := row.Scan(&k.ID, &k.UserID, &k.Key, &k.Description,
		&k.DomainRead, &k.DomainWrite, &k.UserRead, &k.UserWrite, &lastUsed, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		k.LastUsed = &lastUsed.Time
	}
	return &k, nil
}

func (r *PostgresRepository) GetAPIKey(ctx context.Context, id string) (*domain.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM apikeys WHERE id = $1`
	return scanAPIKey(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetAPIKeyByUserKey(ctx context.Context, userID, key string) (*domain.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM apikeys WHERE user_id = $1 AND key = $2`
	return scanAPIKey(r.db.QueryRowContext(ctx, query, userID, key))
}

func (r *PostgresRepository) ListAPIKeys(ctx context.Context, userID string) ([]domain.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM apikeys WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		var k domain.APIKey
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.UserID, &k.Key, &k.Description,
			&k.DomainRead, &k.DomainWrite, &k.UserRead, &k.UserWrite, &lastUsed, &k.CreatedAt); err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			k.LastUsed = &lastUsed.Time
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *PostgresRepository) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	query := `INSERT INTO apikeys (id, user_id, key, description, domain_read, domain_write, user_read, user_write, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, key.ID, key.UserID, key.Key, key.Description,
		key.DomainRead, key.DomainWrite, key.UserRead, key.UserWrite, key.CreatedAt)
	return err
}

func (r *PostgresRepository) DeleteAPIKey(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM apikeys WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) TouchAPIKey(ctx context.Context, id string, when time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE apikeys SET last_used = $1 WHERE id = $2`, when, id)
	return err
}

const domainKeyColumns = `id, domain_id, key, description, domain_write, last_used, created_at`

func scanDomainKey(row *sql.Row) (*domain.DomainKey, error) {
	var k domain.DomainKey
	var lastUsed sql.NullTime
	err := row.Scan(&k.ID, &k.DomainID, &k.Key, &k.Description, &k.DomainWrite, &lastUsed, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		k.LastUsed = &lastUsed.Time
	}
	return &k, nil
}

func (r *PostgresRepository) GetDomainKey(ctx context.Context, id string) (*domain.DomainKey, error) {
	query := `SELECT ` + domainKeyColumns + ` FROM domainkeys WHERE id = $1`
	return scanDomainKey(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetDomainKeyByDomainKey(ctx context.Context, domainID, key string) (*domain.DomainKey, error) {
	query := `SELECT ` + domainKeyColumns + ` FROM domainkeys WHERE domain_id = $1 AND key = $2`
	return scanDomainKey(r.db.QueryRowContext(ctx, query, domainID, key))
}

func (r *PostgresRepository) ListDomainKeys(ctx context.Context, domainID string) ([]domain.DomainKey, error) {
	query := `SELECT ` + domainKeyColumns + ` FROM domainkeys WHERE domain_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, domainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.DomainKey
	for rows.Next() {
		var k domain.DomainKey
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.DomainID, &k.Key, &k.Description, &k.DomainWrite, &lastUsed, &k.CreatedAt); err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			k.LastUsed = &lastUsed.Time
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *PostgresRepository) CreateDomainKey(ctx context.Context, key *domain.DomainKey) error {
	query := `INSERT INTO domainkeys (id, domain_id, key, description, domain_write, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, key.ID, key.DomainID, key.Key, key.Description, key.DomainWrite, key.CreatedAt)
	return err
}

func (r *PostgresRepository) DeleteDomainKey(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM domainkeys WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) TouchDomainKey(ctx context.Context, id string, when time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE domainkeys SET last_used = $1 WHERE id = $2`, when, id)
	return err
}

func (r *PostgresRepository) ListActiveTwoFactorKeys(ctx context.Context, userID string) ([]domain.TwoFactorKey, error) {
	query := `SELECT id, user_id, description, secret, active, last_used, created_at
	          FROM twofactorkeys WHERE user_id = $1 AND active = TRUE`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.TwoFactorKey
	for rows.Next() {
		var k domain.TwoFactorKey
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.UserID, &k.Description, &k.Secret, &k.Active, &lastUsed, &k.CreatedAt); err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			k.LastUsed = &lastUsed.Time
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *PostgresRepository) CreateTwoFactorKey(ctx context.Context, key *domain.TwoFactorKey) error {
	query := `INSERT INTO twofactorkeys (id, user_id, description, secret, active, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, key.ID, key.UserID, key.Description, key.Secret, key.Active, key.CreatedAt)
	return err
}

func (r *PostgresRepository) TouchTwoFactorKey(ctx context.Context, id string, when time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE twofactorkeys SET last_used = $1 WHERE id = $2`, when, id)
	return err
}

func (r *PostgresRepository) GetTwoFactorDevice(ctx context.Context, userID, deviceID string) (*domain.TwoFactorDevice, error) {
	query := `SELECT id, user_id, device_id, description, created_at, last_used
	          FROM twofactordevices WHERE user_id = $1 AND device_id = $2`
	var d domain.TwoFactorDevice
	var lastUsed sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, deviceID).
		Scan(&d.ID, &d.UserID, &d.DeviceID, &d.Description, &d.CreatedAt, &lastUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		d.LastUsed = &lastUsed.Time
	}
	return &d, nil
}

// SaveTwoFactorDevice upserts on (user_id, device_id) so concurrent saves of
// the same device collapse into one row.
func (r *PostgresRepository) SaveTwoFactorDevice(ctx context.Context, device *domain.TwoFactorDevice) error {
	query := `INSERT INTO twofactordevices (id, user_id, device_id, description, created_at, last_used)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (user_id, device_id)
	          DO UPDATE SET description = EXCLUDED.description, last_used = EXCLUDED.last_used`
	_, err := r.db.ExecContext(ctx, query, device.ID, device.UserID, device.DeviceID,
		device.Description, device.CreatedAt, device.LastUsed)
	return err
}

func (r *PostgresRepository) DeleteTwoFactorDevice(ctx context.Context, id string) error {
	// Deleting an already-deleted device is a no-op, so expiry races are safe.
	_, err := r.db.ExecContext(ctx, `DELETE FROM twofactordevices WHERE id = $1`, id)
	return err
}

const domainColumns = `id, name, owner, disabled, created_at, updated_at`

func scanDomain(row *sql.Row) (*domain.Domain, error) {
	var d domain.Domain
	var owner sql.NullString
	err := row.Scan(&d.ID, &d.Name, &owner, &d.Disabled, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.Owner = owner.String
	return &d, nil
}

func (r *PostgresRepository) GetDomain(ctx context.Context, id string) (*domain.Domain, error) {
	query := `SELECT ` + domainColumns + ` FROM domains WHERE id = $1`
	return scanDomain(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetDomainByName(ctx context.Context, name string) (*domain.Domain, error) {
	query := `SELECT ` + domainColumns + ` FROM domains WHERE LOWER(name) = LOWER($1)`
	return scanDomain(r.db.QueryRowContext(ctx, query, name))
}

func (r *PostgresRepository) ListDomainsForUser(ctx context.Context, userID string) ([]domain.Domain, error) {
	query := `SELECT ` + domainColumns + ` FROM domains WHERE owner = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []domain.Domain
	for rows.Next() {
		var d domain.Domain
		var owner sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &owner, &d.Disabled, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Owner = owner.String
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func (r *PostgresRepository) CreateDomain(ctx context.Context, d *domain.Domain) error {
	var owner any
	if d.Owner != "" {
		owner = d.Owner
	}
	query := `INSERT INTO domains (id, name, owner, disabled, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, d.ID, d.Name, owner, d.Disabled, d.CreatedAt, d.UpdatedAt)
	return err
}

func (r *PostgresRepository) ListRecords(ctx context.Context, domainID string) ([]domain.Record, error) {
	query := `SELECT id, domain_id, name, type, content, ttl, priority, changed_at
	          FROM records WHERE domain_id = $1 ORDER BY name, type`
	rows, err := r.db.QueryContext(ctx, query, domainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.Record
		var priority sql.NullInt32
		if err := rows.Scan(&rec.ID, &rec.DomainID, &rec.Name, &rec.Type, &rec.Content, &rec.TTL, &priority, &rec.ChangedAt); err != nil {
			return nil, err
		}
		if priority.Valid {
			p := int(priority.Int32)
			rec.Priority = &p
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *PostgresRepository) GetRecord(ctx context.Context, domainID, recordID string) (*domain.Record, error) {
	query := `SELECT id, domain_id, name, type, content, ttl, priority, changed_at
	          FROM records WHERE id = $1 AND domain_id = $2`
	var rec domain.Record
	var priority sql.NullInt32
	err := r.db.QueryRowContext(ctx, query, recordID, domainID).
		Scan(&rec.ID, &rec.DomainID, &rec.Name, &rec.Type, &rec.Content, &rec.TTL, &priority, &rec.ChangedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if priority.Valid {
		p := int(priority.Int32)
		rec.Priority = &p
	}
	return &rec, nil
}

func (r *PostgresRepository) CreateRecord(ctx context.Context, record *domain.Record) error {
	var priority any
	if record.Priority != nil {
		priority = *record.Priority
	}
	query := `INSERT INTO records (id, domain_id, name, type, content, ttl, priority, changed_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, record.ID, record.DomainID, record.Name,
		string(record.Type), record.Content, record.TTL, priority, record.ChangedAt)
	return err
}

func (r *PostgresRepository) DeleteRecord(ctx context.Context, domainID, recordID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1 AND domain_id = $2`, recordID, domainID)
	return err
}

// UpdateSOASerial rewrites the serial field of the domain's SOA record. A
// domain without an SOA record is left untouched.
func (r *PostgresRepository) UpdateSOASerial(ctx context.Context, domainID string, serial uint32) error {
	var id, content string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, content FROM records WHERE domain_id = $1 AND type = 'SOA'`, domainID).
		Scan(&id, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	// SOA content: "primary admin serial refresh retry expire minimum"
	fields := strings.Fields(content)
	if len(fields) != 7 {
		return fmt.Errorf("malformed SOA content for domain %s: %q", domainID, content)
	}
	fields[2] = strconv.FormatUint(uint64(serial), 10)

	_, err = r.db.ExecContext(ctx,
		`UPDATE records SET content = $1, changed_at = NOW() WHERE id = $2`,
		strings.Join(fields, " "), id)
	return err
}
