package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/zonekit/dnshost/internal/core/domain"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("dnshost_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432").
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("failed to open db: %s", err)
	}

	schemaPath := filepath.Join(".", "schema.sql")
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("failed to read schema: %s", err)
	}

	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %s", err)
	}

	return db, func() {
		db.Close()
		pgContainer.Terminate(ctx)
	}
}

func TestPostgresRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPostgresRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	userID := "550e8400-e29b-41d4-a716-446655440000"
	user := &domain.User{
		ID:          userID,
		Email:       "admin@example.org",
		RealName:    "Admin",
		Permissions: map[string]bool{"all": true},
		AcceptTerms: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := user.SetPassword("hunter22"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	// Case-insensitive email lookup.
	found, err := repo.GetUserByEmail(ctx, "ADMIN@Example.org")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if found == nil || found.ID != userID || !found.Permissions["all"] {
		t.Errorf("Unexpected user: %+v", found)
	}
	if !found.CheckPassword("hunter22") {
		t.Errorf("Stored password hash does not verify")
	}

	// API key round trip with touch.
	keyID := "550e8400-e29b-41d4-a716-446655440001"
	key := &domain.APIKey{
		ID: keyID, UserID: userID, Key: "api-secret",
		Description: "ci", DomainRead: true, CreatedAt: now,
	}
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}
	if err := repo.TouchAPIKey(ctx, keyID, now); err != nil {
		t.Fatalf("TouchAPIKey failed: %v", err)
	}
	stored, err := repo.GetAPIKeyByUserKey(ctx, userID, "api-secret")
	if err != nil || stored == nil {
		t.Fatalf("GetAPIKeyByUserKey failed: (%+v, %v)", stored, err)
	}
	if stored.LastUsed == nil {
		t.Errorf("Expected last_used set after touch")
	}

	// Missing credentials come back as (nil, nil), never an error.
	if k, err := repo.GetAPIKeyByUserKey(ctx, userID, "wrong"); k != nil || err != nil {
		t.Errorf("Expected (nil, nil) for unknown key, got (%+v, %v)", k, err)
	}

	// Device trust upsert: saving the same (user, device) twice keeps one row.
	device := &domain.TwoFactorDevice{
		ID: "550e8400-e29b-41d4-a716-446655440002", UserID: userID,
		DeviceID: "dev-abc", Description: "laptop", CreatedAt: now,
	}
	if err := repo.SaveTwoFactorDevice(ctx, device); err != nil {
		t.Fatalf("SaveTwoFactorDevice failed: %v", err)
	}
	device.LastUsed = &now
	device.Description = "laptop (renamed)"
	if err := repo.SaveTwoFactorDevice(ctx, device); err != nil {
		t.Fatalf("SaveTwoFactorDevice upsert failed: %v", err)
	}
	trusted, err := repo.GetTwoFactorDevice(ctx, userID, "dev-abc")
	if err != nil || trusted == nil {
		t.Fatalf("GetTwoFactorDevice failed: (%+v, %v)", trusted, err)
	}
	if trusted.Description != "laptop (renamed)" || trusted.LastUsed == nil {
		t.Errorf("Upsert did not update the row: %+v", trusted)
	}
	if err := repo.DeleteTwoFactorDevice(ctx, trusted.ID); err != nil {
		t.Fatalf("DeleteTwoFactorDevice failed: %v", err)
	}
	if d, _ := repo.GetTwoFactorDevice(ctx, userID, "dev-abc"); d != nil {
		t.Errorf("Expected device gone after delete, got %+v", d)
	}

	// Domain, records and SOA serial bump.
	domainID := "550e8400-e29b-41d4-a716-446655440003"
	dom := &domain.Domain{ID: domainID, Name: "example.org", Owner: userID, CreatedAt: now, UpdatedAt: now}
	if err := repo.CreateDomain(ctx, dom); err != nil {
		t.Fatalf("CreateDomain failed: %v", err)
	}
	if d, err := repo.GetDomainByName(ctx, "EXAMPLE.ORG"); err != nil || d == nil || d.ID != domainID {
		t.Errorf("Mixed-case domain lookup failed: (%+v, %v)", d, err)
	}

	soa := &domain.Record{
		ID: "550e8400-e29b-41d4-a716-446655440004", DomainID: domainID,
		Name: "example.org", Type: domain.TypeSOA,
		Content:   "ns1.example.org hostmaster.example.org 2025010100 10800 3600 604800 3600",
		TTL:       3600,
		ChangedAt: now,
	}
	if err := repo.CreateRecord(ctx, soa); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if err := repo.UpdateSOASerial(ctx, domainID, 2025060200); err != nil {
		t.Fatalf("UpdateSOASerial failed: %v", err)
	}
	records, err := repo.ListRecords(ctx, domainID)
	if err != nil || len(records) != 1 {
		t.Fatalf("ListRecords failed: (%d, %v)", len(records), err)
	}
	if records[0].Content != "ns1.example.org hostmaster.example.org 2025060200 10800 3600 604800 3600" {
		t.Errorf("SOA serial not bumped: %q", records[0].Content)
	}
}
