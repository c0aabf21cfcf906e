package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/zonekit/dnshost/internal/core/domain"
)

func TestRedisSessionStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewRedisSessionStore(mr.Addr(), "", 0, time.Hour)
	ctx := context.Background()

	session := &domain.Session{
		ID:     "s1",
		UserID: "u1",
		Access: domain.AccessMap{
			domain.PermDomainsRead: true,
			domain.PermUserRead:    true,
		},
		KeyID:     "k1",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.UserID != "u1" || got.KeyID != "k1" {
		t.Errorf("Unexpected session: %+v", got)
	}
	if !got.Access[domain.PermDomainsRead] || got.Access[domain.PermDomainsWrite] {
		t.Errorf("Access map not preserved: %+v", got.Access)
	}

	// Unknown session resolves to (nil, nil), not an error.
	if s, err := store.Get(ctx, "missing"); s != nil || err != nil {
		t.Errorf("Expected (nil, nil), got (%+v, %v)", s, err)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s, _ := store.Get(ctx, "s1"); s != nil {
		t.Errorf("Expected session gone after delete, got %+v", s)
	}
}

func TestRedisSessionStore_Expiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewRedisSessionStore(mr.Addr(), "", 0, time.Minute)
	ctx := context.Background()

	if err := store.Save(ctx, &domain.Session{ID: "s1", UserID: "u1"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if s, err := store.Get(ctx, "s1"); s != nil || err != nil {
		t.Errorf("Expected expired session to vanish, got (%+v, %v)", s, err)
	}
}

func TestRedisSessionStore_Ping(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	store := NewRedisSessionStore(mr.Addr(), "", 0, 0)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
