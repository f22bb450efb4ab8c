package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/strukta/sitegate/role"
)

func newRedisStore(t *testing.T) (*RedisStore, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "sgtest")

	return store, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestRedisStoreSeedLookup(t *testing.T) {
	store, done := newRedisStore(t)
	defer done()

	ctx := context.Background()
	want := Record{Role: role.PurchaseManager, IsActive: true, CompanyID: ""}
	if err := store.Seed(ctx, "u-10", want); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	got, err := store.Lookup(ctx, "u-10")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got != want {
		t.Fatalf("record = %+v, want %+v", got, want)
	}
}

func TestRedisStoreUnknownSubject(t *testing.T) {
	store, done := newRedisStore(t)
	defer done()

	_, err := store.Lookup(context.Background(), "missing")
	if !errors.Is(err, ErrUnknownSubject) {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestRedisStoreInactiveSubject(t *testing.T) {
	store, done := newRedisStore(t)
	defer done()

	ctx := context.Background()
	if err := store.Seed(ctx, "u-11", Record{Role: role.Client, IsActive: false, CompanyID: "co-1"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	got, err := store.Lookup(ctx, "u-11")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.IsActive {
		t.Fatal("expected inactive record")
	}
	if got.CompanyID != "co-1" {
		t.Fatalf("company = %q", got.CompanyID)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "")
	mr.Close()

	_, err = store.Lookup(context.Background(), "u-1")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, ErrUnknownSubject) {
		t.Fatal("an outage must not look like a missing subject")
	}
	_ = rdb.Close()
}
