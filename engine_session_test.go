package sitegate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/strukta/sitegate/credential"
	"github.com/strukta/sitegate/identity"
	"github.com/strukta/sitegate/role"
	"github.com/strukta/sitegate/scope"
	"github.com/strukta/sitegate/visibility"
)

// countingStore wraps a MemoryStore and counts lookups, to observe how many
// resolutions actually reach the identity store.
type countingStore struct {
	inner   *identity.MemoryStore
	lookups atomic.Uint64
}

func (s *countingStore) Lookup(ctx context.Context, subjectID string) (identity.Record, error) {
	s.lookups.Add(1)
	return s.inner.Lookup(ctx, subjectID)
}

func TestSignInSeedsCache(t *testing.T) {
	engine, store, directory := newTestEngine(t, nil)
	directory.Put(testFacts())
	store.Put("u-mgr", identity.Record{Role: role.ProjectManager, IsActive: true})

	cred, err := engine.credentials.Mint("u-mgr", role.ProjectManager, true, "", time.Minute)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	ctx := context.Background()
	sessionKey, claims, err := engine.SignIn(ctx, cred)
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if sessionKey == "" {
		t.Fatal("empty session key")
	}
	if claims.SubjectID != "u-mgr" {
		t.Fatalf("claims = %+v", claims)
	}

	// The seeded entry must be served without another resolution.
	got, err := engine.SessionClaims(ctx, sessionKey, cred)
	if err != nil {
		t.Fatalf("session claims failed: %v", err)
	}
	if got != claims {
		t.Fatalf("cached claims differ: %+v vs %+v", got, claims)
	}
	if stats := engine.CacheStats(); stats.Misses != 0 {
		t.Fatalf("misses = %d, want 0 after seeding", stats.Misses)
	}
}

func TestSignInRejectsBadCredential(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)

	_, _, err := engine.SignIn(context.Background(), "garbage")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if engine.MetricsSnapshot().Counters[MetricResolveFailure] != 1 {
		t.Fatal("resolve failure not counted")
	}
}

func TestSignOutInvalidatesSession(t *testing.T) {
	engine, _, directory := newTestEngine(t, nil)
	directory.Put(testFacts())

	cred, err := engine.credentials.Mint("u-mgr", role.ProjectManager, true, "", time.Minute)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	ctx := context.Background()
	sessionKey, _, err := engine.SignIn(ctx, cred)
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	if err := engine.SignOut(ctx, sessionKey); err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}
	if err := engine.SignOut(ctx, sessionKey); err != nil {
		t.Fatalf("sign-out must be idempotent: %v", err)
	}
	if err := engine.SignOut(ctx, ""); !errors.Is(err, ErrSessionKeyEmpty) {
		t.Fatalf("expected ErrSessionKeyEmpty, got %v", err)
	}

	// Next access resolves again from the credential.
	if _, err := engine.SessionClaims(ctx, sessionKey, cred); err != nil {
		t.Fatalf("resolve after sign-out failed: %v", err)
	}
	if stats := engine.CacheStats(); stats.Misses != 1 {
		t.Fatalf("misses = %d, want 1", stats.Misses)
	}
}

func TestConcurrentSessionMissesResolveOnce(t *testing.T) {
	counting := &countingStore{inner: identity.NewMemoryStore()}
	counting.inner.Put("u-lead", identity.Record{Role: role.TechnicalLead, IsActive: true})

	cfg := DefaultConfig()
	cfg.Credential = credential.Config{
		SigningMethod: credential.MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
	}

	directory := scope.NewMemoryDirectory()
	directory.Put(testFacts())

	engine, err := New().
		WithConfig(cfg).
		WithIdentityStore(counting).
		WithProjectDirectory(directory).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer engine.Close()

	cred, err := engine.credentials.MintReference("u-lead", time.Minute)
	if err != nil {
		t.Fatalf("mint reference failed: %v", err)
	}

	const n = 12
	results := make([]Claims, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.SessionClaims(context.Background(), "sess-shared", cred)
		}(i)
	}
	wg.Wait()

	if got := counting.lookups.Load(); got != 1 {
		t.Fatalf("identity store hit %d times, want 1", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("caller %d got %+v, caller 0 got %+v", i, results[i], results[0])
		}
	}
}

func TestAuthorizeEndToEnd(t *testing.T) {
	engine, _, directory := newTestEngine(t, nil)
	directory.Put(testFacts())

	cred, err := engine.credentials.Mint("u-ext", role.Client, true, "co-client", time.Minute)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	ctx := context.Background()
	sessionKey, _, err := engine.SignIn(ctx, cred)
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	decision, err := engine.Authorize(ctx, sessionKey, cred, ActionRead, lineItem())
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if !decision.Allow {
		t.Fatalf("client authorize denied: %+v", decision)
	}
	for _, f := range visibility.CostFields {
		if decision.VisibleFields.Has(f) {
			t.Fatalf("client view includes %s", f)
		}
	}
}
