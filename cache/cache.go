package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/strukta/sitegate/identity"
)

// ResolveFunc performs the underlying credential resolution for a cache
// miss or a background refresh.
type ResolveFunc func(ctx context.Context, credential string) (identity.Claims, error)

// Config controls entry lifetime and sizing.
type Config struct {
	// TTL is the lifetime of a cached Claims entry.
	TTL time.Duration
	// RefreshAhead is how long before expiry a served entry triggers a
	// background refresh. Zero selects TTL/4.
	RefreshAhead time.Duration
	// MaxEntries bounds the cache; the least recently used entry is evicted
	// beyond it. Zero selects 4096.
	MaxEntries int
}

func (c *Config) withDefaults() error {
	if c.TTL <= 0 {
		return errors.New("cache TTL must be positive")
	}
	if c.RefreshAhead == 0 {
		c.RefreshAhead = c.TTL / 4
	}
	if c.RefreshAhead < 0 || c.RefreshAhead >= c.TTL {
		return errors.New("RefreshAhead must be shorter than TTL")
	}
	if c.MaxEntries == 0 {
		c.MaxEntries = 4096
	}
	if c.MaxEntries < 0 {
		return errors.New("MaxEntries must not be negative")
	}
	return nil
}

type entry struct {
	claims    identity.Claims
	fetchedAt time.Time
	refreshAt time.Time
	expiresAt time.Time
}

// flight tracks the resolutions currently in flight for one session key.
// gen is bumped by Invalidate and Set; a resolution that began under an
// older gen must not install its result.
type flight struct {
	gen    uint64
	active int
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits             uint64
	Misses           uint64
	Merged           uint64
	Refreshes        uint64
	RefreshFailures  uint64
	InvalidatedCount uint64
}

// Store is the per-session claims cache.
//
// Entries are replaced wholesale, never mutated in place. At most one
// resolution is in flight per session key: concurrent misses and background
// refreshes share the same single-flight handle, and a failed resolution is
// never cached, so the next caller retries immediately. An Invalidate or Set
// that lands while a resolution is in flight wins: the flight's result still
// reaches its callers but is never installed.
type Store struct {
	cfg     Config
	resolve ResolveFunc
	logger  *zap.Logger

	entries *lru.LRU[string, entry]
	group   singleflight.Group

	// flightMu guards flights and orders entry installs against Invalidate
	// and Set, so a resolution that was in flight when either ran cannot
	// re-install the session it raced with.
	flightMu sync.Mutex
	flights  map[string]*flight

	// injectable for tests
	now func() time.Time

	hits         atomic.Uint64
	misses       atomic.Uint64
	merged       atomic.Uint64
	refreshes    atomic.Uint64
	refreshFails atomic.Uint64
	invalidated  atomic.Uint64
}

// NewStore returns a Store. resolve is required; logger may be nil.
func NewStore(cfg Config, resolve ResolveFunc, logger *zap.Logger) (*Store, error) {
	if resolve == nil {
		return nil, errors.New("resolve func required")
	}
	if err := cfg.withDefaults(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		cfg:     cfg,
		resolve: resolve,
		logger:  logger,
		// The LRU's own TTL eviction runs on wall time; correctness does not
		// depend on it because every read re-checks expiresAt.
		entries: lru.NewLRU[string, entry](cfg.MaxEntries, nil, cfg.TTL),
		flights: make(map[string]*flight),
		now:     time.Now,
	}, nil
}

// GetOrResolve returns the cached Claims for sessionKey, resolving the
// credential on a miss. An entry past its expiry is treated as absent. An
// entry past its refresh threshold is still served, but a background
// refresh starts for it; the triggering caller never blocks on it.
func (s *Store) GetOrResolve(ctx context.Context, sessionKey, credential string) (identity.Claims, error) {
	now := s.now()

	if e, ok := s.entries.Get(sessionKey); ok {
		if now.Before(e.expiresAt) {
			s.hits.Add(1)
			if !now.Before(e.refreshAt) {
				s.refreshInBackground(ctx, sessionKey, credential)
			}
			return e.claims, nil
		}
		s.entries.Remove(sessionKey)
	}

	s.misses.Add(1)
	gen := s.beginFlight(sessionKey)
	v, err, shared := s.group.Do(sessionKey, func() (interface{}, error) {
		claims, err := s.resolve(ctx, credential)
		if err != nil {
			return nil, err
		}
		s.installIfCurrent(sessionKey, claims, gen)
		return claims, nil
	})
	s.endFlight(sessionKey)
	if shared {
		s.merged.Add(1)
	}
	if err != nil {
		return identity.Claims{}, err
	}
	return v.(identity.Claims), nil
}

// Set seeds the cache with freshly resolved claims, typically right after a
// successful sign-in. It supersedes any previous entry for the key and any
// resolution still in flight for it.
func (s *Store) Set(sessionKey string, claims identity.Claims) {
	s.flightMu.Lock()
	if f := s.flights[sessionKey]; f != nil {
		f.gen++
	}
	s.installLocked(sessionKey, claims)
	s.flightMu.Unlock()
}

// Invalidate removes the entry for sessionKey, detaches future callers from
// any resolution still in flight for it, and marks those in-flight
// resolutions stale so their results are discarded rather than re-installed.
// Idempotent.
func (s *Store) Invalidate(sessionKey string) {
	s.group.Forget(sessionKey)

	s.flightMu.Lock()
	if f := s.flights[sessionKey]; f != nil {
		f.gen++
	}
	removed := s.entries.Remove(sessionKey)
	s.flightMu.Unlock()

	if removed {
		s.invalidated.Add(1)
	}
}

// Peek reports whether a live (unexpired) entry exists without touching
// recency, counters, or the refresh threshold.
func (s *Store) Peek(sessionKey string) (identity.Claims, bool) {
	e, ok := s.entries.Peek(sessionKey)
	if !ok || !s.now().Before(e.expiresAt) {
		return identity.Claims{}, false
	}
	return e.claims, true
}

// Stats returns a snapshot of the cache counters.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:             s.hits.Load(),
		Misses:           s.misses.Load(),
		Merged:           s.merged.Load(),
		Refreshes:        s.refreshes.Load(),
		RefreshFailures:  s.refreshFails.Load(),
		InvalidatedCount: s.invalidated.Load(),
	}
}

// beginFlight registers a resolution in flight for sessionKey and returns
// the generation it runs under.
func (s *Store) beginFlight(sessionKey string) uint64 {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()

	f := s.flights[sessionKey]
	if f == nil {
		f = &flight{}
		s.flights[sessionKey] = f
	}
	f.active++
	return f.gen
}

func (s *Store) endFlight(sessionKey string) {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()

	f := s.flights[sessionKey]
	if f == nil {
		return
	}
	f.active--
	if f.active <= 0 {
		delete(s.flights, sessionKey)
	}
}

// installIfCurrent installs the resolved claims unless an Invalidate or Set
// superseded the flight that produced them.
func (s *Store) installIfCurrent(sessionKey string, claims identity.Claims, gen uint64) {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()

	if f := s.flights[sessionKey]; f != nil && f.gen != gen {
		return
	}
	s.installLocked(sessionKey, claims)
}

func (s *Store) installLocked(sessionKey string, claims identity.Claims) {
	now := s.now()
	s.entries.Add(sessionKey, entry{
		claims:    claims,
		fetchedAt: now,
		refreshAt: now.Add(s.cfg.TTL - s.cfg.RefreshAhead),
		expiresAt: now.Add(s.cfg.TTL),
	})
}

// refreshInBackground starts (or joins) the single in-flight resolution for
// sessionKey and returns immediately. The refresh outlives the triggering
// request; its failure is logged and the previous entry is retained, since
// the caller already got a valid answer. The counters live inside the
// single-flight function so they count resolutions, not triggering callers.
func (s *Store) refreshInBackground(ctx context.Context, sessionKey, credential string) {
	bg := context.WithoutCancel(ctx)

	gen := s.beginFlight(sessionKey)
	ch := s.group.DoChan(sessionKey, func() (interface{}, error) {
		claims, err := s.resolve(bg, credential)
		if err != nil {
			s.refreshFails.Add(1)
			s.logger.Warn("background claims refresh failed, keeping previous entry",
				zap.String("session_key", sessionKey),
				zap.Error(err),
			)
			return nil, err
		}
		s.installIfCurrent(sessionKey, claims, gen)
		s.refreshes.Add(1)
		return claims, nil
	})

	go func() {
		<-ch
		s.endFlight(sessionKey)
	}()
}
