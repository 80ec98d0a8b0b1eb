package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"stream-trivia-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ProfileLoader fetches profile data from the upstream provider.
type ProfileLoader interface {
	FetchProfile(ctx context.Context, username string) (domain.Profile, domain.StatRecord, error)
}

// ProfileCache caches profile fetches with TTL so repeated rounds on the same
// subject do not re-hit the provider.
type ProfileCache struct {
	loader ProfileLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedProfile
}

type cachedProfile struct {
	profile   domain.Profile
	stats     domain.StatRecord
	expiresAt time.Time
}

func NewProfileCache(loader ProfileLoader, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedProfile),
	}
}

func (c *ProfileCache) FetchProfile(ctx context.Context, username string) (domain.Profile, domain.StatRecord, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[username]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.profile, entry.stats, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(username, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[username]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry, nil
		}
		c.mu.RUnlock()

		profile, stats, err := c.loader.FetchProfile(ctx, username)
		if err != nil {
			return cachedProfile{}, err
		}

		entry := cachedProfile{
			profile:   profile,
			stats:     stats,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Lock()
		c.cache[username] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return domain.Profile{}, domain.StatRecord{}, err
	}
	entry := result.(cachedProfile)
	return entry.profile, entry.stats, nil
}

func (c *ProfileCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticProfileLoader is a loader backed by fixed data (useful for tests/demos).
type StaticProfileLoader struct {
	profiles map[string]domain.Profile
	stats    map[string]domain.StatRecord
}

func NewStaticProfileLoader(profiles map[string]domain.Profile, stats map[string]domain.StatRecord) *StaticProfileLoader {
	return &StaticProfileLoader{profiles: profiles, stats: stats}
}

func (l *StaticProfileLoader) FetchProfile(_ context.Context, username string) (domain.Profile, domain.StatRecord, error) {
	profile, ok := l.profiles[username]
	if !ok {
		return domain.Profile{}, domain.StatRecord{}, domain.ErrProfileNotFound
	}
	return profile, l.stats[username], nil
}
