package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"stream-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ProfileLoader fetches profile data from the upstream provider.
type ProfileLoader interface {
	FetchProfile(ctx context.Context, username string) (domain.Profile, domain.StatRecord, error)
}

// ProfileCache keeps fetched profiles in Redis so every instance sharing the
// cache sees one upstream fetch per TTL window.
// Layout: HSET trivia:profile:{username} profile {json} stats {json}
type ProfileCache struct {
	client *redis.Client
	loader ProfileLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewProfileCache(client *redis.Client, loader ProfileLoader, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ProfileCache) FetchProfile(ctx context.Context, username string) (domain.Profile, domain.StatRecord, error) {
	key := c.key(username)

	if profile, stats, ok := c.readCached(ctx, key); ok {
		return profile, stats, nil
	}

	type pair struct {
		profile domain.Profile
		stats   domain.StatRecord
	}
	result, err, _ := c.sf.Do(username, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if profile, stats, ok := c.readCached(ctx, key); ok {
			return pair{profile, stats}, nil
		}

		profile, stats, err := c.loader.FetchProfile(ctx, username)
		if err != nil {
			return pair{}, err
		}

		profileJSON, err := json.Marshal(profile)
		if err != nil {
			return pair{}, fmt.Errorf("marshal profile: %w", err)
		}
		statsJSON, err := json.Marshal(stats)
		if err != nil {
			return pair{}, fmt.Errorf("marshal stats: %w", err)
		}

		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key, "profile", profileJSON, "stats", statsJSON)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return pair{profile, stats}, nil
	})
	if err != nil {
		return domain.Profile{}, domain.StatRecord{}, err
	}
	p := result.(pair)
	return p.profile, p.stats, nil
}

func (c *ProfileCache) readCached(ctx context.Context, key string) (domain.Profile, domain.StatRecord, bool) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return domain.Profile{}, domain.StatRecord{}, false
	}
	var profile domain.Profile
	var stats domain.StatRecord
	if err := json.Unmarshal([]byte(fields["profile"]), &profile); err != nil {
		return domain.Profile{}, domain.StatRecord{}, false
	}
	if err := json.Unmarshal([]byte(fields["stats"]), &stats); err != nil {
		return domain.Profile{}, domain.StatRecord{}, false
	}
	return profile, stats, true
}

func (c *ProfileCache) key(username string) string {
	return "trivia:profile:" + username
}

func (c *ProfileCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
