package redis

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"learnhub-service/internal/logging"
)

// VideoSearcher fetches video ids from the upstream search API.
type VideoSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// VideoCache caches search results in Redis (one list per query) and falls back
// to the searcher on a miss:  RPUSH video:search:{query} id1 id2 ...
// Empty results are not cached, and a ttl <= 0 disables caching.
type VideoCache struct {
	client   *redis.Client
	searcher VideoSearcher
	ttl      time.Duration
	sf       singleflight.Group
	log      *logging.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewVideoCache(client *redis.Client, searcher VideoSearcher, ttl time.Duration, log *logging.Logger) *VideoCache {
	return &VideoCache{
		client:   client,
		searcher: searcher,
		ttl:      ttl,
		log:      log.With("component", "video-cache"),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *VideoCache) Search(ctx context.Context, query string) ([]string, error) {
	if c.ttl <= 0 {
		return c.searcher.Search(ctx, query)
	}
	key := c.key(query)

	ids, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err == nil && len(ids) > 0 {
		return ids, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		ids, err := c.client.LRange(ctx, key, 0, -1).Result()
		if err == nil && len(ids) > 0 {
			return ids, nil
		}

		ids, err = c.searcher.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return ids, nil
		}

		values := make([]interface{}, len(ids))
		for i, id := range ids {
			values[i] = id
		}
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, values...)
		pipe.Expire(ctx, key, c.ttlWithJitter())
		if _, err := pipe.Exec(ctx); err != nil {
			c.log.Debug("cache video ids", "key", key, "err", err)
		}

		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *VideoCache) key(query string) string {
	return "video:search:" + strings.ToLower(strings.TrimSpace(query))
}

func (c *VideoCache) ttlWithJitter() time.Duration {
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
