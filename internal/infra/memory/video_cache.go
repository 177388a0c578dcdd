package memory

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// VideoSearcher fetches video ids from the upstream search API.
type VideoSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// VideoCache caches search results with TTL to avoid repeated upstream calls.
type VideoCache struct {
	searcher VideoSearcher
	ttl      time.Duration
	clock    func() time.Time
	sf       singleflight.Group
	rnd      *rand.Rand
	rndMu    sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedVideos
}

type cachedVideos struct {
	ids       []string
	expiresAt time.Time
}

func NewVideoCache(searcher VideoSearcher, ttl time.Duration) *VideoCache {
	return &VideoCache{
		searcher: searcher,
		ttl:      ttl,
		clock:    time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:    make(map[string]cachedVideos),
	}
}

// Search serves cached ids for query. A ttl <= 0 disables caching.
func (c *VideoCache) Search(ctx context.Context, query string) ([]string, error) {
	if c.ttl <= 0 {
		return c.searcher.Search(ctx, query)
	}
	key := strings.ToLower(strings.TrimSpace(query))
	if ids, ok := c.lookup(key); ok {
		return ids, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if ids, ok := c.lookup(key); ok {
			return ids, nil
		}
		ids, err := c.searcher.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[key] = cachedVideos{ids: ids, expiresAt: c.clock().Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *VideoCache) lookup(key string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return entry.ids, true
}

// StaticVideoSearcher answers from a fixed map; used for demos and tests.
type StaticVideoSearcher struct {
	videos map[string][]string
}

func NewStaticVideoSearcher(videos map[string][]string) *StaticVideoSearcher {
	return &StaticVideoSearcher{videos: videos}
}

func (s *StaticVideoSearcher) Search(_ context.Context, query string) ([]string, error) {
	return s.videos[query], nil
}

func (c *VideoCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
