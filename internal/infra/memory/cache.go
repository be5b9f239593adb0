package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/domain"
)

var _ app.Store = (*Cache)(nil)

// Cache keeps question sets and the config record in process with a TTL to avoid
// repeated reads of the backing store. Writes go through and invalidate.
type Cache struct {
	backend app.Store
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu     sync.RWMutex
	sets   map[domain.Selection]cachedSet
	config *cachedConfig

	// versions is bumped by every save; a load only fills the entry if the version it
	// saw before reading the backend is still current.
	versions map[string]uint64
}

type cachedSet struct {
	questions domain.QuestionSet
	expiresAt time.Time
}

type cachedConfig struct {
	config    domain.SessionConfig
	expiresAt time.Time
}

func NewCache(backend app.Store, ttl time.Duration) *Cache {
	return NewCacheWithClock(backend, ttl, time.Now)
}

// NewCacheWithClock is used by tests to control expiry.
func NewCacheWithClock(backend app.Store, ttl time.Duration, clock func() time.Time) *Cache {
	return &Cache{
		backend:  backend,
		ttl:      ttl,
		clock:    clock,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sets:     make(map[domain.Selection]cachedSet),
		versions: make(map[string]uint64),
	}
}

func (c *Cache) LoadQuestionSet(ctx context.Context, sel domain.Selection) (domain.QuestionSet, error) {
	if qs, ok := c.cachedSet(sel); ok {
		return qs, nil
	}

	key := setKey(sel)
	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if qs, ok := c.cachedSet(sel); ok {
			return qs, nil
		}
		version := c.version(key)
		// Shared by every waiter, so one caller going away must not fail the rest.
		qs, err := c.backend.LoadQuestionSet(context.WithoutCancel(ctx), sel)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.versions[key] == version {
			c.sets[sel] = cachedSet{questions: clone(qs), expiresAt: c.clock().Add(c.ttlWithJitter())}
		}
		c.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(result.(domain.QuestionSet)), nil
}

func (c *Cache) cachedSet(sel domain.Selection) (domain.QuestionSet, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.sets[sel]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return clone(entry.questions), true
}

func (c *Cache) SaveQuestionSet(ctx context.Context, sel domain.Selection, questions domain.QuestionSet) error {
	err := c.backend.SaveQuestionSet(ctx, sel, questions)
	key := setKey(sel)
	c.mu.Lock()
	delete(c.sets, sel)
	c.versions[key]++
	c.mu.Unlock()
	c.sf.Forget(key)
	return err
}

func (c *Cache) LoadConfig(ctx context.Context) (domain.SessionConfig, error) {
	now := c.clock()
	c.mu.RLock()
	if c.config != nil && c.config.expiresAt.After(now) {
		cfg := c.config.config
		c.mu.RUnlock()
		return cfg, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(configKey, func() (interface{}, error) {
		version := c.version(configKey)
		cfg, err := c.backend.LoadConfig(context.WithoutCancel(ctx))
		if err != nil {
			return domain.SessionConfig{}, err
		}
		c.mu.Lock()
		if c.versions[configKey] == version {
			c.config = &cachedConfig{config: cfg, expiresAt: c.clock().Add(c.ttlWithJitter())}
		}
		c.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return domain.SessionConfig{}, err
	}
	return result.(domain.SessionConfig), nil
}

func (c *Cache) SaveConfig(ctx context.Context, cfg domain.SessionConfig) error {
	err := c.backend.SaveConfig(ctx, cfg)
	c.mu.Lock()
	c.config = nil
	c.versions[configKey]++
	c.mu.Unlock()
	c.sf.Forget(configKey)
	return err
}

const configKey = "config"

func setKey(sel domain.Selection) string {
	return "set:" + sel.String()
}

func (c *Cache) version(key string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[key]
}

func (c *Cache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
