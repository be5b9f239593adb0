package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/domain"
)

var _ app.Store = (*Cache)(nil)

const configKey = "quiz:config"

// Cache stores question sets and the config record in Redis as JSON strings and falls
// back to the backing store on a miss. Values are written as:
//
//	SET quiz:questions:{level}:{class}:{subject} <question set json> EX ttl
//	SET quiz:config <config json> EX ttl
//
// Writes go to the backing store first, then bump {key}:gen and delete the cached key
// in one transaction. A fill is only written while {key}:gen still holds the value read
// before the backend load, so a load that raced a save cannot put the old value back.
type Cache struct {
	client  *redis.Client
	backend app.Store
	ttl     time.Duration
	sf      singleflight.Group
	log     zerolog.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewCache(client *redis.Client, backend app.Store, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		client:  client,
		backend: backend,
		ttl:     ttl,
		log:     log.With().Str("component", "redis_cache").Logger(),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Cache) LoadQuestionSet(ctx context.Context, sel domain.Selection) (domain.QuestionSet, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	key := questionsKey(sel)
	var qs domain.QuestionSet
	if c.get(ctx, key, &qs) {
		return qs, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Shared by every waiter, so one caller going away must not fail the rest.
		ctx := context.WithoutCancel(ctx)
		// Re-check cache in case another goroutine filled it.
		var cached domain.QuestionSet
		if c.get(ctx, key, &cached) {
			return cached, nil
		}
		gen, genOK := c.generation(ctx, key)
		loaded, err := c.backend.LoadQuestionSet(ctx, sel)
		if err != nil {
			return nil, err
		}
		if genOK {
			c.fill(ctx, key, gen, loaded)
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(domain.QuestionSet), nil
}

func (c *Cache) SaveQuestionSet(ctx context.Context, sel domain.Selection, questions domain.QuestionSet) error {
	if err := c.backend.SaveQuestionSet(ctx, sel, questions); err != nil {
		return err
	}
	c.invalidate(ctx, questionsKey(sel))
	return nil
}

func (c *Cache) LoadConfig(ctx context.Context) (domain.SessionConfig, error) {
	var cfg domain.SessionConfig
	if c.get(ctx, configKey, &cfg) {
		return cfg, nil
	}

	result, err, _ := c.sf.Do(configKey, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		var cached domain.SessionConfig
		if c.get(ctx, configKey, &cached) {
			return cached, nil
		}
		gen, genOK := c.generation(ctx, configKey)
		loaded, err := c.backend.LoadConfig(ctx)
		if err != nil {
			return nil, err
		}
		if genOK {
			c.fill(ctx, configKey, gen, loaded)
		}
		return loaded, nil
	})
	if err != nil {
		return domain.SessionConfig{}, err
	}
	return result.(domain.SessionConfig), nil
}

func (c *Cache) SaveConfig(ctx context.Context, cfg domain.SessionConfig) error {
	if err := c.backend.SaveConfig(ctx, cfg); err != nil {
		return err
	}
	c.invalidate(ctx, configKey)
	return nil
}

// get reports a usable hit. Redis errors and undecodable values count as misses.
func (c *Cache) get(ctx context.Context, key string, v any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// generation reads {key}:gen; a missing counter is "". ok is false when Redis could
// not be read, in which case the fill is skipped.
func (c *Cache) generation(ctx context.Context, key string) (string, bool) {
	gen, err := c.client.Get(ctx, generationKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", true
	}
	if err != nil {
		return "", false
	}
	return gen, true
}

// fill is best effort; a failed or skipped write only costs a later miss.
func (c *Cache) fill(ctx context.Context, key, gen string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	genKey := generationKey(key)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttlWithJitter())
			return nil
		})
		return err
	}, genKey)
	if err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("cache fill skipped")
	}
}

// invalidate runs after a successful backend write, so failures are logged rather
// than returned; the stale value then lives until its TTL.
func (c *Cache) invalidate(ctx context.Context, key string) {
	c.sf.Forget(key)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(key))
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
	}
}

func generationKey(key string) string {
	return key + ":gen"
}

func questionsKey(sel domain.Selection) string {
	return "quiz:questions:" + sel.Level + ":" + sel.Class + ":" + sel.Subject
}

func (c *Cache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
