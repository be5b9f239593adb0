package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/config"
	"scholarspath-quiz/internal/domain"
	"scholarspath-quiz/internal/infra/disk"
	"scholarspath-quiz/internal/infra/llm"
	"scholarspath-quiz/internal/infra/memory"
	"scholarspath-quiz/internal/infra/postgres"
	infraredis "scholarspath-quiz/internal/infra/redis"
	transport "scholarspath-quiz/internal/transport/http"
)

// backend is everything built from the storage, redis and generator sections.
type backend struct {
	store     app.Store
	presence  transport.Presence
	generator app.QuestionGenerator
	closers   []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func buildBackend(ctx context.Context, cfg config.Config, log zerolog.Logger) (*backend, error) {
	b := &backend{}

	var base app.Store
	switch cfg.Storage.Driver {
	case "", "memory":
		base = memory.NewStore()
	case "disk":
		store, err := disk.NewStore(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("open disk store: %w", err)
		}
		base = store
	case "postgres":
		if _, err := postgres.Migrate(ctx, cfg.Postgres.URL); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		base = postgres.NewStore(pool)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	b.store = base
	b.presence = memory.NewPresence()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.store = infraredis.NewCache(client, base, config.TTLDuration(cfg.Redis.TTL, quizTTL), log)
		b.presence = infraredis.NewPresence(client, config.TTLDuration(cfg.Redis.PresenceTTL, 2*time.Hour))
	} else if cfg.Storage.Driver != "" && cfg.Storage.Driver != "memory" {
		b.store = memory.NewCache(base, quizTTL)
	}

	if cfg.Generator.URL != "" {
		b.generator = llm.NewGenerator(cfg.Generator.URL, cfg.Generator.Model, cfg.Generator.APIKey,
			config.TTLDuration(cfg.Generator.Timeout, 120*time.Second))
	}

	log.Info().
		Str("storage", cfg.Storage.Driver).
		Bool("redis", cfg.Redis.Addr != "").
		Bool("generator", b.generator != nil).
		Msg("backend ready")
	return b, nil
}

// seedSamples stores the sample sets that are not already present.
func seedSamples(ctx context.Context, catalog *app.Catalog, store app.Store) (int, error) {
	seeded := 0
	for sel, questions := range sampleQuestionSets() {
		_, err := store.LoadQuestionSet(ctx, sel)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return seeded, err
		}
		if err := catalog.SaveQuestionSet(ctx, sel, questions); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}
