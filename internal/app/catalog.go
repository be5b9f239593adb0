package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"scholarspath-quiz/internal/domain"
)

// Store abstracts where question sets and the configuration record live (disk,
// Postgres, memory, or a cache in front of one of those). Misses are domain.ErrNotFound.
type Store interface {
	LoadQuestionSet(ctx context.Context, sel domain.Selection) (domain.QuestionSet, error)
	SaveQuestionSet(ctx context.Context, sel domain.Selection, questions domain.QuestionSet) error
	LoadConfig(ctx context.Context) (domain.SessionConfig, error)
	SaveConfig(ctx context.Context, cfg domain.SessionConfig) error
}

// QuestionGenerator produces new questions, typically by calling a language model.
type QuestionGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.QuestionSet, error)
}

// Catalog is the persistence gateway: question retrieval, configuration retrieval and
// the administrative write path. It also serves as the learner-side providers when
// attempts run in-process.
type Catalog struct {
	store     Store
	generator QuestionGenerator
	log       zerolog.Logger
}

var (
	_ QuestionProvider = (*Catalog)(nil)
	_ ConfigProvider   = (*Catalog)(nil)
)

// NewCatalog wires a catalog; generator may be nil when generation is not configured.
func NewCatalog(store Store, generator QuestionGenerator, log zerolog.Logger) *Catalog {
	return &Catalog{
		store:     store,
		generator: generator,
		log:       log.With().Str("component", "catalog").Logger(),
	}
}

// SessionConfig returns the stored configuration, or the defaults when the record is
// missing or cannot be read. It never fails.
func (c *Catalog) SessionConfig(ctx context.Context) (domain.SessionConfig, error) {
	cfg, err := c.store.LoadConfig(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.log.Warn().Err(err).Msg("load config failed, serving defaults")
		}
		return domain.DefaultSessionConfig(), nil
	}
	return cfg, nil
}

// QuestionSet returns the questions stored for sel. A selection with no record, or a
// record holding no questions, is ErrNotFound.
func (c *Catalog) QuestionSet(ctx context.Context, sel domain.Selection) (domain.QuestionSet, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	questions, err := c.store.LoadQuestionSet(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrNotFound
	}
	return questions, nil
}

// SaveQuestionSet persists questions under sel, replacing any earlier set.
func (c *Catalog) SaveQuestionSet(ctx context.Context, sel domain.Selection, questions domain.QuestionSet) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	if len(questions) == 0 {
		return domain.ErrEmptySet
	}
	if err := questions.Validate(); err != nil {
		return err
	}
	if err := c.store.SaveQuestionSet(ctx, sel, questions); err != nil {
		return fmt.Errorf("save question set %s: %w", sel, err)
	}
	c.log.Info().Str("selection", sel.String()).Int("questions", len(questions)).Msg("question set saved")
	return nil
}

// SaveConfig overwrites the singleton configuration record.
func (c *Catalog) SaveConfig(ctx context.Context, cfg domain.SessionConfig) error {
	if err := c.store.SaveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Save is the admin save action: the question set first, then the configuration.
// The two writes are independent; each one is atomic.
func (c *Catalog) Save(ctx context.Context, sel domain.Selection, questions domain.QuestionSet, cfg domain.SessionConfig) error {
	if err := c.SaveQuestionSet(ctx, sel, questions); err != nil {
		return err
	}
	return c.SaveConfig(ctx, cfg)
}

// Generate asks the generator for new questions. Nothing is persisted.
func (c *Catalog) Generate(ctx context.Context, req domain.GenerationRequest) (domain.QuestionSet, error) {
	if c.generator == nil {
		return nil, domain.ErrGeneratorUnavailable
	}
	questions, err := c.generator.Generate(ctx, req)
	if err != nil {
		c.log.Error().Err(err).Str("selection", req.Selection.String()).Str("topic", req.Topic).Msg("question generation failed")
		return nil, err
	}
	return questions, nil
}
