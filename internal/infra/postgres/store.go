package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/domain"
)

var _ app.Store = (*Store)(nil)

// Store keeps question sets and the config record as JSONB in Postgres. Each save is
// a single upsert statement.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool and checks that the database answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func (s *Store) LoadQuestionSet(ctx context.Context, sel domain.Selection) (domain.QuestionSet, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM question_sets WHERE level=$1 AND class_level=$2 AND subject=$3`,
		sel.Level, sel.Class, sel.Subject,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question set: %w", err)
	}
	var qs domain.QuestionSet
	if err := json.Unmarshal(raw, &qs); err != nil {
		return nil, fmt.Errorf("unmarshal question set: %w", err)
	}
	return qs, nil
}

func (s *Store) SaveQuestionSet(ctx context.Context, sel domain.Selection, questions domain.QuestionSet) error {
	raw, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO question_sets (level, class_level, subject, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (level, class_level, subject)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		sel.Level, sel.Class, sel.Subject, raw,
	)
	if err != nil {
		return fmt.Errorf("upsert question set: %w", err)
	}
	return nil
}

func (s *Store) LoadConfig(ctx context.Context) (domain.SessionConfig, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quiz_config WHERE id=1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SessionConfig{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SessionConfig{}, fmt.Errorf("load config: %w", err)
	}
	var cfg domain.SessionConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.SessionConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (s *Store) SaveConfig(ctx context.Context, cfg domain.SessionConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_config (id, data) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		raw,
	)
	if err != nil {
		return fmt.Errorf("upsert config: %w", err)
	}
	return nil
}
