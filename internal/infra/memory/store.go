package memory

import (
	"context"
	"sync"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/domain"
)

var _ app.Store = (*Store)(nil)

// Store is an in-memory implementation of app.Store (useful for tests/demos).
type Store struct {
	mu     sync.RWMutex
	sets   map[domain.Selection]domain.QuestionSet
	config *domain.SessionConfig
}

func NewStore() *Store {
	return &Store{sets: make(map[domain.Selection]domain.QuestionSet)}
}

// NewSeededStore returns a store preloaded with the given question sets.
func NewSeededStore(sets map[domain.Selection]domain.QuestionSet) *Store {
	s := NewStore()
	for sel, qs := range sets {
		s.sets[sel] = clone(qs)
	}
	return s
}

func (s *Store) LoadQuestionSet(_ context.Context, sel domain.Selection) (domain.QuestionSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qs, ok := s.sets[sel]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(qs), nil
}

func (s *Store) SaveQuestionSet(_ context.Context, sel domain.Selection, questions domain.QuestionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[sel] = clone(questions)
	return nil
}

func (s *Store) LoadConfig(context.Context) (domain.SessionConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return domain.SessionConfig{}, domain.ErrNotFound
	}
	return *s.config, nil
}

func (s *Store) SaveConfig(_ context.Context, cfg domain.SessionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = &cfg
	return nil
}

// clone copies the set including option slices so callers cannot alias stored state.
func clone(qs domain.QuestionSet) domain.QuestionSet {
	out := make(domain.QuestionSet, len(qs))
	for i, q := range qs {
		q.Options = append([]domain.QuestionOption(nil), q.Options...)
		out[i] = q
	}
	return out
}
