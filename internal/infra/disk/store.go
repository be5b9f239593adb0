package disk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/domain"
)

var _ app.Store = (*Store)(nil)

// Store keeps question sets as questions/<level>/<class>/<subject>.json and the
// configuration as config.json under a base directory.
type Store struct {
	base string
}

// NewStore creates the base directory when missing.
func NewStore(base string) (*Store, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &Store{base: base}, nil
}

func (s *Store) questionPath(sel domain.Selection) string {
	return filepath.Join(s.base, "questions", sel.Level, sel.Class, sel.Subject+".json")
}

func (s *Store) configPath() string {
	return filepath.Join(s.base, "config.json")
}

func (s *Store) LoadQuestionSet(_ context.Context, sel domain.Selection) (domain.QuestionSet, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	var qs domain.QuestionSet
	if err := readJSON(s.questionPath(sel), &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// SaveQuestionSet creates the level and class directories as needed and replaces the
// subject file atomically.
func (s *Store) SaveQuestionSet(_ context.Context, sel domain.Selection, questions domain.QuestionSet) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	return writeJSON(s.questionPath(sel), questions)
}

func (s *Store) LoadConfig(context.Context) (domain.SessionConfig, error) {
	var cfg domain.SessionConfig
	if err := readJSON(s.configPath(), &cfg); err != nil {
		return domain.SessionConfig{}, err
	}
	return cfg, nil
}

func (s *Store) SaveConfig(_ context.Context, cfg domain.SessionConfig) error {
	return writeJSON(s.configPath(), cfg)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON writes to a temp file in the target directory and renames it into place,
// so readers see either the old or the new content.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
