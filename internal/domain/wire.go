package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// questionWire is the persisted and HTTP shape of a question. Options are an ordered
// list of single-key records ({"A": "..."}), order being display order.
type questionWire struct {
	Question      string              `json:"question"`
	Options       []map[string]string `json:"options"`
	CorrectAnswer string              `json:"correct_answer"`
	Explanation   string              `json:"correct_answer_explanation"`
}

// MarshalJSON encodes the question in its wire shape.
func (q Question) MarshalJSON() ([]byte, error) {
	wire := questionWire{
		Question:      q.Text,
		Options:       make([]map[string]string, 0, len(q.Options)),
		CorrectAnswer: string(q.CorrectAnswer),
		Explanation:   q.Explanation,
	}
	for _, opt := range q.Options {
		wire.Options = append(wire.Options, map[string]string{string(opt.Label): opt.Text})
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the wire shape and normalizes it into ordered options.
// The result must satisfy Validate.
func (q *Question) UnmarshalJSON(data []byte) error {
	var wire questionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	decoded := Question{
		Text:          wire.Question,
		Options:       make([]QuestionOption, 0, len(wire.Options)),
		CorrectAnswer: Label(strings.ToUpper(strings.TrimSpace(wire.CorrectAnswer))),
		Explanation:   wire.Explanation,
	}
	for i, record := range wire.Options {
		if len(record) != 1 {
			return fmt.Errorf("%w: option %d has %d keys, want exactly one", ErrInvalidQuestion, i, len(record))
		}
		for label, text := range record {
			decoded.Options = append(decoded.Options, QuestionOption{
				Label: Label(strings.ToUpper(strings.TrimSpace(label))),
				Text:  text,
			})
		}
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*q = decoded
	return nil
}

// sessionConfigWire is the /config payload. TimePerQuestion is in minutes and, despite
// its name, covers the whole attempt.
type sessionConfigWire struct {
	EnableTimer      bool    `json:"enableTimer"`
	TimePerQuestion  float64 `json:"timePerQuestion"`
	ShuffleQuestions *bool   `json:"shuffleQuestions,omitempty"`
}

// MarshalJSON encodes the config in its wire shape using minutes.
func (c SessionConfig) MarshalJSON() ([]byte, error) {
	shuffle := c.ShuffleEnabled
	return json.Marshal(sessionConfigWire{
		EnableTimer:      c.TimerEnabled,
		TimePerQuestion:  float64(c.SecondsPerQuestion) / 60,
		ShuffleQuestions: &shuffle,
	})
}

// UnmarshalJSON decodes the wire shape. A missing shuffle flag defaults to true and a
// non-positive time limit falls back to the default duration.
func (c *SessionConfig) UnmarshalJSON(data []byte) error {
	var wire sessionConfigWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*c = SessionConfigFromWire(wire.EnableTimer, wire.TimePerQuestion, wire.ShuffleQuestions)
	return nil
}

// SessionConfigFromWire builds a config from wire fields, applying the same defaults
// as UnmarshalJSON.
func SessionConfigFromWire(enableTimer bool, minutes float64, shuffle *bool) SessionConfig {
	def := DefaultSessionConfig()
	cfg := SessionConfig{
		TimerEnabled:       enableTimer,
		SecondsPerQuestion: MinutesToSeconds(minutes),
		ShuffleEnabled:     def.ShuffleEnabled,
	}
	if cfg.SecondsPerQuestion <= 0 {
		cfg.SecondsPerQuestion = def.SecondsPerQuestion
	}
	if shuffle != nil {
		cfg.ShuffleEnabled = *shuffle
	}
	return cfg
}

// MinutesToSeconds converts a wire time limit to whole seconds.
func MinutesToSeconds(minutes float64) int {
	if minutes <= 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return 0
	}
	return int(math.Round(minutes * 60))
}
