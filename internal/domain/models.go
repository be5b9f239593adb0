package domain

import (
	"fmt"
	"strings"
)

// Label identifies an answer option ("A", "B", ...). The empty label means unanswered.
type Label string

// LabelAt returns the label for the i-th option (0 -> "A").
func LabelAt(i int) Label {
	return Label(string(rune('A' + i)))
}

// QuestionOption is one labelled answer choice.
type QuestionOption struct {
	Label Label
	Text  string
}

// Question is a multiple-choice question. Its id is its index within a QuestionSet.
type Question struct {
	Text          string
	Options       []QuestionOption
	CorrectAnswer Label
	Explanation   string
}

// HasOption reports whether label is one of the question's option labels.
func (q Question) HasOption(label Label) bool {
	for _, opt := range q.Options {
		if opt.Label == label {
			return true
		}
	}
	return false
}

// Validate checks that options are labelled densely from A and that the correct
// answer names one of them.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty question text", ErrInvalidQuestion)
	}
	if len(q.Options) < 2 || len(q.Options) > 26 {
		return fmt.Errorf("%w: expected between 2 and 26 options, got %d", ErrInvalidQuestion, len(q.Options))
	}
	for i, opt := range q.Options {
		if opt.Label != LabelAt(i) {
			return fmt.Errorf("%w: option %d labelled %q, want %q", ErrInvalidQuestion, i, opt.Label, LabelAt(i))
		}
	}
	if !q.HasOption(q.CorrectAnswer) {
		return fmt.Errorf("%w: correct answer %q is not an option", ErrInvalidQuestion, q.CorrectAnswer)
	}
	return nil
}

// QuestionSet is the ordered list of questions for one selection.
type QuestionSet []Question

// Validate validates every question and names the first failing index.
func (qs QuestionSet) Validate() error {
	for i, q := range qs {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// Selection scopes a question set by level, class and subject.
type Selection struct {
	Level   string `json:"level"`
	Class   string `json:"classLevel"`
	Subject string `json:"subject"`
}

// Validate rejects empty parts and parts that are not a single safe path segment.
func (s Selection) Validate() error {
	parts := []struct{ name, value string }{
		{"level", s.Level},
		{"class", s.Class},
		{"subject", s.Subject},
	}
	for _, part := range parts {
		if part.value == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidSelection, part.name)
		}
		if strings.HasPrefix(part.value, ".") || strings.ContainsAny(part.value, `/\`) {
			return fmt.Errorf("%w: invalid %s %q", ErrInvalidSelection, part.name, part.value)
		}
	}
	return nil
}

func (s Selection) String() string {
	return s.Level + "/" + s.Class + "/" + s.Subject
}

// SessionConfig holds the quiz-wide settings read once per attempt.
// SecondsPerQuestion is the budget for the whole attempt, not per question.
type SessionConfig struct {
	TimerEnabled       bool
	SecondsPerQuestion int
	ShuffleEnabled     bool
}

const (
	// DefaultTimeLimitMinutes is the wire value used when no configuration is stored.
	DefaultTimeLimitMinutes = 60
)

// DefaultSessionConfig is used whenever the configuration provider is unavailable.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TimerEnabled:       true,
		SecondsPerQuestion: DefaultTimeLimitMinutes * 60,
		ShuffleEnabled:     true,
	}
}

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

// SubmitTrigger records which path submitted a session.
type SubmitTrigger string

const (
	TriggerManual SubmitTrigger = "manual"
	TriggerTimer  SubmitTrigger = "timer"
)

// Tier is a qualitative feedback band keyed by percentage.
type Tier string

const (
	TierFlawless       Tier = "flawless"
	TierExcellent      Tier = "excellent"
	TierGood           Tier = "good"
	TierKeepPracticing Tier = "keep practicing"
)

// Message is the learner-facing feedback line for the tier.
func (t Tier) Message() string {
	switch t {
	case TierFlawless:
		return "Flawless! You got every question right."
	case TierExcellent:
		return "Excellent work!"
	case TierGood:
		return "Good job, a little more practice and you'll ace it."
	default:
		return "Keep practicing, you'll get there."
	}
}

// ReviewEntry is the per-question part of a report.
type ReviewEntry struct {
	Index         int    `json:"index"`
	Question      string `json:"question"`
	UserAnswer    Label  `json:"userAnswer,omitempty"`
	CorrectAnswer Label  `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	Explanation   string `json:"explanation"`
}

// Report is the read-only result of a submitted session.
type Report struct {
	Score      int           `json:"score"`
	Total      int           `json:"total"`
	Percentage float64       `json:"percentage"`
	Tier       Tier          `json:"tier"`
	Entries    []ReviewEntry `json:"entries"`
}

// SessionView is a snapshot of a session for rendering.
type SessionView struct {
	SessionID string          `json:"sessionId"`
	Status    Status          `json:"status"`
	Index     int             `json:"index"`
	Total     int             `json:"total"`
	Answered  int             `json:"answered"`
	Question  *QuestionDetail `json:"question,omitempty"`
}

// QuestionDetail is the current question as shown to the learner; it omits the answer key.
type QuestionDetail struct {
	Text     string         `json:"text"`
	Options  []OptionDetail `json:"options"`
	Selected Label          `json:"selected,omitempty"`
}

// OptionDetail is one option in a QuestionDetail.
type OptionDetail struct {
	Label Label  `json:"label"`
	Text  string `json:"text"`
}

// GenerationRequest asks the generation provider for a batch of questions.
type GenerationRequest struct {
	Selection
	Topic string
	Count int
}
