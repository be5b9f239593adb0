package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scholarspath-quiz/internal/domain"
)

// QuestionProvider supplies the question set for a selection.
type QuestionProvider interface {
	QuestionSet(ctx context.Context, sel domain.Selection) (domain.QuestionSet, error)
}

// ConfigProvider supplies the quiz-wide settings.
type ConfigProvider interface {
	SessionConfig(ctx context.Context) (domain.SessionConfig, error)
}

// Hooks receive attempt events. Both may be called from the countdown goroutine.
type Hooks struct {
	OnTick      func(remaining string)
	OnSubmitted func(report domain.Report, trigger domain.SubmitTrigger)
}

// Engine starts learner attempts from the two providers.
type Engine struct {
	questions QuestionProvider
	configs   ConfigProvider
	clock     Clock
	log       zerolog.Logger
}

func NewEngine(questions QuestionProvider, configs ConfigProvider, log zerolog.Logger) *Engine {
	return NewEngineWithClock(questions, configs, RealClock{}, log)
}

// NewEngineWithClock lets tests drive countdowns with simulated time.
func NewEngineWithClock(questions QuestionProvider, configs ConfigProvider, clock Clock, log zerolog.Logger) *Engine {
	return &Engine{
		questions: questions,
		configs:   configs,
		clock:     clock,
		log:       log.With().Str("component", "engine").Logger(),
	}
}

// Begin loads the questions and configuration for sel and starts an attempt. A missing
// selection or an empty set fails without creating anything; a configuration failure
// falls back to defaults. Cancelling ctx stops the countdown.
func (e *Engine) Begin(ctx context.Context, sel domain.Selection, hooks Hooks) (*Attempt, error) {
	questions, err := e.questions.QuestionSet(ctx, sel)
	if err != nil {
		return nil, err
	}

	cfg, err := e.configs.SessionConfig(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrConfigUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrConfigUnavailable, err)
		}
		e.log.Warn().Err(err).Msg("using default session config")
		cfg = domain.DefaultSessionConfig()
	}

	session := NewSession(uuid.NewString())
	if err := session.Start(questions, cfg.ShuffleEnabled); err != nil {
		return nil, err
	}

	attempt := &Attempt{
		selection: sel,
		config:    cfg,
		session:   session,
		hooks:     hooks,
		log:       e.log.With().Str("session", session.ID()).Logger(),
	}
	if cfg.TimerEnabled {
		attempt.countdown = NewCountdown(cfg.SecondsPerQuestion, e.clock)
		attempt.countdown.Start(ctx, attempt.tick, func() {
			attempt.log.Info().Msg("time is up, submitting")
			attempt.submit(domain.TriggerTimer)
		})
	}
	attempt.log.Info().
		Str("selection", sel.String()).
		Int("questions", len(questions)).
		Bool("timer", cfg.TimerEnabled).
		Bool("shuffle", cfg.ShuffleEnabled).
		Msg("attempt started")
	return attempt, nil
}

// Attempt couples a session with its countdown.
type Attempt struct {
	selection domain.Selection
	config    domain.SessionConfig
	session   *Session
	countdown *Countdown
	hooks     Hooks
	log       zerolog.Logger
}

// Select records an answer for the current question.
func (a *Attempt) Select(label domain.Label) error {
	return a.session.SelectAnswer(label)
}

// Next moves to the next question.
func (a *Attempt) Next() error {
	return a.session.GoNext()
}

// Previous moves to the previous question.
func (a *Attempt) Previous() error {
	return a.session.GoPrevious()
}

// Submit is the manual submission. It returns the report and whether this call
// performed the submission.
func (a *Attempt) Submit() (domain.Report, bool) {
	return a.submit(domain.TriggerManual)
}

func (a *Attempt) submit(trigger domain.SubmitTrigger) (domain.Report, bool) {
	report, first := a.session.Submit(trigger)
	if !first {
		return report, false
	}
	if a.countdown != nil {
		a.countdown.Stop()
	}
	a.log.Info().
		Str("trigger", string(trigger)).
		Int("score", report.Score).
		Int("total", report.Total).
		Msg("attempt submitted")
	if a.hooks.OnSubmitted != nil {
		a.hooks.OnSubmitted(report, trigger)
	}
	return report, true
}

func (a *Attempt) tick(remaining int) {
	if a.hooks.OnTick != nil {
		a.hooks.OnTick(FormatRemaining(remaining))
	}
}

// Close tears the attempt down, cancelling the countdown so it cannot submit later.
func (a *Attempt) Close() {
	if a.countdown != nil {
		a.countdown.Stop()
	}
}

// Session exposes the underlying session.
func (a *Attempt) Session() *Session {
	return a.session
}

// View returns the current render snapshot.
func (a *Attempt) View() domain.SessionView {
	return a.session.View()
}

// Config returns the settings the attempt started with.
func (a *Attempt) Config() domain.SessionConfig {
	return a.config
}

// Selection returns the level/class/subject of the attempt.
func (a *Attempt) Selection() domain.Selection {
	return a.selection
}

// Remaining returns the formatted time left, or "" when the timer is off.
func (a *Attempt) Remaining() string {
	if a.countdown == nil {
		return ""
	}
	return FormatRemaining(a.countdown.Remaining())
}

// Countdown returns the attempt's countdown, nil when the timer is off.
func (a *Attempt) Countdown() *Countdown {
	return a.countdown
}
