package app

import (
	"math/rand"
	"sync"

	"scholarspath-quiz/internal/domain"
)

// Session is one learner's attempt at a question set. All methods are safe to call
// from the caller's goroutine and the countdown goroutine at the same time.
type Session struct {
	id    string
	intn  func(n int) int
	mu    sync.Mutex
	state sessionState
}

type sessionState struct {
	status    domain.Status
	questions domain.QuestionSet
	answers   []domain.Label
	current   int
	report    domain.Report
	trigger   domain.SubmitTrigger
}

// NewSession returns a session in the NotStarted state.
func NewSession(id string) *Session {
	return NewSessionWithRand(id, rand.Intn)
}

// NewSessionWithRand lets tests control the shuffle. intn must return a uniform value in [0, n).
func NewSessionWithRand(id string, intn func(n int) int) *Session {
	return &Session{
		id:    id,
		intn:  intn,
		state: sessionState{status: domain.StatusNotStarted},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start fixes the question order and moves the session to InProgress. An empty set
// fails with ErrEmptySet and leaves the session untouched.
func (s *Session) Start(questions domain.QuestionSet, shuffle bool) error {
	if len(questions) == 0 {
		return domain.ErrEmptySet
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.status != domain.StatusNotStarted {
		return domain.ErrInvalidTransition
	}

	order := make(domain.QuestionSet, len(questions))
	copy(order, questions)
	if shuffle {
		s.shuffle(order)
	}

	s.state = sessionState{
		status:    domain.StatusInProgress,
		questions: order,
		answers:   make([]domain.Label, len(order)),
		current:   0,
	}
	return nil
}

// shuffle is a Fisher-Yates permutation in place.
func (s *Session) shuffle(qs domain.QuestionSet) {
	for i := len(qs) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		qs[i], qs[j] = qs[j], qs[i]
	}
}

// SelectAnswer records label for the current question, replacing any earlier choice.
func (s *Session) SelectAnswer(label domain.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.status != domain.StatusInProgress {
		return domain.ErrNotInProgress
	}
	if !s.state.questions[s.state.current].HasOption(label) {
		return domain.ErrInvalidOption
	}
	s.state.answers[s.state.current] = label
	return nil
}

// GoNext moves forward one question; it is a no-op on the last question.
func (s *Session) GoNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.status != domain.StatusInProgress {
		return domain.ErrNotInProgress
	}
	if s.state.current < len(s.state.questions)-1 {
		s.state.current++
	}
	return nil
}

// GoPrevious moves back one question; it is a no-op on the first question.
func (s *Session) GoPrevious() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.status != domain.StatusInProgress {
		return domain.ErrNotInProgress
	}
	if s.state.current > 0 {
		s.state.current--
	}
	return nil
}

// Submit scores the session and moves it to Submitted. Only the first call performs
// the transition and returns true; later calls return the stored report and false.
// Before Start it returns an empty report and false.
func (s *Session) Submit(trigger domain.SubmitTrigger) (domain.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state.status {
	case domain.StatusSubmitted:
		return s.state.report, false
	case domain.StatusNotStarted:
		return domain.Report{}, false
	}
	s.state.report = BuildReport(s.state.questions, s.state.answers)
	s.state.trigger = trigger
	s.state.status = domain.StatusSubmitted
	return s.state.report, true
}

// Status returns the lifecycle state.
func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.status
}

// CurrentIndex returns the 0-based position of the current question.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.current
}

// Questions returns a copy of the fixed question order.
func (s *Session) Questions() domain.QuestionSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(domain.QuestionSet, len(s.state.questions))
	copy(out, s.state.questions)
	return out
}

// Answers returns a copy of the recorded answers; "" marks unanswered.
func (s *Session) Answers() []domain.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Label, len(s.state.answers))
	copy(out, s.state.answers)
	return out
}

// Report returns the stored report once the session is submitted.
func (s *Session) Report() (domain.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.report, s.state.status == domain.StatusSubmitted
}

// Trigger reports which path submitted the session ("" while not submitted).
func (s *Session) Trigger() domain.SubmitTrigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.trigger
}

// View returns a render snapshot without the answer key.
func (s *Session) View() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := domain.SessionView{
		SessionID: s.id,
		Status:    s.state.status,
		Index:     s.state.current,
		Total:     len(s.state.questions),
	}
	for _, a := range s.state.answers {
		if a != "" {
			view.Answered++
		}
	}
	if len(s.state.questions) == 0 {
		return view
	}

	q := s.state.questions[s.state.current]
	detail := &domain.QuestionDetail{
		Text:     q.Text,
		Options:  make([]domain.OptionDetail, 0, len(q.Options)),
		Selected: s.state.answers[s.state.current],
	}
	for _, opt := range q.Options {
		detail.Options = append(detail.Options, domain.OptionDetail{Label: opt.Label, Text: opt.Text})
	}
	view.Question = detail
	return view
}
