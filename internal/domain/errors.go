package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySet is returned when a session is started without questions.
	ErrEmptySet = errors.New("question set is empty")
	// ErrNotFound indicates no stored record matches the request.
	ErrNotFound = errors.New("not found")
	// ErrConfigUnavailable marks a configuration provider failure; callers substitute defaults.
	ErrConfigUnavailable = errors.New("configuration unavailable")
	// ErrInvalidSelection indicates a level/class/subject triple that cannot address storage.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrInvalidQuestion indicates a question record that breaks the option invariants.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrNotInProgress is returned for navigation or answers outside an active session.
	ErrNotInProgress = errors.New("session is not in progress")
	// ErrInvalidTransition is returned when a session is started twice.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrInvalidOption indicates a label that is not an option of the current question.
	ErrInvalidOption = errors.New("option not found")
	// ErrGeneratorUnavailable is returned when no question generator is configured.
	ErrGeneratorUnavailable = errors.New("question generator not configured")
)

// MalformedUpstreamResponseError is returned when the generation provider answers with
// output that is not a usable JSON question array. Raw holds the payload as received.
type MalformedUpstreamResponseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *MalformedUpstreamResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed upstream response: %s: %v", e.Reason, e.Err)
	}
	return "malformed upstream response: " + e.Reason
}

func (e *MalformedUpstreamResponseError) Unwrap() error {
	return e.Err
}
