package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const sampleQuestionJSON = `{
  "topic": "Animals",
  "question": "What is an example of an invertebrate?",
  "options": [{"A": "Dog"}, {"B": "Elephant"}, {"C": "Ant"}, {"D": "Cat"}],
  "correct_answer": "C",
  "correct_answer_explanation": "Ants are insects, which are a type of invertebrate."
}`

func TestQuestionUnmarshalNormalizesOptions(t *testing.T) {
	var q Question
	if err := json.Unmarshal([]byte(sampleQuestionJSON), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(q.Options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(q.Options))
	}
	want := []string{"Dog", "Elephant", "Ant", "Cat"}
	for i, opt := range q.Options {
		if opt.Label != LabelAt(i) || opt.Text != want[i] {
			t.Fatalf("option %d = %+v, want %s:%s", i, opt, LabelAt(i), want[i])
		}
	}
	if q.CorrectAnswer != "C" {
		t.Fatalf("expected correct answer C, got %q", q.CorrectAnswer)
	}
}

func TestQuestionMarshalKeepsWireShape(t *testing.T) {
	var q Question
	if err := json.Unmarshal([]byte(sampleQuestionJSON), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"options":[{"A":"Dog"},{"B":"Elephant"},{"C":"Ant"},{"D":"Cat"}]`) {
		t.Fatalf("options not encoded as ordered single-key records: %s", out)
	}
	if !strings.Contains(out, `"correct_answer":"C"`) || !strings.Contains(out, `"correct_answer_explanation"`) {
		t.Fatalf("unexpected wire encoding: %s", out)
	}
}

func TestQuestionUnmarshalRejectsMalformedOptions(t *testing.T) {
	cases := map[string]string{
		"two keys":        `{"question":"q","options":[{"A":"x","B":"y"},{"C":"z"}],"correct_answer":"A"}`,
		"gap in labels":   `{"question":"q","options":[{"A":"x"},{"C":"z"}],"correct_answer":"A"}`,
		"unknown correct": `{"question":"q","options":[{"A":"x"},{"B":"z"}],"correct_answer":"D"}`,
		"empty text":      `{"question":" ","options":[{"A":"x"},{"B":"z"}],"correct_answer":"A"}`,
	}
	for name, raw := range cases {
		var q Question
		err := json.Unmarshal([]byte(raw), &q)
		if !errors.Is(err, ErrInvalidQuestion) {
			t.Fatalf("%s: expected ErrInvalidQuestion, got %v", name, err)
		}
	}
}

func TestSessionConfigWireUsesMinutes(t *testing.T) {
	var cfg SessionConfig
	if err := json.Unmarshal([]byte(`{"enableTimer":true,"timePerQuestion":15}`), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !cfg.TimerEnabled || cfg.SecondsPerQuestion != 900 || !cfg.ShuffleEnabled {
		t.Fatalf("unexpected config %+v", cfg)
	}

	data, err := json.Marshal(DefaultSessionConfig())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"enableTimer":true,"timePerQuestion":60,"shuffleQuestions":true}` {
		t.Fatalf("unexpected default payload %s", data)
	}
}

func TestSessionConfigDisabledTimerFallsBackToDefaultDuration(t *testing.T) {
	var cfg SessionConfig
	if err := json.Unmarshal([]byte(`{"enableTimer":false,"timePerQuestion":0,"shuffleQuestions":false}`), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.TimerEnabled || cfg.ShuffleEnabled {
		t.Fatalf("expected timer and shuffle off, got %+v", cfg)
	}
	if cfg.SecondsPerQuestion != DefaultSessionConfig().SecondsPerQuestion {
		t.Fatalf("expected default duration, got %d", cfg.SecondsPerQuestion)
	}
}

func TestSessionConfigRoundTripsSubMinuteLimits(t *testing.T) {
	in := SessionConfig{TimerEnabled: true, SecondsPerQuestion: 2, ShuffleEnabled: false}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out SessionConfig
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("round trip changed config: %+v -> %+v", in, out)
	}
}

func TestSelectionValidate(t *testing.T) {
	ok := Selection{Level: "primary", Class: "basic-1", Subject: "mathematics"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid selection, got %v", err)
	}
	bad := []Selection{
		{Level: "", Class: "basic-1", Subject: "mathematics"},
		{Level: "primary", Class: "..", Subject: "mathematics"},
		{Level: "primary", Class: "basic-1", Subject: "../config"},
		{Level: "primary", Class: `a\b`, Subject: "science"},
	}
	for _, sel := range bad {
		if err := sel.Validate(); !errors.Is(err, ErrInvalidSelection) {
			t.Fatalf("expected ErrInvalidSelection for %+v, got %v", sel, err)
		}
	}
}
