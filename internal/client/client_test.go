package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scholarspath-quiz/internal/domain"
)

var testSelection = domain.Selection{Level: "jhs", Class: "basic-8-(jhs-2)", Subject: "social-studies"}

func TestQuestionSetSendsSelection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/quiz-questions" || q.Get("level") != "jhs" || q.Get("class") != "basic-8-(jhs-2)" || q.Get("subject") != "social-studies" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_, _ = w.Write([]byte(`[{"question":"Capital of Ghana?","options":[{"A":"Kumasi"},{"B":"Accra"}],"correct_answer":"B","correct_answer_explanation":"Accra is the capital."}]`))
	}))
	defer srv.Close()

	qs, err := New(srv.URL, time.Second).QuestionSet(context.Background(), testSelection)
	if err != nil {
		t.Fatalf("question set: %v", err)
	}
	if len(qs) != 1 || qs[0].CorrectAnswer != "B" {
		t.Fatalf("unexpected set %+v", qs)
	}
}

func TestQuestionSetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Quiz not found for this selection."}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).QuestionSet(context.Background(), testSelection)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuestionSetEmptyArrayIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).QuestionSet(context.Background(), testSelection)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionConfigFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).SessionConfig(context.Background())
	if !errors.Is(err, domain.ErrConfigUnavailable) {
		t.Fatalf("expected ErrConfigUnavailable, got %v", err)
	}
}

func TestSessionConfigDecodesMinutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"enableTimer":true,"timePerQuestion":2}`))
	}))
	defer srv.Close()

	cfg, err := New(srv.URL, time.Second).SessionConfig(context.Background())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !cfg.TimerEnabled || cfg.SecondsPerQuestion != 120 || !cfg.ShuffleEnabled {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
