package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/domain"
	"scholarspath-quiz/internal/infra/memory"
)

type stubGenerator struct {
	questions domain.QuestionSet
	err       error
	delay     time.Duration
	got       domain.GenerationRequest
}

func (g *stubGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.QuestionSet, error) {
	g.got = req
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.questions, g.err
}

func newTestServer(t *testing.T, store app.Store, gen app.QuestionGenerator) *httptest.Server {
	t.Helper()
	return newTestServerWithOptions(t, store, gen, RouterOptions{})
}

func newTestServerWithOptions(t *testing.T, store app.Store, gen app.QuestionGenerator, opts RouterOptions) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()
	catalog := app.NewCatalog(store, gen, log)
	presence := memory.NewPresence()
	handler := NewHandler(catalog, presence, log)
	ws := NewWSHandler(app.NewEngine(catalog, catalog, log), presence, log)
	srv := httptest.NewServer(NewRouter(handler, ws, log, opts))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]any, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, strings.TrimSpace(string(raw))
}

func TestQuizQuestionsUnseededIsNotFound(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(), nil)
	status, body, _ := doJSON(t, http.MethodGet, srv.URL+"/quiz-questions?level=primary&class=basic-1&subject=mathematics", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if body["error"] == "" || body["error"] == nil {
		t.Fatalf("expected error message, got %v", body)
	}
}

func TestQuizQuestionsRejectsBadSelection(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(), nil)
	for _, q := range []string{"level=primary&class=basic-1", "level=primary&class=..&subject=x"} {
		status, _, _ := doJSON(t, http.MethodGet, srv.URL+"/quiz-questions?"+q, nil)
		if status != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, status)
		}
	}
}

func TestConfigDefaultsWhenMissing(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(), nil)
	status, _, raw := doJSON(t, http.MethodGet, srv.URL+"/config", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if raw != `{"enableTimer":true,"timePerQuestion":60,"shuffleQuestions":true}` {
		t.Fatalf("unexpected default config %s", raw)
	}
}

func TestSaveThenFetch(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(), nil)
	body := map[string]any{
		"level":      "primary",
		"classLevel": "basic-4",
		"subject":    "science",
		"questions": []map[string]any{{
			"question":                   "What is an example of an invertebrate?",
			"options":                    []map[string]string{{"A": "Dog"}, {"B": "Elephant"}, {"C": "Ant"}, {"D": "Cat"}},
			"correct_answer":             "C",
			"correct_answer_explanation": "Ants are insects.",
		}},
		"enableTimer":     true,
		"timePerQuestion": 15,
	}
	status, resp, _ := doJSON(t, http.MethodPost, srv.URL+"/save-questions", body)
	if status != http.StatusOK || resp["message"] == nil {
		t.Fatalf("expected 200 with message, got %d %v", status, resp)
	}

	status, _, raw := doJSON(t, http.MethodGet, srv.URL+"/quiz-questions?level=primary&class=basic-4&subject=science", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(raw, `"options":[{"A":"Dog"},{"B":"Elephant"},{"C":"Ant"},{"D":"Cat"}]`) {
		t.Fatalf("unexpected questions payload %s", raw)
	}

	_, _, raw = doJSON(t, http.MethodGet, srv.URL+"/config", nil)
	if raw != `{"enableTimer":true,"timePerQuestion":15,"shuffleQuestions":true}` {
		t.Fatalf("unexpected saved config %s", raw)
	}
}

func TestSaveValidation(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(), nil)

	status, resp, _ := doJSON(t, http.MethodPost, srv.URL+"/save-questions", map[string]any{
		"level":      "primary",
		"classLevel": "basic-4",
		"questions":  []any{},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	fields, _ := resp["fields"].(map[string]any)
	if fields["subject"] == nil || fields["questions"] == nil {
		t.Fatalf("expected subject and questions field errors, got %v", resp)
	}

	status, _, _ = doJSON(t, http.MethodPost, srv.URL+"/save-questions", map[string]any{
		"level":      "primary",
		"classLevel": "basic-4",
		"subject":    "science",
		"questions": []map[string]any{{
			"question":       "Pick",
			"options":        []map[string]string{{"A": "x"}, {"B": "y"}},
			"correct_answer": "D",
		}},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown correct answer, got %d", status)
	}
}

func TestGenerateWithoutGenerator(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(), nil)
	status, _, _ := doJSON(t, http.MethodPost, srv.URL+"/generate-questions", map[string]any{
		"level": "primary", "classLevel": "basic-4", "subject": "science", "topic": "Animals", "count": 5,
	})
	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
}

func TestGenerateMalformedReturnsRaw(t *testing.T) {
	gen := &stubGenerator{err: &domain.MalformedUpstreamResponseError{Reason: "no JSON array in response", Raw: "Sorry, no."}}
	srv := newTestServer(t, memory.NewStore(), gen)
	status, resp, _ := doJSON(t, http.MethodPost, srv.URL+"/generate-questions", map[string]any{
		"level": "primary", "classLevel": "basic-4", "subject": "science", "topic": "Animals", "count": "3",
	})
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if resp["raw"] != "Sorry, no." {
		t.Fatalf("expected raw payload, got %v", resp)
	}
	if gen.got.Count != 3 || gen.got.Topic != "Animals" || gen.got.Class != "basic-4" {
		t.Fatalf("unexpected generation request %+v", gen.got)
	}
}

func TestGenerateReturnsQuestionsWithoutSaving(t *testing.T) {
	store := memory.NewStore()
	gen := &stubGenerator{questions: domain.QuestionSet{{
		Text:          "2 + 2?",
		Options:       []domain.QuestionOption{{Label: "A", Text: "4"}, {Label: "B", Text: "5"}},
		CorrectAnswer: "A",
	}}}
	srv := newTestServer(t, store, gen)
	status, _, raw := doJSON(t, http.MethodPost, srv.URL+"/generate-questions", map[string]any{
		"level": "primary", "classLevel": "basic-1", "subject": "mathematics", "topic": "Addition", "count": 1,
	})
	if status != http.StatusOK || !strings.HasPrefix(raw, "[") {
		t.Fatalf("expected a question array, got %d %s", status, raw)
	}
	sel := domain.Selection{Level: "primary", Class: "basic-1", Subject: "mathematics"}
	if _, err := store.LoadQuestionSet(context.Background(), sel); err == nil {
		t.Fatalf("generation must not persist questions")
	}
}

func TestGenerateOutlivesRequestTimeout(t *testing.T) {
	gen := &stubGenerator{delay: 200 * time.Millisecond, questions: domain.QuestionSet{{
		Text:          "2 + 2?",
		Options:       []domain.QuestionOption{{Label: "A", Text: "4"}, {Label: "B", Text: "5"}},
		CorrectAnswer: "A",
	}}}
	srv := newTestServerWithOptions(t, memory.NewStore(), gen, RouterOptions{
		RequestTimeout:  50 * time.Millisecond,
		GenerateTimeout: 5 * time.Second,
	})
	status, _, raw := doJSON(t, http.MethodPost, srv.URL+"/generate-questions", map[string]any{
		"level": "primary", "classLevel": "basic-1", "subject": "mathematics", "topic": "Addition", "count": 1,
	})
	if status != http.StatusOK || !strings.HasPrefix(raw, "[") {
		t.Fatalf("expected generation to finish past the request timeout, got %d %s", status, raw)
	}
}

func TestGenerateValidatesCount(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(), &stubGenerator{})
	status, resp, _ := doJSON(t, http.MethodPost, srv.URL+"/generate-questions", map[string]any{
		"level": "primary", "classLevel": "basic-4", "subject": "science", "topic": "Animals", "count": 0,
	})
	fields, _ := resp["fields"].(map[string]any)
	if status != http.StatusBadRequest || fields["count"] == nil {
		t.Fatalf("expected count validation error, got %d %v", status, resp)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(), nil)
	status, body, _ := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	if status != http.StatusOK || body["status"] != "ok" || body["activeAttempts"] != float64(0) {
		t.Fatalf("unexpected healthz %d %v", status, body)
	}
}
