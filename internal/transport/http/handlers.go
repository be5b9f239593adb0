package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/domain"
)

// Presence tracks live WebSocket attempts.
type Presence interface {
	Track(ctx context.Context, attemptID string, sel domain.Selection)
	Touch(ctx context.Context, attemptID string)
	Release(ctx context.Context, attemptID string)
	Active() int
}

// Handler serves the question catalog, the config record and the admin write path.
type Handler struct {
	catalog   *app.Catalog
	presence  Presence
	validator *Validator
	log       zerolog.Logger
}

func NewHandler(catalog *app.Catalog, presence Presence, log zerolog.Logger) *Handler {
	return &Handler{
		catalog:   catalog,
		presence:  presence,
		validator: NewValidator(),
		log:       log.With().Str("component", "http").Logger(),
	}
}

// selectionFromQuery reads ?level=&class=&subject=.
func selectionFromQuery(r *http.Request) domain.Selection {
	q := r.URL.Query()
	return domain.Selection{
		Level:   q.Get("level"),
		Class:   q.Get("class"),
		Subject: q.Get("subject"),
	}
}

// QuizQuestions serves GET /quiz-questions.
func (h *Handler) QuizQuestions(w http.ResponseWriter, r *http.Request) {
	sel := selectionFromQuery(r)
	questions, err := h.catalog.QuestionSet(r.Context(), sel)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, questions)
	case errors.Is(err, domain.ErrInvalidSelection):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "No questions found for the selected subject.")
	default:
		h.log.Error().Err(err).Str("selection", sel.String()).Msg("load questions failed")
		writeError(w, http.StatusInternalServerError, "Failed to load questions.")
	}
}

// Config serves GET /config. It always answers 200.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	cfg, _ := h.catalog.SessionConfig(r.Context())
	writeJSON(w, http.StatusOK, cfg)
}

type saveRequest struct {
	Level            string             `json:"level" validate:"required"`
	ClassLevel       string             `json:"classLevel" validate:"required"`
	Subject          string             `json:"subject" validate:"required"`
	Questions        domain.QuestionSet `json:"questions" validate:"required,min=1"`
	EnableTimer      bool               `json:"enableTimer"`
	TimePerQuestion  float64            `json:"timePerQuestion" validate:"gte=0"`
	ShuffleQuestions *bool              `json:"shuffleQuestions"`
}

// SaveQuestions serves POST /save-questions: the question set, then the config record.
func (h *Handler) SaveQuestions(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !h.decode(w, r, &req) {
		return
	}
	sel := domain.Selection{Level: req.Level, Class: req.ClassLevel, Subject: req.Subject}
	cfg := domain.SessionConfigFromWire(req.EnableTimer, req.TimePerQuestion, req.ShuffleQuestions)

	err := h.catalog.Save(r.Context(), sel, req.Questions, cfg)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Questions and configuration saved successfully."})
	case errors.Is(err, domain.ErrInvalidSelection), errors.Is(err, domain.ErrInvalidQuestion), errors.Is(err, domain.ErrEmptySet):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Validation failed.", Fields: map[string]string{"detail": err.Error()}})
	default:
		h.log.Error().Err(err).Str("selection", sel.String()).Msg("save questions failed")
		writeError(w, http.StatusInternalServerError, "Failed to save questions.")
	}
}

// questionCount accepts both 5 and "5"; form inputs post the latter.
type questionCount int

func (c *questionCount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("count must be a whole number: %w", err)
	}
	*c = questionCount(n)
	return nil
}

type generateRequest struct {
	Level      string        `json:"level" validate:"required"`
	ClassLevel string        `json:"classLevel" validate:"required"`
	Subject    string        `json:"subject" validate:"required"`
	Topic      string        `json:"topic" validate:"required"`
	Count      questionCount `json:"count" validate:"gte=1,lte=50"`
}

// GenerateQuestions serves POST /generate-questions. Nothing is persisted.
func (h *Handler) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !h.decode(w, r, &req) {
		return
	}
	genReq := domain.GenerationRequest{
		Selection: domain.Selection{Level: req.Level, Class: req.ClassLevel, Subject: req.Subject},
		Topic:     req.Topic,
		Count:     int(req.Count),
	}

	questions, err := h.catalog.Generate(r.Context(), genReq)
	var malformed *domain.MalformedUpstreamResponseError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, questions)
	case errors.Is(err, domain.ErrGeneratorUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &malformed):
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "Failed to generate questions: " + malformed.Error(),
			Raw:   malformed.Raw,
		})
	default:
		writeError(w, http.StatusInternalServerError, "Failed to generate questions: "+err.Error())
	}
}

// Healthz reports liveness and the number of attempts held by this instance.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	active := 0
	if h.presence != nil {
		active = h.presence.Active()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "activeAttempts": active})
}

// decode reads a JSON body and validates it. It writes the 400 response itself.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body.", Fields: map[string]string{"detail": err.Error()}})
		return false
	}
	if fields := h.validator.Struct(dst); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Validation failed.", Fields: fields})
		return false
	}
	return true
}
