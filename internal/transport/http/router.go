package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterOptions tunes the HTTP surface.
type RouterOptions struct {
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	// GenerateTimeout bounds /generate-questions, which waits on the model.
	GenerateTimeout time.Duration
}

// NewRouter mounts the REST endpoints and the attempt WebSocket.
func NewRouter(h *Handler, ws *WSHandler, log zerolog.Logger, opts RouterOptions) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	generateTimeout := opts.GenerateTimeout
	if generateTimeout <= 0 {
		generateTimeout = 2 * timeout
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)

	// The WebSocket outlives any request timeout.
	if ws != nil {
		r.Get("/ws", ws.ServeWS)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Get("/quiz-questions", h.QuizQuestions)
		r.Get("/config", h.Config)
		r.Post("/save-questions", h.SaveQuestions)
	})
	r.With(middleware.Timeout(generateTimeout)).Post("/generate-questions", h.GenerateQuestions)
	return r
}
