package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/domain"
)

// WSHandler runs one server-side attempt per WebSocket connection.
type WSHandler struct {
	engine   *app.Engine
	presence Presence
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(engine *app.Engine, presence Presence, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		engine:   engine,
		presence: presence,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Label string `json:"label"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type startedPayload struct {
	View      domain.SessionView   `json:"view"`
	Config    domain.SessionConfig `json:"config"`
	Remaining string               `json:"remaining,omitempty"`
}

type questionPayload struct {
	View domain.SessionView `json:"view"`
}

type tickPayload struct {
	Remaining string `json:"remaining"`
}

type submittedPayload struct {
	Report  domain.Report        `json:"report"`
	Trigger domain.SubmitTrigger `json:"trigger"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and starts an attempt for ?level=&class=&subject=.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sel := selectionFromQuery(r)
	if err := sel.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				// drain until close(send)
				for range send {
				}
				return
			}
		}
	}()

	// push is safe from the countdown goroutine; after closeSignals it drops messages.
	push := func(msg outboundMessage) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}

	var started atomic.Bool
	attempt, err := h.engine.Begin(ctx, sel, app.Hooks{
		OnTick: func(remaining string) {
			if started.Load() {
				push(outboundMessage{Type: "tick", Payload: tickPayload{Remaining: remaining}})
			}
		},
		OnSubmitted: func(report domain.Report, trigger domain.SubmitTrigger) {
			push(outboundMessage{Type: "submitted", Payload: submittedPayload{Report: report, Trigger: trigger}})
		},
	})
	if err != nil {
		push(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		close(closeSignals)
		close(send)
		<-writerDone
		return
	}

	attemptID := attempt.Session().ID()
	if h.presence != nil {
		h.presence.Track(ctx, attemptID, sel)
		defer h.presence.Release(context.Background(), attemptID)
	}

	push(outboundMessage{Type: "started", Payload: startedPayload{
		View:      attempt.View(),
		Config:    attempt.Config(),
		Remaining: attempt.Remaining(),
	}})
	started.Store(true)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if h.presence != nil {
			h.presence.Touch(ctx, attemptID)
		}
		if msg, ok := h.handle(attempt, inbound); ok {
			push(msg)
		}
	}

	close(closeSignals)
	attempt.Close()
	if cd := attempt.Countdown(); cd != nil {
		<-cd.Done()
	}
	close(send)
	<-writerDone
}

// handle applies one client message and returns the reply, if any. Submission replies
// through the OnSubmitted hook.
func (h *WSHandler) handle(attempt *app.Attempt, inbound inboundMessage) (outboundMessage, bool) {
	var err error
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if jsonErr := json.Unmarshal(inbound.Payload, &payload); jsonErr != nil || payload.Label == "" {
			return errorMessage("invalid select payload"), true
		}
		err = attempt.Select(domain.Label(payload.Label))
	case "next":
		err = attempt.Next()
	case "previous":
		err = attempt.Previous()
	case "submit":
		if _, first := attempt.Submit(); !first {
			return errorMessage(domain.ErrNotInProgress.Error()), true
		}
		return outboundMessage{}, false
	default:
		return errorMessage("unsupported message type"), true
	}
	if err != nil {
		return errorMessage(err.Error()), true
	}
	return outboundMessage{Type: "question", Payload: questionPayload{View: attempt.View()}}, true
}

func errorMessage(msg string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: msg}}
}
