package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bimworks/portal-backend/internal/handler/http/response"
	"github.com/bimworks/portal-backend/internal/pkg/sse"
)

type EventsHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type EventsHandlerImpl struct {
	hub       *sse.Hub
	keepAlive time.Duration
}

func NewEventsHandler(hub *sse.Hub) EventsHandler {
	return &EventsHandlerImpl{hub: hub, keepAlive: 25 * time.Second}
}

// Stream implements EventsHandler. It holds the connection open and relays
// the caller's auth events until the client goes away.
func (h *EventsHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming is not supported")
		return
	}

	events, cleanup := h.hub.Subscribe(actor.UserID)
	defer cleanup()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := event.Write(w); err != nil {
				slog.Debug("event stream write failed", "user_id", actor.UserID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}
