package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/40acres/fossad/completion"
	"github.com/40acres/fossad/daemon"
	"github.com/40acres/fossad/database/models"
)

func stateEvent(key string, session daemon.PayoutSession) completion.Event {
	kind := completion.EventPing
	switch session.State {
	case models.StateCompleted:
		kind = completion.EventCompleted
	case models.StateFailed:
		kind = completion.EventFailed
	}

	return completion.Event{
		Kind:       kind,
		SessionKey: key,
		Reason:     session.FailureReason,
		At:         time.Now(),
	}
}

const wsWriteTimeout = 10 * time.Second

// handleSessionSocket streams completion events for one payout session to
// the ATM screen. The current state is sent immediately, then events until
// a terminal one arrives or the client goes away.
func (s *Server) handleSessionSocket(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	session, err := s.sessions.Get(key)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())

		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")

		return
	}
	defer conn.Close()

	events, cancel := s.hub.Subscribe(key)
	defer cancel()

	// Discard client frames, the socket is push-only. Reads also surface
	// the close frame.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.writeEvent(conn, stateEvent(session.Key, session)); err != nil {
		return
	}
	if session.State.IsTerminal() {
		return
	}

	for {
		select {
		case <-clientGone:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := s.writeEvent(conn, event); err != nil {
				return
			}
			if event.IsTerminal() {
				return
			}
		}
	}
}

func (s *Server) writeEvent(conn wsConn, event completion.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))

	return conn.WriteJSON(event)
}

type wsConn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
}
