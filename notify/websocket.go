package notify

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/poiesic/syllabus/core"
)

const writeWait = 10 * time.Second

// ServeWebsocket upgrades the request and streams the session's events to the
// client as JSON. If jobID is set the client first receives a snapshot event
// built from the persisted job, so nothing missed while disconnected is lost.
// It returns when the client goes away.
func (g *Gateway) ServeWebsocket(w http.ResponseWriter, r *http.Request, sessionID, jobID string) {
	sub, err := g.Subscribe(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer sub.Close()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return g.checkOrigin(r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "session", sessionID, "err", err)
		return
	}
	defer conn.Close()

	logger := g.logger.With("session", sessionID, "subscriber", sub.ID)
	logger.Debug("websocket client connected")

	if jobID != "" {
		job, err := g.CatchUp(r.Context(), jobID)
		switch {
		case errors.Is(err, core.ErrNotFound):
			logger.Debug("no snapshot for unknown job", "job", jobID)
		case err != nil:
			logger.Warn("failed to load snapshot", "job", jobID, "err", err)
		default:
			if err := writeEvent(conn, core.NewEvent(core.EventSnapshot, job)); err != nil {
				logger.Debug("failed to send snapshot", "err", err)
				return
			}
		}
	}

	// Client messages are ignored; reading surfaces disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(g.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			logger.Debug("websocket client disconnected")
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Debug("ping failed", "err", err)
				return
			}
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(conn, event); err != nil {
				logger.Debug("write failed", "err", err)
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, event core.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}
