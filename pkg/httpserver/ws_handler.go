package httpserver

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/suidash/backend/internal/events"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
)

// FeedHandler streams cache refresh events to dashboard clients over a
// websocket.
type FeedHandler struct {
	hub      *events.Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewFeedHandler creates the refresh feed handler.
func NewFeedHandler(hub *events.Hub, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard frontend is served from a different origin in
			// development; access control happens upstream.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleFeed serves GET /api/v1/ws.
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws-upgrade-failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ch, cancel := h.hub.Subscribe()
	defer cancel()

	h.logger.Debug("ws-client-connected", zap.String("remote", conn.RemoteAddr().String()))

	// Read pump exists only to observe the close handshake.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Debug("ws-write-failed", zap.Error(err))
				return
			}
		}
	}
}
