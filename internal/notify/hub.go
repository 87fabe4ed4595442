/*
Package notify pushes record-change events to connected websocket clients so
an open chat UI can refresh the day view without polling.
*/
package notify

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"healthdaily/internal/profile"
)

// Hub holds one connection per user. It is constructed once and injected;
// there is no package-level instance.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]*websocket.Conn
	upgrader websocket.Upgrader
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register tracks a new connection, replacing any previous one for the user.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[userID]; ok {
		old.Close()
	}
	h.clients[userID] = conn
	log.Info().Str("user_id", userID).Msg("websocket client connected")
}

// Unregister drops the user's connection.
func (h *Hub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; ok {
		delete(h.clients, userID)
		log.Info().Str("user_id", userID).Msg("websocket client disconnected")
	}
}

// RecordUpdated tells the user's client that a date's record changed. A dead
// connection is dropped on write failure.
func (h *Hub) RecordUpdated(userID, date string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.clients[userID]
	if !ok {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("RECORD_UPDATED "+date)); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to push record update, removing client")
		conn.Close()
		delete(h.clients, userID)
	}
}

// Handler upgrades the request and keeps the connection registered until the
// client closes it.
func (h *Hub) Handler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	h.Register(userID, conn)
	defer func() {
		h.Unregister(userID)
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}
