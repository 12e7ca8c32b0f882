package websocket

import (
	"context"
	"net/http"

	"ambulance-dispatch/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// RoomResolver names extra rooms for an authenticated user, such as the
// hospital room of a hospital admin.
type RoomResolver func(ctx context.Context, userID, role string) []string

type Handler struct {
	hub          *Hub
	upgrader     websocket.Upgrader
	resolveRooms RoomResolver
}

// NewHandler starts the hub on ctx. The gin context must carry "user_id"
// and "user_role" strings set by the auth middleware.
func NewHandler(ctx context.Context, allowedOrigins []string, resolveRooms RoomResolver) *Handler {
	hub := NewHub()
	go hub.Run(ctx)

	return &Handler{
		hub:          hub,
		upgrader:     newUpgrader(allowedOrigins),
		resolveRooms: resolveRooms,
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("user_role")
	if userID == "" || role == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var extra []string
	if h.resolveRooms != nil {
		extra = h.resolveRooms(c.Request.Context(), userID, role)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, userID, role, extra...)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Handler) SendToRoom(roomID, messageType string, data map[string]interface{}) {
	h.hub.SendToRoom(roomID, Message{
		Type:      messageType,
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	})
}

// SendToUser reaches every connection the user holds.
func (h *Handler) SendToUser(userID, messageType string, data map[string]interface{}) {
	h.hub.SendToUser(userID, Message{
		Type:      messageType,
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	})
}
