package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ambulance-dispatch/pkg/logger"
)

// Hub fans server-side events out to connected clients grouped in rooms.
// Every client joins user_<id> and role_<role>; callers may add more rooms
// on registration (for example hospital_<id>).
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
}

type Message struct {
	Type      string                 `json:"type"`
	RoomID    string                 `json:"room_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

func UserRoom(userID string) string         { return "user_" + userID }
func RoleRoom(role string) string           { return "role_" + role }
func HospitalRoom(hospitalID string) string { return "hospital_" + hospitalID }

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

// Run serves registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.joinRoom(client, UserRoom(client.UserID))
	h.joinRoom(client, RoleRoom(client.Role))
	for _, room := range client.extraRooms {
		h.joinRoom(client, room)
	}

	logger.WithFields(logger.Fields{
		"user_id": client.UserID,
		"role":    client.Role,
	}).Debug("WebSocket client registered")

	h.sendToClient(client, Message{
		Type:      "welcome",
		Timestamp: getCurrentTimestamp(),
		Data: map[string]interface{}{
			"message": "Connected successfully",
		},
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.removeClient(client)
}

// removeClient must be called with the write lock held.
func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for roomID := range client.rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}

	logger.WithField("user_id", client.UserID).Debug("WebSocket client unregistered")
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		h.removeClient(client)
	}
}

// SendToRoom delivers message to every client in roomID. Clients whose send
// buffer is full miss the message rather than block the caller.
func (h *Hub) SendToRoom(roomID string, message Message) {
	message.RoomID = roomID
	if message.Timestamp == 0 {
		message.Timestamp = getCurrentTimestamp()
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	room, exists := h.rooms[roomID]
	if !exists {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal websocket message")
		return
	}

	for client := range room {
		select {
		case client.send <- data:
		default:
			logger.WithField("user_id", client.UserID).Warn("WebSocket send buffer full, message dropped")
		}
	}
}

func (h *Hub) SendToUser(userID string, message Message) {
	h.SendToRoom(UserRoom(userID), message)
}

func (h *Hub) sendToClient(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if roomID == "" {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
