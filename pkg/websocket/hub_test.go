package websocket

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case data := <-c.send:
			var m Message
			require.NoError(t, json.Unmarshal(data, &m))
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestHubRoomsAndDelivery(t *testing.T) {
	hub := NewHub()
	admin := NewClient(hub, nil, "u-admin", "hospital_admin", HospitalRoom("h1"))
	driver := NewClient(hub, nil, "u-driver", "ambulance_driver")

	hub.registerClient(admin)
	hub.registerClient(driver)
	assert.Equal(t, 2, clientCount(hub))

	welcome := drain(t, admin)
	require.Len(t, welcome, 1)
	assert.Equal(t, "welcome", welcome[0].Type)
	drain(t, driver)

	hub.SendToRoom(HospitalRoom("h1"), Message{Type: "assignment_created"})
	hub.SendToRoom(RoleRoom("ambulance_driver"), Message{Type: "accident_reported"})
	hub.SendToUser("u-driver", Message{Type: "direct"})

	adminMsgs := drain(t, admin)
	require.Len(t, adminMsgs, 1)
	assert.Equal(t, "assignment_created", adminMsgs[0].Type)
	assert.Equal(t, "hospital_h1", adminMsgs[0].RoomID)
	assert.NotZero(t, adminMsgs[0].Timestamp)

	driverMsgs := drain(t, driver)
	require.Len(t, driverMsgs, 2)
	assert.Equal(t, "accident_reported", driverMsgs[0].Type)
	assert.Equal(t, "direct", driverMsgs[1].Type)
}

func TestHubUnregisterRemovesEmptyRooms(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "u1", "vehicle_driver")
	hub.registerClient(c)

	hub.unregisterClient(c)
	hub.unregisterClient(c)

	assert.Equal(t, 0, clientCount(hub))
	assert.Empty(t, hub.rooms)
	_, open := <-c.send
	for open {
		_, open = <-c.send
	}
	assert.False(t, open)

	// sending to a vanished room is a no-op
	hub.SendToRoom(UserRoom("u1"), Message{Type: "x"})
}

func TestHubRunStopsOnContextCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := NewClient(hub, nil, "u1", "vehicle_driver")
	hub.register <- c
	cancel()
	<-done

	assert.Equal(t, 0, clientCount(hub))
}

func TestHandlerSendToUserWrapsPayload(t *testing.T) {
	hub := NewHub()
	h := &Handler{hub: hub}
	driver := NewClient(hub, nil, "u-driver", "ambulance_driver")
	other := NewClient(hub, nil, "u-other", "ambulance_driver")
	hub.registerClient(driver)
	hub.registerClient(other)
	drain(t, driver)
	drain(t, other)

	h.SendToUser("u-driver", "assignment_created", map[string]interface{}{"accident_id": "a1"})

	msgs := drain(t, driver)
	require.Len(t, msgs, 1)
	assert.Equal(t, "assignment_created", msgs[0].Type)
	assert.Equal(t, "user_u-driver", msgs[0].RoomID)
	assert.NotZero(t, msgs[0].Timestamp)
	assert.Equal(t, "a1", msgs[0].Data["accident_id"])
	assert.Empty(t, drain(t, other))
}

func clientCount(h *Hub) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
