package relay

import (
	"crypto/ed25519"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // companion devices connect from arbitrary LAN origins
	},
}

// relayEnvelope is a forwarded application message; payload is opaque
// ciphertext the relay never inspects.
type relayEnvelope struct {
	To      string `json:"to"`
	Payload string `json:"payload"`
}

// sendBuffer bounds how many outbound frames queue for a slow device
// before the hub starts dropping, matching M1's "no queuing" note for
// an offline recipient.
const sendBuffer = 16

// Hub upgrades WebSocket connections, runs the auth-then-forward
// protocol, and relays envelopes between paired devices. Connection
// bookkeeping follows the teacher's ws/handler.go Handler: a shared map
// guarded by the State's mutex, one writer goroutine per
// connection reading off a buffered channel instead of writing directly
// under lock.
type Hub struct {
	State *State
}

// HandleWS upgrades the request and runs the connection until the
// client disconnects or fails auth.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("relay: upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	_, first, err := conn.ReadMessage()
	if err != nil {
		return
	}
	auth, err := ParseAuthMessage(first)
	if err != nil || auth.Type != "auth" {
		_ = conn.WriteJSON(map[string]string{"error": "first message must be auth"})
		return
	}

	device, ok := h.State.Device(auth.DeviceID)
	if !ok || !VerifyAuth(auth, ed25519.PublicKey(device.VerifyKeyRaw), time.Now()) {
		_ = conn.WriteJSON(map[string]string{"error": "auth failed"})
		return
	}

	slog.Info("relay: device authenticated", "device_id", auth.DeviceID)
	_ = conn.WriteJSON(map[string]string{"type": "auth_ok"})

	c := &Connection{
		DeviceID:    auth.DeviceID,
		Send:        make(chan []byte, sendBuffer),
		ConnectedAt: time.Now(),
	}
	h.State.AddConnection(c)
	defer h.State.RemoveConnection(c.DeviceID)

	done := make(chan struct{})
	go h.writeLoop(conn, c, done)
	h.readLoop(conn, c)
	close(done)
}

func (h *Hub) writeLoop(conn *websocket.Conn, c *Connection, done <-chan struct{}) {
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) readLoop(conn *websocket.Conn, c *Connection) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var env relayEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if !h.State.IsPaired(c.DeviceID, env.To) {
			slog.Warn("relay: dropping message to unpaired device", "from", c.DeviceID, "to", env.To)
			continue
		}
		recipient, ok := h.State.Connection(env.To)
		if !ok {
			continue // recipient offline; message is dropped, not queued
		}
		select {
		case recipient.Send <- data:
		default:
			slog.Warn("relay: recipient send buffer full, dropping", "to", env.To)
		}
	}

	slog.Info("relay: device disconnected", "device_id", c.DeviceID)
}
