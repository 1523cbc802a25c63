package relay

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func authFrame(t *testing.T, priv ed25519.PrivateKey, deviceID string) []byte {
	t.Helper()
	ts := time.Now().Unix()
	payload := strconv.FormatInt(ts, 10) + ":" + deviceID
	sig := ed25519.Sign(priv, []byte(payload))
	msg := AuthMessage{
		Type:      "auth",
		DeviceID:  deviceID,
		Timestamp: ts,
		Signature: base64.StdEncoding.EncodeToString(sig),
	}
	b, _ := json.Marshal(msg)
	return b
}

func TestHubAuthenticatesAndForwardsBetweenPairedDevices(t *testing.T) {
	state := NewState()
	aPub, aPriv, _ := ed25519.GenerateKey(nil)
	bPub, bPriv, _ := ed25519.GenerateKey(nil)
	state.UpsertDevice(&RegisteredDevice{DeviceID: "a", VerifyKeyRaw: aPub, PairedDevices: map[string]struct{}{"b": {}}})
	state.UpsertDevice(&RegisteredDevice{DeviceID: "b", VerifyKeyRaw: bPub, PairedDevices: map[string]struct{}{"a": {}}})

	hub := &Hub{State: state}
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	connA := dialWS(t, srv)
	if err := connA.WriteMessage(websocket.TextMessage, authFrame(t, aPriv, "a")); err != nil {
		t.Fatalf("write auth a: %v", err)
	}
	if _, _, err := connA.ReadMessage(); err != nil { // auth_ok
		t.Fatalf("read auth_ok a: %v", err)
	}

	connB := dialWS(t, srv)
	if err := connB.WriteMessage(websocket.TextMessage, authFrame(t, bPriv, "b")); err != nil {
		t.Fatalf("write auth b: %v", err)
	}
	if _, _, err := connB.ReadMessage(); err != nil { // auth_ok
		t.Fatalf("read auth_ok b: %v", err)
	}

	// give the hub a moment to register both connections before relaying
	time.Sleep(50 * time.Millisecond)

	envelope := `{"to":"b","payload":"ciphertext"}`
	if err := connA.WriteMessage(websocket.TextMessage, []byte(envelope)); err != nil {
		t.Fatalf("write envelope: %v", err)
	}

	connB.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := connB.ReadMessage()
	if err != nil {
		t.Fatalf("read forwarded message: %v", err)
	}
	if string(data) != envelope {
		t.Fatalf("got %q, want %q", data, envelope)
	}
}
