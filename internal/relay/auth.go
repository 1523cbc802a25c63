package relay

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// AuthWindow is how far a device's claimed auth timestamp may drift from
// the relay's clock before the challenge is rejected.
const AuthWindow = 60 * time.Second

// AuthMessage is the first frame a device must send after the WebSocket
// upgrade. Signature is base64 over "timestamp:device_id".
type AuthMessage struct {
	Type      string `json:"type"`
	DeviceID  string `json:"device_id"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

// ParseAuthMessage decodes the first WS frame into an AuthMessage.
func ParseAuthMessage(raw []byte) (AuthMessage, error) {
	var msg AuthMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return AuthMessage{}, fmt.Errorf("relay: decode auth message: %w", err)
	}
	return msg, nil
}

// VerifyAuth checks the timestamp freshness window and the Ed25519
// signature over "timestamp:device_id", matching
// original_source/crates/relay/src/auth.rs's verify_auth exactly.
func VerifyAuth(msg AuthMessage, verifyKey ed25519.PublicKey, now time.Time) bool {
	drift := now.Unix() - msg.Timestamp
	if drift < 0 {
		drift = -drift
	}
	if time.Duration(drift)*time.Second > AuthWindow {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(msg.Signature)
	if err != nil {
		return false
	}
	payload := strconv.FormatInt(msg.Timestamp, 10) + ":" + msg.DeviceID
	return ed25519.Verify(verifyKey, []byte(payload), sig)
}
