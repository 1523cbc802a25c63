package relay

import "github.com/google/uuid"

// NewPairingToken generates a fresh one-time token for a pairing offer.
// The offering device calls this locally (it never round-trips through
// the relay) before POSTing /pair. Within this repository only the
// package's own test calls it.
func NewPairingToken() string {
	return uuid.New().String()
}
